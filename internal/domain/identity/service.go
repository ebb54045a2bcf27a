package identity

import (
	"context"
	"fmt"
)

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

// Register creates a new identity. The health card number is required
// because the uniqueness invariant is meaningless for an empty value; the
// remaining demographic fields are stored as given.
func (s *Service) Register(ctx context.Context, in RegisterPatientInput) (*Patient, error) {
	if in.HealthCardNumber == "" {
		return nil, fmt.Errorf("health_card_number is required")
	}
	return s.patients.Register(ctx, in)
}

func (s *Service) Get(ctx context.Context, patientID string) (*Patient, error) {
	return s.patients.GetByID(ctx, patientID)
}

func (s *Service) GetByHealthCard(ctx context.Context, healthCardNumber string) (*Patient, error) {
	return s.patients.GetByHealthCard(ctx, healthCardNumber)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) Search(ctx context.Context, query string) ([]*Patient, error) {
	return s.patients.Search(ctx, query)
}

func (s *Service) Update(ctx context.Context, patientID string, updates map[string]interface{}) (*Patient, error) {
	return s.patients.Update(ctx, patientID, updates)
}
