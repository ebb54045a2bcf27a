package identity

import "context"

type PatientRepository interface {
	Register(ctx context.Context, in RegisterPatientInput) (*Patient, error)
	GetByID(ctx context.Context, patientID string) (*Patient, error)
	GetByHealthCard(ctx context.Context, healthCardNumber string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, query string) ([]*Patient, error)
	Update(ctx context.Context, patientID string, updates map[string]interface{}) (*Patient, error)
}
