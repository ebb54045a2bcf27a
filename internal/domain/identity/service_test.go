package identity

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// -- Mock Repository --

type mockPatientRepo struct {
	patients []*Patient
	nextSeq  int
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{nextSeq: 1}
}

func (m *mockPatientRepo) Register(_ context.Context, in RegisterPatientInput) (*Patient, error) {
	for _, p := range m.patients {
		if p.HealthCardNumber == in.HealthCardNumber {
			return nil, &DuplicateHealthCardError{HealthCardNumber: in.HealthCardNumber}
		}
	}
	p := &Patient{
		PatientID:        fmt.Sprintf("OPOR-%05d", m.nextSeq),
		HealthCardNumber: in.HealthCardNumber,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		RegisteredAt:     time.Now().Format(time.RFC3339Nano),
	}
	m.nextSeq++
	m.patients = append(m.patients, p)
	return p, nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, patientID string) (*Patient, error) {
	for _, p := range m.patients {
		if p.PatientID == patientID {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockPatientRepo) GetByHealthCard(_ context.Context, hc string) (*Patient, error) {
	for _, p := range m.patients {
		if p.HealthCardNumber == hc {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	return m.patients, nil
}

func (m *mockPatientRepo) Search(_ context.Context, query string) ([]*Patient, error) {
	q := strings.ToLower(query)
	var result []*Patient
	for _, p := range m.patients {
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.HealthCardNumber), q) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPatientRepo) Update(_ context.Context, patientID string, updates map[string]interface{}) (*Patient, error) {
	p, err := m.GetByID(nil, patientID)
	if err != nil {
		return nil, err
	}
	if phone, ok := updates["phone"].(string); ok {
		p.Phone = phone
	}
	return p, nil
}

func newTestService() *Service {
	return NewService(newMockPatientRepo())
}

func TestService_Register_RequiresHealthCard(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register(context.Background(), RegisterPatientInput{FirstName: "Maya"})
	if err == nil {
		t.Error("expected error for missing health_card_number")
	}
}

func TestService_Register(t *testing.T) {
	svc := newTestService()

	p, err := svc.Register(context.Background(), RegisterPatientInput{
		HealthCardNumber: "1234-567-890",
		FirstName:        "Maya",
		LastName:         "Singh",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PatientID != "OPOR-00001" {
		t.Errorf("expected OPOR-00001, got %s", p.PatientID)
	}
}

func TestService_GetByHealthCard(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.Register(ctx, RegisterPatientInput{HealthCardNumber: "1234-567-890", FirstName: "Maya"})

	p, err := svc.GetByHealthCard(ctx, "1234-567-890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FirstName != "Maya" {
		t.Errorf("expected Maya, got %s", p.FirstName)
	}
}
