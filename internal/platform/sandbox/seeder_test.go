package sandbox

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"testing"

	"github.com/opor/opor/internal/domain/identity"
	"github.com/opor/opor/internal/domain/records"
)

func newTestServices(t *testing.T) (*identity.Service, *records.Service) {
	t.Helper()
	dir := t.TempDir()
	patientRepo, err := identity.NewPatientRepoJSON(dir)
	if err != nil {
		t.Fatalf("identity repo: %v", err)
	}
	bundleRepo, err := records.NewBundleRepoJSON(dir)
	if err != nil {
		t.Fatalf("records repo: %v", err)
	}
	return identity.NewService(patientRepo), records.NewService(bundleRepo)
}

func TestGeneratePatient_Shape(t *testing.T) {
	identitySvc, recordsSvc := newTestServices(t)
	s := NewSeeder(identitySvc, recordsSvc, 42)

	healthCard := regexp.MustCompile(`^\d{4}-\d{3}-\d{3}$`)
	dob := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	for i := 0; i < 20; i++ {
		in := s.GeneratePatient()
		if !healthCard.MatchString(in.HealthCardNumber) {
			t.Errorf("bad health card format: %s", in.HealthCardNumber)
		}
		if !dob.MatchString(in.DateOfBirth) {
			t.Errorf("bad date of birth: %s", in.DateOfBirth)
		}
		if in.FirstName == "" || in.LastName == "" || in.Email == "" {
			t.Errorf("incomplete patient: %+v", in)
		}
	}
}

func TestGenerateClinicalRecords_Volumes(t *testing.T) {
	identitySvc, recordsSvc := newTestServices(t)
	s := NewSeeder(identitySvc, recordsSvc, 42)

	for i := 0; i < 10; i++ {
		in := s.GenerateClinicalRecords()
		if n := len(in.ClinicalRecords); n < 2 || n > 5 {
			t.Errorf("visits out of range: %d", n)
		}
		if n := len(in.Immunizations); n < 1 || n > 3 {
			t.Errorf("immunizations out of range: %d", n)
		}
		if n := len(in.LabResults); n < 1 || n > 3 {
			t.Errorf("lab results out of range: %d", n)
		}
		for _, v := range in.ClinicalRecords {
			if v["visit_id"] == "" || v["visit_date"] == "" {
				t.Errorf("visit missing identity fields: %v", v)
			}
			if _, ok := v["vital_signs"].(records.Entry); !ok {
				t.Errorf("visit missing vital signs: %v", v)
			}
		}
	}
}

func TestSeeder_SameSeedIsReproducible(t *testing.T) {
	aID, aRec := newTestServices(t)
	bID, bRec := newTestServices(t)

	a := NewSeeder(aID, aRec, 7)
	b := NewSeeder(bID, bRec, 7)

	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(a.GeneratePatient(), b.GeneratePatient()) {
			t.Fatalf("generation diverged at patient %d", i)
		}
	}
}

// scriptedPatientRepo fails Register with the scripted errors in order, then
// succeeds. The read methods are never reached by the seeder.
type scriptedPatientRepo struct {
	errs  []error
	calls int
}

func (r *scriptedPatientRepo) Register(_ context.Context, in identity.RegisterPatientInput) (*identity.Patient, error) {
	r.calls++
	if r.calls <= len(r.errs) {
		return nil, r.errs[r.calls-1]
	}
	return &identity.Patient{
		PatientID:        fmt.Sprintf("OPOR-%05d", r.calls),
		HealthCardNumber: in.HealthCardNumber,
	}, nil
}

func (r *scriptedPatientRepo) GetByID(_ context.Context, _ string) (*identity.Patient, error) {
	return nil, identity.ErrPatientNotFound
}

func (r *scriptedPatientRepo) GetByHealthCard(_ context.Context, _ string) (*identity.Patient, error) {
	return nil, identity.ErrPatientNotFound
}

func (r *scriptedPatientRepo) List(_ context.Context) ([]*identity.Patient, error) {
	return nil, nil
}

func (r *scriptedPatientRepo) Search(_ context.Context, _ string) ([]*identity.Patient, error) {
	return nil, nil
}

func (r *scriptedPatientRepo) Update(_ context.Context, _ string, _ map[string]interface{}) (*identity.Patient, error) {
	return nil, identity.ErrPatientNotFound
}

func TestSeed_RetriesDuplicateHealthCards(t *testing.T) {
	repo := &scriptedPatientRepo{errs: []error{
		&identity.DuplicateHealthCardError{HealthCardNumber: "1111-222-333"},
		&identity.DuplicateHealthCardError{HealthCardNumber: "4444-555-666"},
	}}
	_, recordsSvc := newTestServices(t)
	s := NewSeeder(identity.NewService(repo), recordsSvc, 42)

	ids, err := s.Seed(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected collisions to be retried: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 patient, got %d", len(ids))
	}
	if repo.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", repo.calls)
	}
}

func TestSeed_StorageErrorNotRetried(t *testing.T) {
	repo := &scriptedPatientRepo{errs: []error{fmt.Errorf("write patients.json: disk full")}}
	_, recordsSvc := newTestServices(t)
	s := NewSeeder(identity.NewService(repo), recordsSvc, 42)

	_, err := s.Seed(context.Background(), 1)
	if err == nil {
		t.Fatal("expected the storage error to surface")
	}
	if repo.calls != 1 {
		t.Errorf("storage error must not be retried, got %d attempts", repo.calls)
	}
}

func TestSeed_CreatesPatientsWithRecords(t *testing.T) {
	identitySvc, recordsSvc := newTestServices(t)
	s := NewSeeder(identitySvc, recordsSvc, 42)
	ctx := context.Background()

	ids, err := s.Seed(ctx, 3)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(ids))
	}

	patients, _ := identitySvc.List(ctx)
	if len(patients) != 3 {
		t.Errorf("expected 3 registered patients, got %d", len(patients))
	}

	for _, id := range ids {
		record, err := recordsSvc.GetUnifiedRecord(ctx, id)
		if err != nil {
			t.Fatalf("no bundle for %s: %v", id, err)
		}
		if len(record.ClinicalRecords) < 2 {
			t.Errorf("%s: expected at least 2 visits, got %d", id, len(record.ClinicalRecords))
		}
	}
}
