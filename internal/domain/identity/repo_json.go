package identity

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opor/opor/internal/platform/jsonstore"
)

const patientsFile = "patients.json"

// patientRepoJSON persists the identity collection as one pretty-printed
// JSON array, rewritten in full on every mutation. A single mutex makes the
// read-modify-write cycle atomic within the process; multi-process access
// is unsupported.
type patientRepoJSON struct {
	mu       sync.Mutex
	path     string
	patients []*Patient
	nextSeq  int
}

// NewPatientRepoJSON loads the identity collection from dataDir, starting
// empty when the file does not exist. The identifier sequence resumes from
// the highest sequence number already on file, so an identifier can never
// be reassigned.
func NewPatientRepoJSON(dataDir string) (PatientRepository, error) {
	r := &patientRepoJSON{path: filepath.Join(dataDir, patientsFile)}
	if err := jsonstore.Load(r.path, &r.patients); err != nil {
		return nil, err
	}
	r.nextSeq = 1
	for _, p := range r.patients {
		if n, ok := parseSequence(p.PatientID); ok && n >= r.nextSeq {
			r.nextSeq = n + 1
		}
	}
	return r, nil
}

func parseSequence(patientID string) (int, bool) {
	rest, found := strings.CutPrefix(patientID, "OPOR-")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatPatientID(seq int) string {
	return fmt.Sprintf("OPOR-%05d", seq)
}

func (r *patientRepoJSON) Register(_ context.Context, in RegisterPatientInput) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patients {
		if p.HealthCardNumber == in.HealthCardNumber {
			return nil, &DuplicateHealthCardError{HealthCardNumber: in.HealthCardNumber}
		}
	}

	p := &Patient{
		PatientID:        formatPatientID(r.nextSeq),
		HealthCardNumber: in.HealthCardNumber,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		Address:          in.Address,
		Phone:            in.Phone,
		Email:            in.Email,
		RegisteredAt:     time.Now().Format(time.RFC3339Nano),
	}

	r.patients = append(r.patients, p)
	if err := jsonstore.Save(r.path, r.patients); err != nil {
		// Roll back so a failed registration does not hold the health
		// card or leak into the next successful rewrite.
		r.patients = r.patients[:len(r.patients)-1]
		return nil, err
	}
	r.nextSeq++
	return p.clone(), nil
}

func (r *patientRepoJSON) GetByID(_ context.Context, patientID string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patients {
		if p.PatientID == patientID {
			return p.clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
}

func (r *patientRepoJSON) GetByHealthCard(_ context.Context, healthCardNumber string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patients {
		if p.HealthCardNumber == healthCardNumber {
			return p.clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: health card %s", ErrPatientNotFound, healthCardNumber)
}

func (r *patientRepoJSON) List(_ context.Context) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, p.clone())
	}
	return result, nil
}

// Search matches the query case-insensitively as a substring of first name,
// last name, or health card number. The empty query matches every record.
// Results keep storage order; there is no ranking.
func (r *patientRepoJSON) Search(_ context.Context, query string) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(query)
	var result []*Patient
	for _, p := range r.patients {
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.HealthCardNumber), q) {
			result = append(result, p.clone())
		}
	}
	return result, nil
}

// Update overwrites fields from updates on the stored record. Keys in the
// protected set are dropped silently; every other key is applied as-is,
// including keys outside the schema.
func (r *patientRepoJSON) Update(_ context.Context, patientID string, updates map[string]interface{}) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.patients {
		if p.PatientID == patientID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}

	m := r.patients[idx].asMap()
	for k, v := range updates {
		if protectedFields[k] {
			continue
		}
		m[k] = v
	}
	updated := patientFromMap(m)

	prev := r.patients[idx]
	r.patients[idx] = &updated
	if err := jsonstore.Save(r.path, r.patients); err != nil {
		r.patients[idx] = prev
		return nil, err
	}
	return updated.clone(), nil
}
