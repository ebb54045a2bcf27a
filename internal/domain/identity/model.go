package identity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPatientNotFound is returned when a patient identifier resolves to no record.
var ErrPatientNotFound = errors.New("patient not found")

// DuplicateHealthCardError is returned when registration would violate the
// one-identity-per-health-card invariant.
type DuplicateHealthCardError struct {
	HealthCardNumber string
}

func (e *DuplicateHealthCardError) Error() string {
	return fmt.Sprintf("patient with health card %s already exists", e.HealthCardNumber)
}

// Protected fields can never be changed through Update.
var protectedFields = map[string]bool{
	"patient_id":         true,
	"health_card_number": true,
	"registered_at":      true,
}

// Patient is one identity record. The demographic fields are opaque strings;
// the store performs no validation beyond the health-card uniqueness check.
// Extra carries keys outside the schema that callers supplied via Update, so
// a record round-trips through the JSON file without losing them.
type Patient struct {
	PatientID        string
	HealthCardNumber string
	FirstName        string
	LastName         string
	DateOfBirth      string
	Gender           string
	Address          string
	Phone            string
	Email            string
	RegisteredAt     string
	Extra            map[string]interface{}
}

// RegisterPatientInput carries the caller-supplied demographic fields for a
// new registration. patient_id and registered_at are assigned by the store.
type RegisterPatientInput struct {
	HealthCardNumber string `json:"health_card_number"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
}

// asMap flattens the record into its persisted JSON shape. Extra keys are
// overlaid last so a schemaless value supplied for a known key survives.
func (p *Patient) asMap() map[string]interface{} {
	m := map[string]interface{}{
		"patient_id":         p.PatientID,
		"health_card_number": p.HealthCardNumber,
		"first_name":         p.FirstName,
		"last_name":          p.LastName,
		"date_of_birth":      p.DateOfBirth,
		"gender":             p.Gender,
		"address":            p.Address,
		"phone":              p.Phone,
		"email":              p.Email,
		"registered_at":      p.RegisteredAt,
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return m
}

func (p *Patient) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.asMap())
}

func (p *Patient) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = patientFromMap(m)
	return nil
}

// patientFromMap rebuilds a Patient from its flattened form. String values
// for known keys populate the typed fields; everything else stays in Extra.
func patientFromMap(m map[string]interface{}) Patient {
	p := Patient{}
	fields := map[string]*string{
		"patient_id":         &p.PatientID,
		"health_card_number": &p.HealthCardNumber,
		"first_name":         &p.FirstName,
		"last_name":          &p.LastName,
		"date_of_birth":      &p.DateOfBirth,
		"gender":             &p.Gender,
		"address":            &p.Address,
		"phone":              &p.Phone,
		"email":              &p.Email,
		"registered_at":      &p.RegisteredAt,
	}
	for k, v := range m {
		if dst, known := fields[k]; known {
			if s, ok := v.(string); ok {
				*dst = s
				continue
			}
			if v == nil {
				continue
			}
		}
		if p.Extra == nil {
			p.Extra = make(map[string]interface{})
		}
		p.Extra[k] = v
	}
	return p
}

// clone returns an independent copy so callers cannot mutate store state.
func (p *Patient) clone() *Patient {
	cp := *p
	if p.Extra != nil {
		cp.Extra = make(map[string]interface{}, len(p.Extra))
		for k, v := range p.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}
