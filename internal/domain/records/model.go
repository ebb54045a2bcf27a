package records

import "errors"

// ErrRecordNotFound is returned when a patient identifier has no bundle.
// Callers must not conflate this with an empty timeline, which is a valid
// result for the same identifier.
var ErrRecordNotFound = errors.New("no clinical record for patient")

// Group names of the five append-only sequences within a bundle.
const (
	GroupClinicalRecords = "clinical_records"
	GroupMedications     = "medications"
	GroupAllergies       = "allergies"
	GroupImmunizations   = "immunizations"
	GroupLabResults      = "lab_results"
)

// Entry is one clinical sub-record. Entries are opaque to the store: no
// schema is enforced and nothing is ever removed or deduplicated.
type Entry = map[string]interface{}

// Bundle is the accumulating clinical record for one patient identifier.
// The identifier key is trusted; there is no referential check against the
// identity store.
type Bundle struct {
	ClinicalRecords []Entry `json:"clinical_records"`
	Medications     []Entry `json:"medications"`
	Allergies       []Entry `json:"allergies"`
	Immunizations   []Entry `json:"immunizations"`
	LabResults      []Entry `json:"lab_results"`
	LastUpdated     *string `json:"last_updated"`
}

func newBundle() *Bundle {
	return &Bundle{
		ClinicalRecords: []Entry{},
		Medications:     []Entry{},
		Allergies:       []Entry{},
		Immunizations:   []Entry{},
		LabResults:      []Entry{},
	}
}

// sequence returns the slice backing the named group, or nil for names
// outside the five recognized groups.
func (b *Bundle) sequence(name string) *[]Entry {
	switch name {
	case GroupClinicalRecords:
		return &b.ClinicalRecords
	case GroupMedications:
		return &b.Medications
	case GroupAllergies:
		return &b.Allergies
	case GroupImmunizations:
		return &b.Immunizations
	case GroupLabResults:
		return &b.LabResults
	}
	return nil
}

func (b *Bundle) clone() *Bundle {
	cp := &Bundle{
		ClinicalRecords: cloneEntries(b.ClinicalRecords),
		Medications:     cloneEntries(b.Medications),
		Allergies:       cloneEntries(b.Allergies),
		Immunizations:   cloneEntries(b.Immunizations),
		LabResults:      cloneEntries(b.LabResults),
	}
	if b.LastUpdated != nil {
		lu := *b.LastUpdated
		cp.LastUpdated = &lu
	}
	return cp
}

// cloneEntries copies a sequence preserving nil versus empty: a lazily
// created bundle exposes all five sequences as empty, never nil, and the
// copy must not collapse that distinction.
func cloneEntries(s []Entry) []Entry {
	if s == nil {
		return nil
	}
	cp := make([]Entry, len(s))
	copy(cp, s)
	return cp
}

// UnifiedRecord is the consolidated read-only view over a bundle. Missing
// sub-sequences are presented as empty; a missing last_updated stays null.
type UnifiedRecord struct {
	PatientID       string  `json:"patient_id"`
	ClinicalRecords []Entry `json:"clinical_records"`
	Medications     []Entry `json:"medications"`
	Allergies       []Entry `json:"allergies"`
	Immunizations   []Entry `json:"immunizations"`
	LabResults      []Entry `json:"lab_results"`
	LastUpdated     *string `json:"last_updated"`
}

// TimelineEntry is one event in the merged chronological view. Date holds
// the raw value of the source entry's date field and may be null.
type TimelineEntry struct {
	Type string      `json:"type"`
	Date interface{} `json:"date"`
	Data Entry       `json:"data"`
}

// Timeline source types.
const (
	TimelineTypeClinicalRecord = "clinical_record"
	TimelineTypeMedication     = "medication"
	TimelineTypeLabResult      = "lab_result"
)

// AddRecordsInput carries batched sub-records to append to a bundle. Absent
// groups leave the corresponding stored sequence untouched.
type AddRecordsInput struct {
	ClinicalRecords []Entry `json:"clinical_records"`
	Medications     []Entry `json:"medications"`
	Allergies       []Entry `json:"allergies"`
	Immunizations   []Entry `json:"immunizations"`
	LabResults      []Entry `json:"lab_results"`
}

func (in AddRecordsInput) groups() map[string][]Entry {
	g := make(map[string][]Entry)
	if in.ClinicalRecords != nil {
		g[GroupClinicalRecords] = in.ClinicalRecords
	}
	if in.Medications != nil {
		g[GroupMedications] = in.Medications
	}
	if in.Allergies != nil {
		g[GroupAllergies] = in.Allergies
	}
	if in.Immunizations != nil {
		g[GroupImmunizations] = in.Immunizations
	}
	if in.LabResults != nil {
		g[GroupLabResults] = in.LabResults
	}
	return g
}
