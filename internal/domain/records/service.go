package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type Service struct {
	bundles BundleRepository
}

func NewService(bundles BundleRepository) *Service {
	return &Service{bundles: bundles}
}

// GetUnifiedRecord returns the consolidated view over a patient's bundle.
// Sub-sequences missing from an older or partially-written bundle default
// to empty; last_updated keeps its stored value, which may be null.
func (s *Service) GetUnifiedRecord(ctx context.Context, patientID string) (*UnifiedRecord, error) {
	b, err := s.bundles.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &UnifiedRecord{
		PatientID:       patientID,
		ClinicalRecords: orEmpty(b.ClinicalRecords),
		Medications:     orEmpty(b.Medications),
		Allergies:       orEmpty(b.Allergies),
		Immunizations:   orEmpty(b.Immunizations),
		LabResults:      orEmpty(b.LabResults),
		LastUpdated:     b.LastUpdated,
	}, nil
}

func orEmpty(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// AddRecords appends the supplied sub-records to the patient's bundle,
// creating it if needed. last_updated is refreshed even when the input
// carries no recognized group.
func (s *Service) AddRecords(ctx context.Context, patientID string, in AddRecordsInput) error {
	if patientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	return s.bundles.AppendGroups(ctx, patientID, in.groups())
}

// AddClinicalRecord appends a single visit-level entry.
func (s *Service) AddClinicalRecord(ctx context.Context, patientID string, record Entry) error {
	if patientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	return s.bundles.AppendClinicalRecord(ctx, patientID, record)
}

// Date fields consulted per timeline source type.
const (
	dateFieldVisit      = "visit_date"
	dateFieldPrescribed = "prescribed_date"
	dateFieldTest       = "test_date"
)

// Timeline merges clinical records, medications, and lab results into one
// sequence sorted by date descending. Allergies and immunizations carry no
// event date and are excluded. An identifier with no bundle yields an empty
// timeline, not an error.
//
// Ordering is deterministic: entries are compared by their raw date string
// (ISO-8601 dates compare lexicographically in chronological order); entries
// whose date is missing, null, or not a string sort after all dated entries;
// ties keep input order (clinical records, then medications, then lab
// results, each in storage order).
func (s *Service) Timeline(ctx context.Context, patientID string) ([]TimelineEntry, error) {
	b, err := s.bundles.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return []TimelineEntry{}, nil
		}
		return nil, err
	}

	timeline := make([]TimelineEntry, 0, len(b.ClinicalRecords)+len(b.Medications)+len(b.LabResults))
	for _, cr := range b.ClinicalRecords {
		timeline = append(timeline, TimelineEntry{Type: TimelineTypeClinicalRecord, Date: cr[dateFieldVisit], Data: cr})
	}
	for _, med := range b.Medications {
		timeline = append(timeline, TimelineEntry{Type: TimelineTypeMedication, Date: med[dateFieldPrescribed], Data: med})
	}
	for _, lab := range b.LabResults {
		timeline = append(timeline, TimelineEntry{Type: TimelineTypeLabResult, Date: lab[dateFieldTest], Data: lab})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		di, iDated := timeline[i].Date.(string)
		dj, jDated := timeline[j].Date.(string)
		if iDated != jDated {
			return iDated // dated entries before undated ones
		}
		return di > dj
	})

	return timeline, nil
}
