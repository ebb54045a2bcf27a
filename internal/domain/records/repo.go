package records

import "context"

type BundleRepository interface {
	Get(ctx context.Context, patientID string) (*Bundle, error)
	AppendGroups(ctx context.Context, patientID string, groups map[string][]Entry) error
	AppendClinicalRecord(ctx context.Context, patientID string, record Entry) error
}
