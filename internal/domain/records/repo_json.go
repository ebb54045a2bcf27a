package records

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/opor/opor/internal/platform/jsonstore"
)

const recordsFile = "clinical_records.json"

// bundleRepoJSON persists the record mapping as one pretty-printed JSON
// object keyed by patient identifier, rewritten in full on every mutation.
// A single mutex makes the read-modify-write cycle atomic within the
// process; multi-process access is unsupported.
type bundleRepoJSON struct {
	mu      sync.Mutex
	path    string
	bundles map[string]*Bundle
}

// NewBundleRepoJSON loads the record mapping from dataDir, starting with an
// empty mapping when the file does not exist.
func NewBundleRepoJSON(dataDir string) (BundleRepository, error) {
	r := &bundleRepoJSON{
		path:    filepath.Join(dataDir, recordsFile),
		bundles: make(map[string]*Bundle),
	}
	if err := jsonstore.Load(r.path, &r.bundles); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *bundleRepoJSON) Get(_ context.Context, patientID string) (*Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bundles[patientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, patientID)
	}
	return b.clone(), nil
}

// ensure returns the bundle for patientID, creating it lazily with all five
// sequences empty on first write. Callers must hold the mutex.
func (r *bundleRepoJSON) ensure(patientID string) *Bundle {
	b, ok := r.bundles[patientID]
	if !ok {
		b = newBundle()
		r.bundles[patientID] = b
	}
	return b
}

func (r *bundleRepoJSON) AppendGroups(_ context.Context, patientID string, groups map[string][]Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.ensure(patientID)
	for name, entries := range groups {
		seq := b.sequence(name)
		if seq == nil {
			continue
		}
		*seq = append(*seq, entries...)
	}
	b.touch()
	return jsonstore.Save(r.path, r.bundles)
}

func (r *bundleRepoJSON) AppendClinicalRecord(_ context.Context, patientID string, record Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.ensure(patientID)
	b.ClinicalRecords = append(b.ClinicalRecords, record)
	b.touch()
	return jsonstore.Save(r.path, r.bundles)
}

// touch refreshes last_updated, which is overwritten on every mutation even
// when nothing was appended.
func (b *Bundle) touch() {
	now := time.Now().Format(time.RFC3339Nano)
	b.LastUpdated = &now
}
