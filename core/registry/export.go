package registry

import (
	"encoding/json"
	"time"
)

// ExportFilter narrows an export snapshot. MaxTier below zero means no
// tier filter; empty Status means every status.
type ExportFilter struct {
	MaxTier int
	Status  Status
}

// Snapshot is the exported registry view consumed by external
// documentation tooling.
type Snapshot struct {
	ExportedAt time.Time           `json:"exported_at"`
	History    int64               `json:"history_length"`
	Records    []*ConstraintRecord `json:"records"`
}

// Export renders a tier- and status-filtered JSON snapshot.
func (r *Registry) Export(filter ExportFilter) ([]byte, error) {
	records, err := r.Records()
	if err != nil {
		return nil, err
	}
	head, err := r.store.Head()
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		ExportedAt: time.Now().UTC(),
		History:    head,
		Records:    make([]*ConstraintRecord, 0, len(records)),
	}
	for _, rec := range records {
		if filter.MaxTier >= 0 && int(rec.Tier) > filter.MaxTier {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		snap.Records = append(snap.Records, rec)
	}
	return json.MarshalIndent(snap, "", "  ")
}
