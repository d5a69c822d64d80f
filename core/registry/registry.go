package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Registry is the write facade over a Store. Each mutation loads the
// head, validates against the folded state, and appends with CAS,
// retrying on conflict up to maxRetries before surfacing the conflict
// to the caller.
type Registry struct {
	store      Store
	maxRetries int
}

func New(store Store, maxRetries int) *Registry {
	return &Registry{store: store, maxRetries: maxRetries}
}

// Propose creates a PROPOSED record and returns its id.
func (r *Registry) Propose(statement string, tier Tier, evidence []EvidenceRef) (string, error) {
	if statement == "" {
		return "", ErrEmptyStatement
	}
	if !tier.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidTier, tier)
	}
	id := uuid.NewString()
	err := r.appendRetry(func(records map[string]*ConstraintRecord) (Event, error) {
		return Event{
			Kind:      EventPropose,
			RecordID:  id,
			Statement: statement,
			Tier:      tier,
			Evidence:  evidence,
		}, nil
	})
	if err != nil {
		return "", err
	}
	slog.Info("constraint proposed", "id", id, "tier", int(tier))
	return id, nil
}

// Resolve transitions a PROPOSED (or PARTIAL) record. SUPERSEDED is
// not reachable through Resolve; use Supersede so the link graph stays
// consistent.
func (r *Registry) Resolve(id string, status Status, evidence []EvidenceRef) error {
	if !status.Valid() || status == StatusProposed || status == StatusSuperseded {
		return fmt.Errorf("%w: resolve to %s", ErrInvalidTransition, status)
	}
	err := r.appendRetry(func(records map[string]*ConstraintRecord) (Event, error) {
		rec, ok := records[id]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		if rec.Status == StatusSuperseded {
			return Event{}, fmt.Errorf("%w: record %s is superseded", ErrInvalidTransition, id)
		}
		return Event{
			Kind:     EventResolve,
			RecordID: id,
			Status:   status,
			Evidence: evidence,
		}, nil
	})
	if err != nil {
		return err
	}
	slog.Info("constraint resolved", "id", id, "status", string(status))
	return nil
}

// Supersede links oldID to newID and marks the old record SUPERSEDED.
// Both records remain in history.
func (r *Registry) Supersede(oldID, newID string) error {
	if oldID == newID {
		return fmt.Errorf("%w: record cannot supersede itself", ErrInvalidTransition)
	}
	err := r.appendRetry(func(records map[string]*ConstraintRecord) (Event, error) {
		old, ok := records[oldID]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrRecordNotFound, oldID)
		}
		if _, ok := records[newID]; !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrRecordNotFound, newID)
		}
		if old.Status == StatusSuperseded {
			return Event{}, fmt.Errorf("%w: record %s already superseded", ErrInvalidTransition, oldID)
		}
		return Event{
			Kind:     EventSupersede,
			RecordID: oldID,
			NewID:    newID,
		}, nil
	})
	if err != nil {
		return err
	}
	slog.Info("constraint superseded", "old", oldID, "new", newID)
	return nil
}

// appendRetry runs the validate-then-append loop. The build callback
// sees the folded state at the observed head; if another writer lands
// first the CAS fails and the whole loop re-reads and revalidates.
func (r *Registry) appendRetry(build func(map[string]*ConstraintRecord) (Event, error)) error {
	var lastConflict error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		head, err := r.store.Head()
		if err != nil {
			return err
		}
		events, err := r.store.Events()
		if err != nil {
			return err
		}
		ev, err := build(fold(events))
		if err != nil {
			return err
		}
		if _, err := r.store.Append(head, ev); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				lastConflict = err
				continue
			}
			return err
		}
		return nil
	}
	return lastConflict
}

// Record returns the folded state of one record.
func (r *Registry) Record(id string) (*ConstraintRecord, error) {
	events, err := r.store.Events()
	if err != nil {
		return nil, err
	}
	rec, ok := fold(events)[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return rec, nil
}

// Records returns all folded records sorted by creation.
func (r *Registry) Records() ([]*ConstraintRecord, error) {
	events, err := r.store.Events()
	if err != nil {
		return nil, err
	}
	folded := fold(events)
	out := make([]*ConstraintRecord, 0, len(folded))
	for _, rec := range folded {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// HistoryLength reports the event count; it only ever grows.
func (r *Registry) HistoryLength() (int64, error) {
	return r.store.Head()
}
