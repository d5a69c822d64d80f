// Package registry is the append-only, versioned store of constraint
// findings. Records are created by hypothesis tests, transitioned by
// explicit resolution or supersession events, and never deleted: the
// registry is an audit log, not a mutable table. No other component
// writes record state.
package registry

import (
	"errors"
	"fmt"
	"time"
)

// Tier is the confidence level of a finding: 0 frozen fact through 4
// speculative.
type Tier int

const (
	TierFrozen      Tier = 0
	TierSpeculative Tier = 4
)

func (t Tier) Valid() bool { return t >= TierFrozen && t <= TierSpeculative }

// Status is the lifecycle state of a constraint record.
type Status string

const (
	StatusProposed   Status = "PROPOSED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusPartial    Status = "PARTIAL"
	StatusFalsified  Status = "FALSIFIED"
	StatusSuperseded Status = "SUPERSEDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusConfirmed, StatusPartial, StatusFalsified, StatusSuperseded:
		return true
	}
	return false
}

// EvidenceRef ties a finding to the test run that produced it. The
// engine treats the statement as opaque prose; the evidence is the
// structured part.
type EvidenceRef struct {
	TestID     string  `json:"test_id"`
	PValue     float64 `json:"p_value"`
	EffectSize float64 `json:"effect_size"`
	SampleSize int     `json:"sample_size"`
}

// ConstraintRecord is the folded current state of one finding.
type ConstraintRecord struct {
	ID        string        `json:"id"`
	Statement string        `json:"statement"`
	Tier      Tier          `json:"tier"`
	Status    Status        `json:"status"`
	Evidence  []EvidenceRef `json:"evidence"`

	// Supersedes and SupersededBy link records without deleting
	// either side.
	Supersedes   string `json:"supersedes,omitempty"`
	SupersededBy string `json:"superseded_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventKind discriminates the three append operations.
type EventKind string

const (
	EventPropose   EventKind = "propose"
	EventResolve   EventKind = "resolve"
	EventSupersede EventKind = "supersede"
)

// Event is one immutable log entry. Record state is a pure fold over
// the event sequence, so two stores replaying the same log agree
// exactly.
type Event struct {
	Seq       int64         `json:"seq"`
	Kind      EventKind     `json:"kind"`
	RecordID  string        `json:"record_id"`
	NewID     string        `json:"new_id,omitempty"`
	Statement string        `json:"statement,omitempty"`
	Tier      Tier          `json:"tier,omitempty"`
	Status    Status        `json:"status,omitempty"`
	Evidence  []EvidenceRef `json:"evidence,omitempty"`
	At        time.Time     `json:"at"`
}

// ConflictError reports a stale-version append. The caller retries
// against the current head; the registry never auto-resolves, which
// would risk silently overwriting a concurrent finding.
type ConflictError struct {
	Expected int64
	Head     int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry: stale version %d, head is %d", e.Expected, e.Head)
}

var (
	ErrRecordNotFound    = errors.New("registry: record not found")
	ErrInvalidTransition = errors.New("registry: invalid status transition")
	ErrInvalidTier       = errors.New("registry: tier out of range")
	ErrEmptyStatement    = errors.New("registry: statement is empty")
)

// fold replays events into current record state. Unknown record
// references inside a valid log cannot happen; the append path
// validates them.
func fold(events []Event) map[string]*ConstraintRecord {
	records := make(map[string]*ConstraintRecord)
	for _, ev := range events {
		switch ev.Kind {
		case EventPropose:
			records[ev.RecordID] = &ConstraintRecord{
				ID:        ev.RecordID,
				Statement: ev.Statement,
				Tier:      ev.Tier,
				Status:    StatusProposed,
				Evidence:  append([]EvidenceRef(nil), ev.Evidence...),
				CreatedAt: ev.At,
				UpdatedAt: ev.At,
			}
		case EventResolve:
			if r, ok := records[ev.RecordID]; ok {
				r.Status = ev.Status
				r.Evidence = append(r.Evidence, ev.Evidence...)
				r.UpdatedAt = ev.At
			}
		case EventSupersede:
			old, ok1 := records[ev.RecordID]
			next, ok2 := records[ev.NewID]
			if ok1 && ok2 {
				old.Status = StatusSuperseded
				old.SupersededBy = next.ID
				next.Supersedes = old.ID
				old.UpdatedAt = ev.At
				next.UpdatedAt = ev.At
			}
		}
	}
	return records
}
