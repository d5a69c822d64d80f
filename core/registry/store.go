package registry

import (
	"sync"
	"time"
)

// Store is the event-log persistence contract. Append is a
// compare-and-swap on the head sequence: exactly one of two concurrent
// writers wins, the other receives *ConflictError and retries.
type Store interface {
	// Head returns the current event count.
	Head() (int64, error)

	// Append writes one event iff the head still equals expected, and
	// returns the new head.
	Append(expected int64, ev Event) (int64, error)

	// Events returns the full log in sequence order.
	Events() ([]Event, error)

	Close() error
}

// MemStore is the in-process store used by tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Head() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.events)), nil
}

func (s *MemStore) Append(expected int64, ev Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	head := int64(len(s.events))
	if expected != head {
		return head, &ConflictError{Expected: expected, Head: head}
	}
	ev.Seq = head + 1
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return ev.Seq, nil
}

func (s *MemStore) Events() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...), nil
}

func (s *MemStore) Close() error { return nil }
