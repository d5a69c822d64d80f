package registry

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists the event log in a single sqlite file. The CAS
// append runs inside an immediate transaction, so concurrent writers
// serialize on the database lock and the head check is race-free.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Head() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("registry: head: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Append(expected int64, ev Event) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("registry: begin: %w", err)
	}
	defer tx.Rollback()

	var head int64
	if err := tx.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&head); err != nil {
		return 0, fmt.Errorf("registry: head: %w", err)
	}
	if expected != head {
		return head, &ConflictError{Expected: expected, Head: head}
	}

	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.Seq = head + 1
	payload, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("registry: encode event: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO events (kind, record_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(ev.Kind), ev.RecordID, string(payload), ev.At.Format(time.RFC3339Nano),
	); err != nil {
		return 0, fmt.Errorf("registry: append: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("registry: commit: %w", err)
	}
	return ev.Seq, nil
}

func (s *SQLiteStore) Events() ([]Event, error) {
	rows, err := s.db.Query(`SELECT payload FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("registry: events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("registry: scan: %w", err)
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("registry: decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
