// Package history records which replication sequence numbers have been
// applied downstream.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

var ErrNoHistory = errors.New("no sync history")

const schema = `
CREATE TABLE IF NOT EXISTS sync_history (
	sequence_number INTEGER PRIMARY KEY,
	timestamp       TEXT NOT NULL,
	diff_path       TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	applied_at      TEXT NOT NULL
);`

// Entry is one applied diff.
type Entry struct {
	SequenceNumber int       `json:"sequence_number"`
	Timestamp      string    `json:"timestamp"`
	DiffPath       string    `json:"diff_path"`
	RunID          string    `json:"run_id"`
	AppliedAt      time.Time `json:"applied_at"`
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and creates if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// Record stores e, replacing an earlier entry for the same sequence number.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_history (sequence_number, timestamp, diff_path, run_id, applied_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sequence_number) DO UPDATE SET
			timestamp = excluded.timestamp,
			diff_path = excluded.diff_path,
			run_id = excluded.run_id,
			applied_at = excluded.applied_at`,
		e.SequenceNumber, e.Timestamp, e.DiffPath, e.RunID, e.AppliedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording sequence %d: %w", e.SequenceNumber, err)
	}
	return nil
}

// Latest returns the entry with the highest sequence number.
func (s *Store) Latest(ctx context.Context) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sequence_number, timestamp, diff_path, run_id, applied_at
		FROM sync_history ORDER BY sequence_number DESC LIMIT 1`)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest entry: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_number, timestamp, diff_path, run_id, applied_at
		FROM sync_history ORDER BY sequence_number DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e         Entry
		appliedAt string
	)
	if err := row.Scan(&e.SequenceNumber, &e.Timestamp, &e.DiffPath, &e.RunID, &appliedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, appliedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing applied_at: %w", err)
	}
	e.AppliedAt = t
	return &e, nil
}
