// Package history records tool invocations in a local SQLite database so
// operators can audit what the server did on their behalf.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
	id          TEXT PRIMARY KEY,
	invoked_at  TIMESTAMP NOT NULL,
	profile     TEXT NOT NULL,
	tool        TEXT NOT NULL,
	ok          INTEGER NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_invoked_at ON invocations(invoked_at DESC);
`

// Entry is one recorded tool invocation.
type Entry struct {
	ID        string
	InvokedAt time.Time
	Profile   string
	Tool      string
	OK        bool
	ErrorKind string
	Duration  time.Duration
}

// Store is a SQLite-backed invocation log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database under dir.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// The store is written from tool handlers serially enough that a single
	// connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one invocation.
func (s *Store) Record(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.InvokedAt.IsZero() {
		entry.InvokedAt = time.Now().UTC()
	}
	ok := 0
	if entry.OK {
		ok = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO invocations (id, invoked_at, profile, tool, ok, error_kind, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.InvokedAt, entry.Profile, entry.Tool, ok, entry.ErrorKind,
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, invoked_at, profile, tool, ok, error_kind, duration_ms
		 FROM invocations ORDER BY invoked_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var ok int
		var durationMS int64
		if err := rows.Scan(&entry.ID, &entry.InvokedAt, &entry.Profile, &entry.Tool,
			&ok, &entry.ErrorKind, &durationMS); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.OK = ok == 1
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
