// Package history keeps a log of executed requests in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at      INTEGER NOT NULL,
	file        TEXT    NOT NULL DEFAULT '',
	line        INTEGER NOT NULL DEFAULT 0,
	method      TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	reason      TEXT    NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	size        INTEGER NOT NULL DEFAULT 0,
	attempts    INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_ran_at ON runs (ran_at);
`

// Entry is one executed request. Status is 0 and Error set when the request
// failed before a response arrived.
type Entry struct {
	ID       int64
	RanAt    time.Time
	File     string
	Line     int
	Method   string
	URL      string
	Status   int
	Reason   string
	Duration time.Duration
	Size     int
	Attempts int
	Error    string
}

// Store represents a history database
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// DefaultPath is history.db under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(dir, "hitblock", "history.db"), nil
}

// Open opens or creates the database at location, which is a file path or
// a sqlite:// URL.
func Open(location string) (*Store, error) {
	path := parseLocation(location)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive between queries.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, queryTimeout: 30 * time.Second}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts e and sets its ID. A zero RanAt is replaced by now.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if e.RanAt.IsZero() {
		e.RanAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (ran_at, file, line, method, url, status, reason, duration_ms, size, attempts, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RanAt.UnixMilli(), e.File, e.Line, e.Method, e.URL, e.Status, e.Reason,
		e.Duration.Milliseconds(), e.Size, e.Attempts, e.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	e.ID = id
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ran_at, file, line, method, url, status, reason, duration_ms, size, attempts, error
		 FROM runs ORDER BY ran_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		var ranAt, durationMs int64
		if err := rows.Scan(&e.ID, &ranAt, &e.File, &e.Line, &e.Method, &e.URL, &e.Status,
			&e.Reason, &durationMs, &e.Size, &e.Attempts, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.RanAt = time.UnixMilli(ranAt)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// parseLocation accepts sqlite://path, sqlite:path or a bare path.
func parseLocation(location string) string {
	location = strings.TrimSpace(location)
	if strings.HasPrefix(location, "sqlite://") {
		return strings.TrimPrefix(location, "sqlite://")
	}
	return strings.TrimPrefix(location, "sqlite:")
}
