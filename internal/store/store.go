// Package store persists users, books, chapters, and generated learning
// content in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound indicates a missing row.
var ErrNotFound = errors.New("not found")

// Book processing statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusManual     = "manual" // added via /add, no file attached
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the file and parent directory
// as needed, and applies the schema. Pass ":memory:" for an in-memory
// database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// buildDSN attaches the pragmas every connection needs. The in-memory form
// shares one database across the connection pool.
func buildDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?cache=shared&_pragma=foreign_keys(ON)"
	}
	return "file:" + path +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeList stores a string list as a JSON TEXT column.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

// decodeList reads a JSON TEXT column back into a string list. Empty and
// legacy-empty values decode to nil.
func decodeList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}
