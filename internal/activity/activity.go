// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package activity persists the append-only record of run outcomes. The log
// is the source of truth for what has been posted.
package activity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/postbot/pkg/types"
)

// Store backends.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

const (
	jsonlFile = "posted.jsonl"
	dbFile    = "activity.db"
)

// Log is an append-only store of run outcomes. Existing entries are never
// modified.
type Log interface {
	// Append durably adds one entry. On error nothing is recorded.
	Append(ctx context.Context, e types.LogEntry) error

	// Entries returns all entries in append order.
	Entries(ctx context.Context) ([]types.LogEntry, error)

	// Path is the location of the backing file.
	Path() string

	Close() error
}

// StorageError reports a failure to read or write the activity log.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("activity log: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Open returns the store selected by cfg, creating its directory if needed.
func Open(cfg types.ActivityConfig) (Log, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create directory", Path: dir, Err: err}
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendJSONL:
		return NewJSONLStore(filepath.Join(dir, jsonlFile)), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, dbFile))
	default:
		return nil, &types.ConfigurationError{Field: "activity.backend", Reason: fmt.Sprintf("unknown backend %q", cfg.Backend)}
	}
}

// validate rejects entries that would make the log ambiguous to read back.
func validate(e types.LogEntry) error {
	if e.ID == "" {
		return fmt.Errorf("entry has no id")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("entry %s has unknown status %q", e.ID, e.Status)
	}
	return nil
}

// Duplicates returns the texts that were successfully posted more than once,
// with their counts. Only literal text matches count.
func Duplicates(entries []types.LogEntry) map[string]int {
	seen := make(map[string]int)
	for _, e := range entries {
		if e.Status == types.StatusSuccess && e.PostText != "" {
			seen[e.PostText]++
		}
	}
	for text, n := range seen {
		if n < 2 {
			delete(seen, text)
		}
	}
	return seen
}

// Counts tallies entries by status.
func Counts(entries []types.LogEntry) map[types.RunStatus]int {
	c := make(map[types.RunStatus]int, 3)
	for _, e := range entries {
		c[e.Status]++
	}
	return c
}
