// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/postbot/pkg/types"
)

// SQLiteStore keeps the activity log in a SQLite database. Triggers reject
// updates and deletes so appended rows stay immutable.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path and its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "create schema", Path: path, Err: err}
	}
	return s, nil
}

// Path implements Log.
func (s *SQLiteStore) Path() string { return s.path }

// Close implements Log.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			idea_topic TEXT NOT NULL,
			post_text TEXT NOT NULL,
			character_count INTEGER NOT NULL,
			platform TEXT NOT NULL,
			posted_at TEXT NOT NULL,
			status TEXT NOT NULL,
			error_detail TEXT,
			post_id TEXT,
			post_url TEXT,
			model TEXT,
			simulated INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status)`,
		`CREATE TRIGGER IF NOT EXISTS entries_no_update BEFORE UPDATE ON entries BEGIN
			SELECT RAISE(ABORT, 'activity log entries are immutable');
		END`,
		`CREATE TRIGGER IF NOT EXISTS entries_no_delete BEFORE DELETE ON entries BEGIN
			SELECT RAISE(ABORT, 'activity log entries are immutable');
		END`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append implements Log. The insert runs in its own transaction.
func (s *SQLiteStore) Append(ctx context.Context, e types.LogEntry) error {
	if err := validate(e); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, run_id, idea_topic, post_text, character_count, platform,
			posted_at, status, error_detail, post_id, post_url, model, simulated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.IdeaTopic, e.PostText, e.CharacterCount, e.Platform,
		e.PostedAt.UTC().Format(time.RFC3339Nano), string(e.Status),
		e.ErrorDetail, e.PostID, e.PostURL, e.Model, e.Simulated,
	)
	if err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: fmt.Errorf("inserting entry %s: %w", e.ID, err)}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: fmt.Errorf("committing: %w", err)}
	}
	return nil
}

// Entries implements Log.
func (s *SQLiteStore) Entries(ctx context.Context) ([]types.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, idea_topic, post_text, character_count, platform, posted_at,
			status, COALESCE(error_detail, ''), COALESCE(post_id, ''), COALESCE(post_url, ''),
			COALESCE(model, ''), simulated
		 FROM entries ORDER BY seq`)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	defer rows.Close()

	var entries []types.LogEntry
	for rows.Next() {
		var (
			e        types.LogEntry
			postedAt string
			status   string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.IdeaTopic, &e.PostText, &e.CharacterCount,
			&e.Platform, &postedAt, &status, &e.ErrorDetail, &e.PostID, &e.PostURL,
			&e.Model, &e.Simulated); err != nil {
			return nil, &StorageError{Op: "read", Path: s.path, Err: fmt.Errorf("scanning row: %w", err)}
		}
		e.Status = types.RunStatus(status)
		t, err := time.Parse(time.RFC3339Nano, postedAt)
		if err != nil {
			return nil, &StorageError{Op: "read", Path: s.path, Err: fmt.Errorf("entry %s: parsing posted_at: %w", e.ID, err)}
		}
		e.PostedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	return entries, nil
}
