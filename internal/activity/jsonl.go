// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/postbot/pkg/types"
)

// JSONLStore keeps one JSON object per line in a single file. Every append
// rewrites the file through a temp file and rename, so readers see either
// the old log or the old log plus the new entry.
type JSONLStore struct {
	path string
}

// NewJSONLStore returns a store backed by path. The file is created on the
// first append.
func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{path: path}
}

// Path implements Log.
func (s *JSONLStore) Path() string { return s.path }

// Close implements Log.
func (s *JSONLStore) Close() error { return nil }

// Append implements Log.
func (s *JSONLStore) Append(ctx context.Context, e types.LogEntry) error {
	if err := validate(e); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: err}
	}

	line, err := json.Marshal(e)
	if err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: fmt.Errorf("marshaling entry: %w", err)}
	}

	existing, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: "read", Path: s.path, Err: err}
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		existing = append(existing, '\n')
	}

	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: err}
	}

	data := make([]byte, 0, len(existing)+len(line)+1)
	data = append(data, existing...)
	data = append(data, line...)
	data = append(data, '\n')

	if err := s.replace(ctx, data); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: err}
	}
	return nil
}

// replace writes data to a temp file in the same directory and renames it
// over the log.
func (s *JSONLStore) replace(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".posted-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Last point at which the append can be abandoned cleanly.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Entries implements Log. A missing file is an empty log.
func (s *JSONLStore) Entries(ctx context.Context) ([]types.LogEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}

	var entries []types.LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &StorageError{Op: "read", Path: s.path, Err: err}
		}
		var e types.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, &StorageError{Op: "read", Path: s.path, Err: fmt.Errorf("line %d: %w", lineNo, err)}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	return entries, nil
}
