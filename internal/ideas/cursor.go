// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ideas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/postbot/pkg/types"
)

// LoadCursor reads the rotation cursor from path. The bool result reports
// whether the file existed; a missing file yields the zero cursor.
func LoadCursor(path string) (types.Cursor, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Cursor{}, false, nil
		}
		return types.Cursor{}, false, fmt.Errorf("reading cursor: %w", err)
	}
	var cur types.Cursor
	if err := yaml.Unmarshal(data, &cur); err != nil {
		return types.Cursor{}, false, fmt.Errorf("parsing cursor: %w", err)
	}
	return cur, true, nil
}

// SaveCursor writes the cursor to path via a temp file and rename, so a
// reader never sees a half-written cursor.
func SaveCursor(path string, cur types.Cursor) error {
	data, err := yaml.Marshal(cur)
	if err != nil {
		return fmt.Errorf("marshaling cursor: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cursor directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cursor-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cursor: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
