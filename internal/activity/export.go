// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/postbot/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Filter narrows the exported entries. Zero fields match everything.
type Filter struct {
	Status types.RunStatus
	Limit  int
}

func (f Filter) apply(entries []types.LogEntry) []types.LogEntry {
	out := entries
	if f.Status != "" {
		out = make([]types.LogEntry, 0, len(entries))
		for _, e := range entries {
			if e.Status == f.Status {
				out = append(out, e)
			}
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// ExportYAML writes the filtered log as a YAML sequence.
func ExportYAML(ctx context.Context, l Log, f Filter, w io.Writer) error {
	entries, err := exportEntries(ctx, l, f)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the filtered log as an indented JSON array.
func ExportJSON(ctx context.Context, l Log, f Filter, w io.Writer) error {
	entries, err := exportEntries(ctx, l, f)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Export dispatches on format.
func Export(ctx context.Context, l Log, format string, f Filter, w io.Writer) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return ExportYAML(ctx, l, f, w)
	case FormatJSON:
		return ExportJSON(ctx, l, f, w)
	default:
		return &types.ConfigurationError{Field: "format", Reason: fmt.Sprintf("unknown export format %q", format)}
	}
}

func exportEntries(ctx context.Context, l Log, f Filter) ([]types.LogEntry, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries = f.apply(entries)
	if entries == nil {
		entries = []types.LogEntry{}
	}
	return entries, nil
}
