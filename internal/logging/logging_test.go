// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/postbot/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	var stderr bytes.Buffer
	l, closer, err := New(types.LogConfig{}, "", &stderr)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	l.Debug("hidden")
	l.WithField("stage", "ideas").Info("selected idea")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "stage=ideas")
}

func TestNew_TraceFile(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	l, closer, err := New(types.LogConfig{Level: "debug", Format: "json", TraceFile: DefaultTraceFile}, dir, &stderr)
	require.NoError(t, err)

	l.WithField("run_id", "r1").Debug("starting run")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, DefaultTraceFile))
	require.NoError(t, err)
	assert.Equal(t, stderr.String(), string(data))

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "r1", line["run_id"])
	assert.Equal(t, "starting run", line["msg"])
}

func TestNew_AppendsToExistingTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o644))

	l, closer, err := New(types.LogConfig{TraceFile: path}, "/elsewhere", &bytes.Buffer{})
	require.NoError(t, err)
	l.Info("later")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "earlier\n"))
	assert.Contains(t, string(data), "later")
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   types.LogConfig
		field string
	}{
		{"level", types.LogConfig{Level: "loud"}, "log.level"},
		{"format", types.LogConfig{Format: "xml"}, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, closer, err := New(tt.cfg, "", &bytes.Buffer{})
			require.NotNil(t, closer)
			var ce *types.ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
