// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the execution trace logger. Trace lines go to
// stderr and, when configured, are appended to a trace file next to the
// activity log. The trace is for operators; the activity log is the record.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/pkg/types"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultTraceFile is the trace file name used when none is configured.
const DefaultTraceFile = "postbot.log"

// New returns a logger configured by cfg. A relative trace file is placed in
// dir. The returned closer releases the trace file and is never nil.
func New(cfg types.LogConfig, dir string, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nopCloser{}, &types.ConfigurationError{Field: "log.level", Reason: err.Error()}
		}
		level = l
	}

	var formatter logrus.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	case FormatJSON:
		formatter = &logrus.JSONFormatter{}
	default:
		return nil, nopCloser{}, &types.ConfigurationError{Field: "log.format", Reason: fmt.Sprintf("unknown format %q", cfg.Format)}
	}

	if stderr == nil {
		stderr = os.Stderr
	}
	out := stderr
	var closer io.Closer = nopCloser{}

	if cfg.TraceFile != "" {
		path := cfg.TraceFile
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nopCloser{}, fmt.Errorf("creating trace directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("opening trace file %s: %w", path, err)
		}
		out = io.MultiWriter(stderr, f)
		closer = f
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(formatter)
	logger.SetLevel(level)
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
