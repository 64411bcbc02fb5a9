// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus is the terminal outcome of one pipeline run.
type RunStatus string

const (
	StatusSuccess RunStatus = "SUCCESS"
	StatusSkipped RunStatus = "SKIPPED"
	StatusFailed  RunStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s RunStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// LogEntry records the outcome of one run in the activity log. Entries are
// immutable once appended.
type LogEntry struct {
	// ID uniquely identifies the entry.
	ID string `json:"id" yaml:"id"`

	// RunID correlates the entry with the execution trace.
	RunID string `json:"run_id" yaml:"run_id"`

	IdeaTopic string `json:"idea_topic" yaml:"idea_topic"`

	// PostText is the generated (and possibly truncated) text. Empty when
	// generation failed.
	PostText string `json:"post_text" yaml:"post_text"`

	// CharacterCount is the length of PostText in code points.
	CharacterCount int `json:"character_count" yaml:"character_count"`

	Platform string    `json:"platform" yaml:"platform"`
	PostedAt time.Time `json:"posted_at" yaml:"posted_at"`
	Status   RunStatus `json:"status" yaml:"status"`

	// ErrorDetail explains SKIPPED and FAILED outcomes.
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`

	PostID  string `json:"post_id,omitempty" yaml:"post_id,omitempty"`
	PostURL string `json:"post_url,omitempty" yaml:"post_url,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`

	// Simulated marks entries produced without a real posting call.
	Simulated bool `json:"simulated,omitempty" yaml:"simulated,omitempty"`
}
