// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the pipeline stages.
package types

import "time"

// Idea is a short topic seed used to prompt content generation.
type Idea struct {
	// Topic is the seed text substituted into the prompt template.
	Topic string `json:"topic" yaml:"topic"`

	// Tags are optional topic labels. They are available to the prompt
	// template as .Tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Platform is the target the idea was written for (e.g. "Twitter").
	// Empty means the configured platform.
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Cursor is the idea-rotation state carried between runs. The caller loads
// it before selection and persists the advanced value afterwards.
type Cursor struct {
	// Index is the pool position of the next idea for round-robin selection.
	Index int `json:"index" yaml:"index"`

	// UpdatedAt records when the cursor was last advanced.
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
