// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GeneratedPost is the text produced by the generation API for one idea.
// It is created once by the generator and never mutated.
type GeneratedPost struct {
	Idea      Idea      `json:"idea" yaml:"idea"`
	Text      string    `json:"text" yaml:"text"`
	Model     string    `json:"model" yaml:"model"`
	Prompt    string    `json:"prompt" yaml:"prompt"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// PostID identifies a published post on the target platform.
type PostID string

// Published is the publisher's receipt for a submitted post.
type Published struct {
	ID PostID

	// URL is the public link to the post, empty when unknown.
	URL string

	// Simulated is true when nothing was sent to the platform.
	Simulated bool
}
