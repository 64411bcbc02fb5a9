// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each attempt; a retry gets a fresh timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of immediate retries after a failed call.
	// Values above one are capped at one.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// IdeasConfig holds settings for idea selection.
type IdeasConfig struct {
	// File is an optional YAML file with the idea pool. The built-in pool is
	// used when empty.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// Policy selects ideas: "random" or "round-robin".
	Policy string `json:"policy" yaml:"policy" mapstructure:"policy"`

	// CursorFile stores the round-robin cursor between runs.
	CursorFile string `json:"cursor_file" yaml:"cursor_file" mapstructure:"cursor_file"`
}

// GenerationConfig holds settings for the generation stage.
type GenerationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend is the generation API: openai, anthropic, gemini, or demo.
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the model identifier passed to the backend.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// PromptFile optionally overrides the built-in prompt template.
	PromptFile string `json:"prompt_file,omitempty" yaml:"prompt_file,omitempty" mapstructure:"prompt_file"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// BaseURL overrides the backend endpoint (openai and gemini).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// PlatformConfig describes the single supported posting target.
type PlatformConfig struct {
	// Name is the supported platform (e.g. "Twitter").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// CharLimit is the maximum post length in characters.
	CharLimit int `json:"char_limit" yaml:"char_limit" mapstructure:"char_limit"`

	// Overflow is what happens to over-limit text: "reject" or "truncate".
	Overflow string `json:"overflow" yaml:"overflow" mapstructure:"overflow"`
}

// PublishConfig holds settings for the publishing stage.
type PublishConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Real enables posting to the platform API. When false, posts are
	// simulated and only recorded.
	Real bool `json:"real" yaml:"real" mapstructure:"real"`

	// BaseURL overrides the posting API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ActivityConfig holds settings for the activity log store.
type ActivityConfig struct {
	// Backend is the store: "jsonl" or "sqlite".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dir is the directory holding the store and the trace file.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// WriteTimeout bounds a single append.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig controls the execution trace.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// TraceFile is the free-text execution trace, relative to the activity
	// directory unless absolute. Empty disables the file.
	TraceFile string `json:"trace_file" yaml:"trace_file" mapstructure:"trace_file"`
}

// Config groups all stage configurations for one run.
type Config struct {
	Ideas      IdeasConfig      `json:"ideas" yaml:"ideas" mapstructure:"ideas"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Platform   PlatformConfig   `json:"platform" yaml:"platform" mapstructure:"platform"`
	Publish    PublishConfig    `json:"publish" yaml:"publish" mapstructure:"publish"`
	Activity   ActivityConfig   `json:"activity" yaml:"activity" mapstructure:"activity"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// ConfigurationError reports a setup problem detected before any network
// call: missing credentials, an empty idea pool, or an unknown option.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}
