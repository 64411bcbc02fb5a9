// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/postbot/pkg/types"
)

// Backend names accepted in configuration.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
	BackendDemo      = "demo"
)

// Default model per backend, used when the configuration names none.
var defaultModels = map[string]string{
	BackendOpenAI:    "gpt-4",
	BackendAnthropic: "claude-sonnet-4-20250514",
	BackendGemini:    defaultGeminiModel,
	BackendDemo:      "demo",
}

// CredentialKey returns the environment variable holding the API key for
// backend, or "" when the backend needs none.
func CredentialKey(backend string) string {
	switch backend {
	case BackendOpenAI, "":
		return "OPENAI_API_KEY"
	case BackendAnthropic:
		return "ANTHROPIC_API_KEY"
	case BackendGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// NewBackend builds the backend named in cfg.
func NewBackend(ctx context.Context, cfg types.GenerationConfig, apiKey string, client *http.Client) (Backend, error) {
	name := cfg.Backend
	if name == "" {
		name = BackendOpenAI
	}
	model := cfg.Model
	if model == "" {
		model = defaultModels[name]
	}

	switch name {
	case BackendOpenAI:
		return &OpenAIBackend{
			APIKey:      apiKey,
			ModelName:   model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
			Client:      client,
		}, nil
	case BackendAnthropic:
		return &AnthropicBackend{
			APIKey:      apiKey,
			ModelName:   model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, nil
	case BackendGemini:
		return NewGeminiBackend(ctx, apiKey, model, cfg.BaseURL, client, cfg.MaxTokens, cfg.Temperature)
	case BackendDemo:
		return DemoBackend{}, nil
	}
	return nil, &types.ConfigurationError{Field: "generation.backend", Reason: fmt.Sprintf("unknown backend %q", name)}
}
