// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	llmtypes "github.com/aktagon/llmkit/anthropic/types"
)

// anthropicPrompt performs one Messages API call. Package-level var for test
// substitution.
var anthropicPrompt = func(system, user, apiKey string, settings llmtypes.RequestSettings) (string, error) {
	resp, err := anthropic.PromptWithSettings(system, user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("%w: no content in Anthropic response", ErrMalformedResponse)
	}
	return resp.Content[0].Text, nil
}

// AnthropicBackend calls the Anthropic Messages API through llmkit.
type AnthropicBackend struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float64
}

// Name implements Backend.
func (a *AnthropicBackend) Name() string { return "anthropic" }

// Model implements Backend.
func (a *AnthropicBackend) Model() string { return a.ModelName }

// Complete runs the llmkit call in a goroutine so ctx can bound it; llmkit
// itself takes no context. An abandoned call finishes in the background and
// its result is dropped.
func (a *AnthropicBackend) Complete(ctx context.Context, r Request) (string, error) {
	settings := llmtypes.RequestSettings{
		Model:       a.ModelName,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}

	type result struct {
		text string
		err  error
	}
	prompt := anthropicPrompt
	done := make(chan result, 1)
	go func() {
		text, err := prompt(r.System, r.Prompt, a.APIKey, settings)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("calling Anthropic API: %w", res.err)
		}
		return res.text, nil
	}
}
