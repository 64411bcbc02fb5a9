// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend calls Google's Gemini API.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewGeminiBackend creates a Gemini client for apiKey. A non-empty baseURL
// replaces the public endpoint.
func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string, client *http.Client, maxTokens int, temperature float64) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBackend{
		client:      gc,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Name implements Backend.
func (g *GeminiBackend) Name() string { return "gemini" }

// Model implements Backend.
func (g *GeminiBackend) Model() string { return g.model }

// Complete sends the prompt with the system prompt as system instruction.
func (g *GeminiBackend) Complete(ctx context.Context, r Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.temperature)),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	if r.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(r.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in Gemini response", ErrMalformedResponse)
	}
	return resp.Text(), nil
}
