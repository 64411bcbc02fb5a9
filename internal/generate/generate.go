// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns a content idea into post text through a generative
// text API.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/internal/retry"
	"github.com/pdiddy/postbot/pkg/types"
)

// DefaultPromptTemplate asks for an engaging post within the platform's
// length limit. It is executed against PromptData.
const DefaultPromptTemplate = `Create an engaging and concise social media post for {{.Platform}} based on this idea: {{.Topic}}.

Guidelines:
- Keep it under {{.CharLimit}} characters
- Make it engaging and conversational
- Include relevant hashtags if appropriate{{if .Tags}} (for example: {{join .Tags ", "}}){{end}}
- Use emojis sparingly but effectively
- Encourage interaction when possible
- Be authentic and valuable to the audience`

// SystemPrompt frames the model as a social media writer.
const SystemPrompt = "You are a social media expert who creates engaging, authentic content that provides value to the audience."

const defaultTimeout = 30 * time.Second

// ErrMalformedResponse marks an upstream response that could not be decoded
// into post text.
var ErrMalformedResponse = errors.New("malformed response")

// Request is what a backend receives for one completion.
type Request struct {
	System string
	Prompt string

	// Topic is the raw idea topic, for backends that do not call a model.
	Topic string
}

// Backend abstracts the generation API so tests can supply a mock.
type Backend interface {
	// Name identifies the backend in logs and log entries.
	Name() string

	// Model returns the model identifier recorded with each post.
	Model() string

	// Complete sends one request upstream and returns the raw text.
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindUpstream  ErrorKind = "upstream"
	KindEmpty     ErrorKind = "empty"
	KindMalformed ErrorKind = "malformed"
	KindTemplate  ErrorKind = "template"
)

// GenerationError reports a failed generation call.
type GenerationError struct {
	Kind    ErrorKind
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "generation timeout"
	case KindEmpty:
		return "generation returned empty text"
	}
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PromptData is the value a prompt template is executed against.
type PromptData struct {
	Platform  string
	Topic     string
	Tags      []string
	CharLimit int
}

var templateFuncs = template.FuncMap{"join": strings.Join}

// RenderPrompt substitutes data into tmpl. The same inputs always produce
// the same prompt.
func RenderPrompt(tmpl string, data PromptData) (string, error) {
	t, err := template.New("prompt").Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}

// Options configures a Generator.
type Options struct {
	// Platform fills .Platform when the idea does not name one.
	Platform string

	// CharLimit fills .CharLimit in the prompt.
	CharLimit int

	// Timeout bounds each attempt (default 30s).
	Timeout time.Duration

	// Retry is the explicit retry policy; the zero value never retries.
	Retry retry.Policy

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Generator expands ideas into posts with a single Backend.
type Generator struct {
	backend Backend
	opts    Options
}

// New returns a Generator that calls backend.
func New(backend Backend, opts Options) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{backend: backend, opts: opts}
}

// Generate renders promptTemplate for idea, calls the backend, and returns
// the trimmed post text. Every failure is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, idea types.Idea, promptTemplate string) (types.GeneratedPost, error) {
	platform := idea.Platform
	if platform == "" {
		platform = g.opts.Platform
	}
	prompt, err := RenderPrompt(promptTemplate, PromptData{
		Platform:  platform,
		Topic:     idea.Topic,
		Tags:      idea.Tags,
		CharLimit: g.opts.CharLimit,
	})
	if err != nil {
		return types.GeneratedPost{}, &GenerationError{Kind: KindTemplate, Backend: g.backend.Name(), Err: err}
	}

	log := g.opts.Logger.WithFields(logrus.Fields{"stage": "generate", "backend": g.backend.Name()})
	policy := g.opts.Retry
	policy.Retryable = func(err error) bool {
		var ge *GenerationError
		return errors.As(err, &ge) && ge.Kind != KindTemplate
	}
	policy.OnRetry = func(attempt int, err error) {
		log.WithError(err).WithField("attempt", attempt).Warn("retrying generation")
	}

	req := Request{System: SystemPrompt, Prompt: prompt, Topic: idea.Topic}
	text, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return g.attempt(ctx, req)
	})
	if err != nil {
		var ge *GenerationError
		if !errors.As(err, &ge) {
			err = g.classify(err)
		}
		return types.GeneratedPost{}, err
	}

	log.WithField("chars", len([]rune(text))).Info("generated post")
	return types.GeneratedPost{
		Idea:      idea,
		Text:      text,
		Model:     g.backend.Model(),
		Prompt:    prompt,
		CreatedAt: g.opts.Now().UTC(),
	}, nil
}

// attempt makes one bounded backend call.
func (g *Generator) attempt(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	raw, err := g.backend.Complete(callCtx, req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return "", &GenerationError{Kind: KindTimeout, Backend: g.backend.Name(), Err: err}
		}
		return "", g.classify(err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &GenerationError{Kind: KindEmpty, Backend: g.backend.Name()}
	}
	return text, nil
}

func (g *Generator) classify(err error) *GenerationError {
	kind := KindUpstream
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, ErrMalformedResponse):
		kind = KindMalformed
	}
	return &GenerationError{Kind: kind, Backend: g.backend.Name(), Err: err}
}
