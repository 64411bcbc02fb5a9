// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/internal/gate"
	"github.com/pdiddy/postbot/internal/generate"
	"github.com/pdiddy/postbot/internal/ideas"
	"github.com/pdiddy/postbot/internal/logging"
	"github.com/pdiddy/postbot/internal/publish"
	"github.com/pdiddy/postbot/internal/retry"
	"github.com/pdiddy/postbot/internal/runner"
	"github.com/pdiddy/postbot/internal/secrets"
	"github.com/pdiddy/postbot/pkg/types"
)

const twitterTokenKey = "TWITTER_BEARER_TOKEN"

// setDefaults registers every configuration key so that AutomaticEnv can
// override any of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ideas.file", "")
	v.SetDefault("ideas.policy", ideas.PolicyRandom)
	v.SetDefault("ideas.cursor_file", "cursor.yaml")

	v.SetDefault("generation.backend", generate.BackendOpenAI)
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.prompt_file", "")
	v.SetDefault("generation.max_tokens", 280)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.max_retries", 0)

	v.SetDefault("platform.name", "Twitter")
	v.SetDefault("platform.char_limit", 280)
	v.SetDefault("platform.overflow", gate.OverflowReject)

	v.SetDefault("publish.real", false)
	v.SetDefault("publish.base_url", "")
	v.SetDefault("publish.timeout", 30*time.Second)
	v.SetDefault("publish.max_retries", 0)

	v.SetDefault("activity.backend", activity.BackendJSONL)
	v.SetDefault("activity.dir", "activity")
	v.SetDefault("activity.write_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("log.trace_file", logging.DefaultTraceFile)
}

// loadConfig decodes the merged configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, &types.ConfigurationError{Reason: fmt.Sprintf("decoding configuration: %v", err)}
	}
	return cfg, nil
}

// runOptions are the per-invocation switches from the command line.
type runOptions struct {
	// Demo uses canned posts and simulated publishing; no credentials.
	Demo bool

	// DryRun generates for real but never posts.
	DryRun bool
}

// pipeline holds a constructed runner and the resources to release after it.
type pipeline struct {
	runner *runner.Runner
	log    activity.Log
}

func (p *pipeline) Close() error { return p.log.Close() }

// buildPipeline wires every stage from cfg. All configuration and credential
// checks happen here, before any network call.
func buildPipeline(ctx context.Context, cfg types.Config, opts runOptions, res *secrets.Resolver, logger logrus.FieldLogger) (*pipeline, error) {
	if opts.Demo {
		cfg.Generation.Backend = generate.BackendDemo
	}

	pool, err := loadPool(cfg.Ideas)
	if err != nil {
		return nil, err
	}
	src, err := ideas.NewSource(pool, cfg.Ideas.Policy)
	if err != nil {
		return nil, err
	}

	realPosting := cfg.Publish.Real && !opts.Demo && !opts.DryRun
	required := []string{generate.CredentialKey(cfg.Generation.Backend)}
	if cfg.Generation.Backend == generate.BackendDemo {
		required = nil
	}
	if !opts.Demo && !opts.DryRun {
		required = append(required, twitterTokenKey)
	}
	creds, err := res.Require(required...)
	if err != nil {
		return nil, err
	}

	tmpl, err := promptTemplate(cfg.Generation.PromptFile)
	if err != nil {
		return nil, err
	}

	g, err := gate.New(cfg.Platform)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	backend, err := generate.NewBackend(ctx, cfg.Generation, creds[generate.CredentialKey(cfg.Generation.Backend)], client)
	if err != nil {
		return nil, err
	}
	gen := generate.New(backend, generate.Options{
		Platform:  g.Platform(),
		CharLimit: g.Limit(),
		Timeout:   cfg.Generation.Timeout,
		Retry:     retryPolicy(cfg.Generation.MaxRetries),
		Logger:    logger,
	})

	var pub publish.Publisher
	if realPosting {
		pub = &publish.TwitterPublisher{
			Token:   creds[twitterTokenKey],
			BaseURL: cfg.Publish.BaseURL,
			Client:  client,
			Timeout: cfg.Publish.Timeout,
			Retry:   retryPolicy(cfg.Publish.MaxRetries),
			Logger:  logger,
		}
	} else {
		pub = &publish.SimulatedPublisher{Logger: logger}
	}

	store, err := activity.Open(cfg.Activity)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"backend":   backend.Name(),
		"model":     backend.Model(),
		"publisher": pub.Name(),
		"policy":    src.Policy(),
		"pool":      len(pool),
	}).Debug("pipeline configured")

	return &pipeline{
		runner: runner.New(runner.Deps{
			Ideas:          src,
			CursorFile:     cursorPath(cfg),
			Generator:      gen,
			PromptTemplate: tmpl,
			Gate:           g,
			Publisher:      pub,
			Log:            store,
			WriteTimeout:   cfg.Activity.WriteTimeout,
			Logger:         logger,
		}),
		log: store,
	}, nil
}

// loadPool returns the configured idea pool or the built-in one.
func loadPool(cfg types.IdeasConfig) ([]types.Idea, error) {
	if cfg.File == "" {
		return ideas.DefaultPool(), nil
	}
	pool, err := ideas.LoadPool(cfg.File)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "ideas.file", Reason: err.Error()}
	}
	return pool, nil
}

// promptTemplate returns the prompt file contents or the built-in template.
func promptTemplate(path string) (string, error) {
	if path == "" {
		return generate.DefaultPromptTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &types.ConfigurationError{Field: "generation.prompt_file", Reason: err.Error()}
	}
	if _, err := generate.RenderPrompt(string(data), generate.PromptData{Platform: "x", Topic: "x", CharLimit: 1}); err != nil {
		return "", &types.ConfigurationError{Field: "generation.prompt_file", Reason: err.Error()}
	}
	return string(data), nil
}

// cursorPath resolves the cursor file against the activity directory.
func cursorPath(cfg types.Config) string {
	p := cfg.Ideas.CursorFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Activity.Dir, p)
}

// retryPolicy maps a configured max_retries onto a policy. Zero keeps calls
// single-shot.
func retryPolicy(maxRetries int) retry.Policy {
	if maxRetries <= 0 {
		return retry.None
	}
	return retry.Immediate(maxRetries)
}
