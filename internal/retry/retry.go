// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry provides the explicit retry policy handed to the generation
// and publishing stages. Nothing in the HTTP clients retries on its own.
package retry

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// MaxImmediateRetries caps how often a single stage call is repeated within
// one run. The scheduler's next tick is the real retry mechanism.
const MaxImmediateRetries = 1

// Policy describes how a stage call is retried. The zero value never retries.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Delay is the pause between attempts. Zero retries immediately.
	Delay time.Duration

	// Retryable reports whether err warrants another attempt. Nil treats
	// every error as retryable.
	Retryable func(err error) bool

	// OnRetry is called before each retry with the attempt count so far and
	// the error that triggered it.
	OnRetry func(attempt int, err error)
}

// None is the policy that makes exactly one attempt.
var None = Policy{}

// Immediate returns a policy with up to n immediate retries, clamped to
// [0, MaxImmediateRetries].
func Immediate(n int) Policy {
	if n < 0 {
		n = 0
	}
	if n > MaxImmediateRetries {
		n = MaxImmediateRetries
	}
	return Policy{MaxRetries: n}
}

// Attempts returns the maximum number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do runs fn under policy p. The error of the last attempt is returned
// unwrapped so callers can match it with errors.As. If ctx is done between
// attempts, ctx.Err() is returned.
func Do[R any](ctx context.Context, p Policy, fn func(context.Context) (R, error)) (R, error) {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	builder := retrypolicy.NewBuilder[R]().
		WithMaxRetries(maxRetries).
		ReturnLastFailure().
		HandleIf(func(_ R, err error) bool {
			if err == nil {
				return false
			}
			return p.Retryable == nil || p.Retryable(err)
		})
	if p.Delay > 0 {
		builder = builder.WithDelay(p.Delay)
	}
	if p.OnRetry != nil {
		builder = builder.OnRetry(func(e failsafe.ExecutionEvent[R]) {
			p.OnRetry(e.Attempts(), e.LastError())
		})
	}

	return failsafe.With[R](builder.Build()).
		WithContext(ctx).
		Get(func() (R, error) {
			return fn(ctx)
		})
}
