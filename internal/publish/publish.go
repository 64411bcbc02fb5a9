// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish submits validated post text to the social platform.
// Posting is at-most-once: nothing here retries unless handed an explicit
// retry policy, and the platform does not deduplicate.
package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/postbot/pkg/types"
)

// Publisher submits one post.
type Publisher interface {
	// Name identifies the publisher in logs.
	Name() string

	// Publish submits text and returns the platform's receipt. Failures are
	// *PublishError.
	Publish(ctx context.Context, text string) (types.Published, error)
}

// ErrorKind classifies publishing failures.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindNetwork   ErrorKind = "network"
	KindTimeout   ErrorKind = "timeout"
	KindUpstream  ErrorKind = "upstream"
)

// PublishError reports a failed posting call.
type PublishError struct {
	Kind ErrorKind

	// Status is the HTTP status code, zero for transport failures.
	Status int

	// Message is the upstream error text.
	Message string

	// ResetAt is when the rate limit window reopens, zero when unknown.
	ResetAt time.Time

	// NotSent is set when the request never reached the platform, such as a
	// refused connection.
	NotSent bool

	Err error
}

func (e *PublishError) Error() string {
	var msg string
	switch e.Kind {
	case KindAuth:
		msg = fmt.Sprintf("publish failed: authentication rejected (HTTP %d)", e.Status)
	case KindRateLimit:
		msg = "publish failed: rate limit exceeded (HTTP 429)"
		if !e.ResetAt.IsZero() {
			msg += "; resets at " + e.ResetAt.UTC().Format(time.RFC3339)
		}
	case KindTimeout:
		msg = "publish timeout"
	case KindNetwork:
		msg = "publish failed: network error"
	default:
		msg = "publish failed"
		if e.Status != 0 {
			msg += fmt.Sprintf(" (HTTP %d)", e.Status)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PublishError) Unwrap() error { return e.Err }

// Transient reports whether a retry within the same run is safe: the post
// verifiably did not land. A timeout is not transient since the platform may
// have accepted the post before the deadline.
func (e *PublishError) Transient() bool {
	return e.NotSent || (e.Kind == KindUpstream && e.Status == http.StatusServiceUnavailable)
}

// receipt builds a Published value for a platform-assigned id.
func receipt(id string, url string, simulated bool) types.Published {
	return types.Published{ID: types.PostID(id), URL: url, Simulated: simulated}
}
