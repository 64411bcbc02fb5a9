// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/internal/retry"
	"github.com/pdiddy/postbot/pkg/types"
)

// twitterAPIURL is the X/Twitter API base URL. Package-level var for test
// substitution.
var twitterAPIURL = "https://api.twitter.com"

const (
	defaultTimeout = 30 * time.Second
	statusURLBase  = "https://x.com/i/web/status/"
)

// TwitterPublisher posts through the X/Twitter API v2 create-post endpoint.
type TwitterPublisher struct {
	// Token is the OAuth 2.0 user-context bearer token.
	Token string

	// BaseURL overrides twitterAPIURL when set.
	BaseURL string
	Client  *http.Client

	// Timeout bounds each attempt (default 30s).
	Timeout time.Duration

	// Retry is the explicit retry policy. The zero value keeps posting
	// at-most-once.
	Retry retry.Policy

	Logger logrus.FieldLogger
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Name implements Publisher.
func (p *TwitterPublisher) Name() string { return "twitter" }

// Publish implements Publisher.
func (p *TwitterPublisher) Publish(ctx context.Context, text string) (types.Published, error) {
	log := p.logger().WithField("stage", "publish")

	policy := p.Retry
	policy.Retryable = func(err error) bool {
		var pe *PublishError
		return errors.As(err, &pe) && pe.Transient()
	}
	policy.OnRetry = func(attempt int, err error) {
		log.WithError(err).WithField("attempt", attempt).Warn("retrying publish")
	}

	id, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return p.post(ctx, text)
	})
	if err != nil {
		var pe *PublishError
		if !errors.As(err, &pe) {
			err = &PublishError{Kind: KindNetwork, Err: err}
		}
		return types.Published{}, err
	}

	log.WithField("post_id", id).Info("post published")
	return receipt(id, statusURLBase+id, false), nil
}

// post makes one bounded create-post call.
func (p *TwitterPublisher) post(ctx context.Context, text string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(tweetRequest{Text: text})
	if err != nil {
		return "", &PublishError{Kind: KindUpstream, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	base := p.BaseURL
	if base == "" {
		base = twitterAPIURL
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, strings.TrimRight(base, "/")+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", &PublishError{Kind: KindUpstream, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Token)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return "", &PublishError{Kind: KindNetwork, NotSent: true, Err: err}
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return "", &PublishError{Kind: KindTimeout, Err: err}
		}
		return "", &PublishError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var tr tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &PublishError{Kind: KindUpstream, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if tr.Data.ID == "" {
		return "", &PublishError{Kind: KindUpstream, Status: resp.StatusCode, Message: "response carried no post id"}
	}
	return tr.Data.ID, nil
}

// statusError maps a non-success response to a PublishError.
func statusError(resp *http.Response) *PublishError {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	pe := &PublishError{
		Kind:    KindUpstream,
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(msg)),
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		pe.Kind = KindAuth
	case http.StatusTooManyRequests:
		pe.Kind = KindRateLimit
		if reset, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-reset"), 10, 64); err == nil {
			pe.ResetAt = time.Unix(reset, 0).UTC()
		}
	}
	return pe
}

func (p *TwitterPublisher) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}
