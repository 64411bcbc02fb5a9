// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate enforces the target platform and its post constraints. It is
// pure validation with no side effects.
package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/postbot/pkg/types"
)

// Overflow policies.
const (
	OverflowReject   = "reject"
	OverflowTruncate = "truncate"
)

const ellipsis = "..."

// Rejection reasons recorded as error detail.
const (
	ReasonLength   = "length exceeded"
	ReasonEmpty    = "empty post"
	ReasonPlatform = "platform not supported"
)

// ValidationError reports text or a platform the gate refuses. It is a
// designed outcome, not a system fault.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}

// Gate checks posts against a single supported platform.
type Gate struct {
	platform string
	limit    int
	overflow string
}

// New returns a Gate for cfg. The platform name and a positive limit are
// required.
func New(cfg types.PlatformConfig) (*Gate, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, &types.ConfigurationError{Field: "platform.name", Reason: "supported platform is required"}
	}
	if cfg.CharLimit <= 0 {
		return nil, &types.ConfigurationError{Field: "platform.char_limit", Reason: "must be positive"}
	}
	overflow := cfg.Overflow
	if overflow == "" {
		overflow = OverflowReject
	}
	if overflow != OverflowReject && overflow != OverflowTruncate {
		return nil, &types.ConfigurationError{Field: "platform.overflow", Reason: fmt.Sprintf("unknown policy %q", cfg.Overflow)}
	}
	if overflow == OverflowTruncate && cfg.CharLimit <= len(ellipsis) {
		return nil, &types.ConfigurationError{Field: "platform.char_limit", Reason: "too small to truncate"}
	}
	return &Gate{platform: name, limit: cfg.CharLimit, overflow: overflow}, nil
}

// Platform returns the supported platform name.
func (g *Gate) Platform() string { return g.platform }

// Limit returns the character limit.
func (g *Gate) Limit() int { return g.limit }

// Check validates text for platform and returns the text to publish, which
// differs from the input only when the truncate policy applies. Length is
// counted in Unicode code points; platform names compare case-insensitively.
func (g *Gate) Check(platform, text string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(platform), g.platform) {
		return "", &ValidationError{Reason: ReasonPlatform, Detail: platform}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ValidationError{Reason: ReasonEmpty}
	}

	n := utf8.RuneCountInString(text)
	if n <= g.limit {
		return text, nil
	}
	if g.overflow == OverflowReject {
		return "", &ValidationError{Reason: ReasonLength}
	}
	return Truncate(text, g.limit), nil
}

// Truncate cuts text to limit code points, ending in "..." when anything was
// removed. A limit shorter than the ellipsis yields just the ellipsis.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := limit - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(text)
	return string(runes[:keep]) + ellipsis
}
