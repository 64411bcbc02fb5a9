// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ideas supplies one content idea per run from a fixed pool.
package ideas

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/postbot/pkg/types"
)

// Selection policies.
const (
	PolicyRandom     = "random"
	PolicyRoundRobin = "round-robin"
)

// defaultPool is used when no ideas file is configured.
var defaultPool = []types.Idea{
	{Platform: "Twitter", Topic: "Share a quick tip about AI and machine learning that beginners can understand", Tags: []string{"ai", "beginners"}},
	{Platform: "Twitter", Topic: "Discuss the latest breakthrough in technology and its potential impact", Tags: []string{"technology"}},
	{Platform: "Twitter", Topic: "Motivational message for developers and creators working on their projects", Tags: []string{"motivation"}},
	{Platform: "Twitter", Topic: "Interesting fact about the history of computing or the internet", Tags: []string{"history"}},
	{Platform: "Twitter", Topic: "Quick productivity hack that can save time in daily work", Tags: []string{"productivity"}},
	{Platform: "Twitter", Topic: "Thought-provoking question about the future of technology", Tags: []string{"future"}},
	{Platform: "Twitter", Topic: "Behind-the-scenes insight from the tech industry or startup world", Tags: []string{"startups"}},
	{Platform: "Twitter", Topic: "Simple explanation of a complex technical concept", Tags: []string{"explainer"}},
	{Platform: "Twitter", Topic: "Inspirational story about innovation or problem-solving", Tags: []string{"innovation"}},
	{Platform: "Twitter", Topic: "Trend analysis or prediction about emerging technologies", Tags: []string{"trends"}},
	{Platform: "Twitter", Topic: "Personal growth tip related to learning and skill development", Tags: []string{"learning"}},
	{Platform: "Twitter", Topic: "Fun fact about programming languages or software development", Tags: []string{"programming"}},
	{Platform: "Twitter", Topic: "Career advice for people in tech or aspiring to join tech", Tags: []string{"career"}},
	{Platform: "Twitter", Topic: "Discussion about work-life balance in the digital age", Tags: []string{"wellbeing"}},
	{Platform: "Twitter", Topic: "Highlight an underrated tool or resource for creators", Tags: []string{"tools"}},
}

// DefaultPool returns a copy of the built-in idea pool.
func DefaultPool() []types.Idea {
	pool := make([]types.Idea, len(defaultPool))
	copy(pool, defaultPool)
	return pool
}

// poolFile is the on-disk layout of an ideas file.
type poolFile struct {
	Ideas []types.Idea `yaml:"ideas"`
}

// LoadPool reads an idea pool from a YAML file. Ideas with a blank topic are
// dropped.
func LoadPool(path string) ([]types.Idea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ideas file: %w", err)
	}
	var pf poolFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing ideas file: %w", err)
	}
	pool := make([]types.Idea, 0, len(pf.Ideas))
	for _, idea := range pf.Ideas {
		idea.Topic = strings.TrimSpace(idea.Topic)
		if idea.Topic == "" {
			continue
		}
		pool = append(pool, idea)
	}
	return pool, nil
}

// Source selects ideas from a fixed pool.
type Source struct {
	pool   []types.Idea
	policy string
	rng    *rand.Rand
	now    func() time.Time
}

// Option customizes a Source.
type Option func(*Source)

// WithRand sets the random source used by the random policy.
func WithRand(r *rand.Rand) Option {
	return func(s *Source) { s.rng = r }
}

// WithClock sets the clock used to stamp advanced cursors.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// NewSource returns a Source over pool. An empty pool or an unknown policy
// is a configuration error.
func NewSource(pool []types.Idea, policy string, opts ...Option) (*Source, error) {
	if len(pool) == 0 {
		return nil, &types.ConfigurationError{Field: "ideas", Reason: "idea pool is empty"}
	}
	if policy == "" {
		policy = PolicyRandom
	}
	if policy != PolicyRandom && policy != PolicyRoundRobin {
		return nil, &types.ConfigurationError{Field: "ideas.policy", Reason: fmt.Sprintf("unknown policy %q", policy)}
	}

	s := &Source{
		pool:   make([]types.Idea, len(pool)),
		policy: policy,
		now:    time.Now,
	}
	copy(s.pool, pool)
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// Pool returns a copy of the ideas the source draws from.
func (s *Source) Pool() []types.Idea {
	pool := make([]types.Idea, len(s.pool))
	copy(pool, s.pool)
	return pool
}

// Policy returns the selection policy name.
func (s *Source) Policy() string {
	return s.policy
}

// Next selects one idea and returns it with the advanced cursor. The random
// policy returns the cursor unchanged.
func (s *Source) Next(cur types.Cursor) (types.Idea, types.Cursor) {
	if s.policy == PolicyRandom {
		return s.pool[s.rng.Intn(len(s.pool))], cur
	}

	i := cur.Index % len(s.pool)
	if i < 0 {
		i += len(s.pool)
	}
	next := types.Cursor{Index: (i + 1) % len(s.pool), UpdatedAt: s.now().UTC()}
	return s.pool[i], next
}

// SeedCursor derives a round-robin cursor from the activity log: the idea
// after the most recently logged topic that is still in the pool. The zero
// cursor is returned when no entry matches.
func SeedCursor(pool []types.Idea, entries []types.LogEntry) types.Cursor {
	if len(pool) == 0 {
		return types.Cursor{}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		for j, idea := range pool {
			if idea.Topic == entries[i].IdeaTopic {
				return types.Cursor{Index: (j + 1) % len(pool), UpdatedAt: entries[i].PostedAt}
			}
		}
	}
	return types.Cursor{}
}
