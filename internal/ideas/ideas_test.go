// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ideas

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/postbot/pkg/types"
)

func testPool() []types.Idea {
	return []types.Idea{
		{Topic: "AI productivity tips"},
		{Topic: "Remote work habits"},
		{Topic: "Open source maintainers"},
	}
}

func TestNewSource_EmptyPool(t *testing.T) {
	_, err := NewSource(nil, PolicyRandom)
	require.Error(t, err)

	var cfgErr *types.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "idea pool is empty")
}

func TestNewSource_UnknownPolicy(t *testing.T) {
	_, err := NewSource(testPool(), "weighted")
	var cfgErr *types.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ideas.policy", cfgErr.Field)
}

func TestNewSource_DefaultsToRandom(t *testing.T) {
	s, err := NewSource(testPool(), "")
	require.NoError(t, err)
	assert.Equal(t, PolicyRandom, s.Policy())
}

func TestNext_RandomReturnsOnlyPoolIdeas(t *testing.T) {
	pool := testPool()
	s, err := NewSource(pool, PolicyRandom, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	cur := types.Cursor{Index: 2}
	for i := 0; i < 200; i++ {
		idea, next := s.Next(cur)
		assert.Contains(t, pool, idea)
		assert.Equal(t, cur, next, "random policy must not move the cursor")
	}
}

func TestNext_RoundRobinCycles(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSource(testPool(), PolicyRoundRobin, WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	var got []string
	cur := types.Cursor{}
	for i := 0; i < 4; i++ {
		var idea types.Idea
		idea, cur = s.Next(cur)
		got = append(got, idea.Topic)
	}

	assert.Equal(t, []string{
		"AI productivity tips",
		"Remote work habits",
		"Open source maintainers",
		"AI productivity tips",
	}, got)
	assert.Equal(t, 1, cur.Index)
	assert.Equal(t, clock, cur.UpdatedAt)
}

func TestNext_RoundRobinNormalizesCursor(t *testing.T) {
	s, err := NewSource(testPool(), PolicyRoundRobin)
	require.NoError(t, err)

	tests := []struct {
		name      string
		index     int
		wantTopic string
		wantNext  int
	}{
		{"past end wraps", 7, "Remote work habits", 2},
		{"negative wraps", -1, "Open source maintainers", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idea, next := s.Next(types.Cursor{Index: tt.index})
			assert.Equal(t, tt.wantTopic, idea.Topic)
			assert.Equal(t, tt.wantNext, next.Index)
		})
	}
}

func TestSource_PoolIsCopied(t *testing.T) {
	pool := testPool()
	s, err := NewSource(pool, PolicyRoundRobin)
	require.NoError(t, err)

	pool[0].Topic = "mutated"
	idea, _ := s.Next(types.Cursor{})
	assert.Equal(t, "AI productivity tips", idea.Topic)
}

func TestDefaultPool(t *testing.T) {
	pool := DefaultPool()
	require.Len(t, pool, 15)
	for _, idea := range pool {
		assert.NotEmpty(t, idea.Topic)
		assert.Equal(t, "Twitter", idea.Platform)
	}
}

func TestLoadPool(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantCount int
		wantErr   bool
	}{
		{
			name: "valid pool",
			yaml: `ideas:
  - topic: AI productivity tips
    tags: [ai, productivity]
    platform: Twitter
  - topic: Remote work habits
`,
			wantCount: 2,
		},
		{
			name: "blank topics dropped",
			yaml: `ideas:
  - topic: "   "
  - topic: Kept
`,
			wantCount: 1,
		},
		{
			name:      "empty file",
			yaml:      "",
			wantCount: 0,
		},
		{
			name:    "invalid yaml",
			yaml:    "ideas: [:::",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ideas.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			pool, err := LoadPool(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, pool, tt.wantCount)
		})
	}
}

func TestLoadPool_MissingFile(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSeedCursor(t *testing.T) {
	pool := testPool()
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		entries []types.LogEntry
		want    int
	}{
		{"no history", nil, 0},
		{"last topic in pool", []types.LogEntry{
			{IdeaTopic: "AI productivity tips"},
			{IdeaTopic: "Remote work habits", PostedAt: at},
		}, 2},
		{"last topic wraps", []types.LogEntry{{IdeaTopic: "Open source maintainers"}}, 0},
		{"unknown topics skipped", []types.LogEntry{
			{IdeaTopic: "Remote work habits"},
			{IdeaTopic: "retired idea"},
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := SeedCursor(pool, tt.entries)
			assert.Equal(t, tt.want, cur.Index)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cursor.yaml")

	cur, ok, err := LoadCursor(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, types.Cursor{}, cur)

	want := types.Cursor{Index: 4, UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, SaveCursor(path, want))

	got, ok, err := LoadCursor(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want.Index, got.Index)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".cursor-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLoadCursor_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: [oops"), 0o644))
	_, _, err := LoadCursor(path)
	assert.Error(t, err)
}
