// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/internal/gate"
	"github.com/pdiddy/postbot/internal/generate"
	"github.com/pdiddy/postbot/internal/ideas"
	"github.com/pdiddy/postbot/internal/publish"
	"github.com/pdiddy/postbot/pkg/types"
)

// --- fakes ---

// stubBackend answers every completion with text or err, or blocks until
// the context ends when block is set.
type stubBackend struct {
	text  string
	err   error
	block bool
	calls int
}

func (b *stubBackend) Name() string  { return "stub" }
func (b *stubBackend) Model() string { return "stub-model" }

func (b *stubBackend) Complete(ctx context.Context, _ generate.Request) (string, error) {
	b.calls++
	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.text, b.err
}

type fakePublisher struct {
	id    string
	err   error
	texts []string
}

func (p *fakePublisher) Name() string { return "fake" }

func (p *fakePublisher) Publish(_ context.Context, text string) (types.Published, error) {
	p.texts = append(p.texts, text)
	if p.err != nil {
		return types.Published{}, p.err
	}
	return types.Published{ID: types.PostID(p.id), URL: "https://x.com/i/web/status/" + p.id}, nil
}

// failingLog wraps a Log and fails every append.
type failingLog struct {
	activity.Log
}

func (f failingLog) Append(context.Context, types.LogEntry) error {
	return &activity.StorageError{Op: "append", Path: f.Path(), Err: errors.New("disk full")}
}

// --- helpers ---

type fixture struct {
	dir       string
	store     activity.Log
	backend   *stubBackend
	publisher *fakePublisher
	deps      Deps
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T, pool []types.Idea, policy string) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := activity.Open(types.ActivityConfig{Backend: activity.BackendJSONL, Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	src, err := ideas.NewSource(pool, policy)
	require.NoError(t, err)

	g, err := gate.New(types.PlatformConfig{Name: "Twitter", CharLimit: 280})
	require.NoError(t, err)

	backend := &stubBackend{}
	pub := &fakePublisher{id: "1790000000000000001"}

	n := 0
	f := &fixture{dir: dir, store: store, backend: backend, publisher: pub}
	f.deps = Deps{
		Ideas:      src,
		CursorFile: filepath.Join(dir, "cursor.yaml"),
		Generator: generate.New(backend, generate.Options{
			Platform:  "Twitter",
			CharLimit: 280,
			Timeout:   50 * time.Millisecond,
			Logger:    quietLogger(),
		}),
		Gate:      g,
		Publisher: pub,
		Log:       store,
		Logger:    quietLogger(),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
	return f
}

func remoteWork() []types.Idea {
	return []types.Idea{{Topic: "Remote work tips", Platform: "Twitter"}}
}

func (f *fixture) entries(t *testing.T) []types.LogEntry {
	t.Helper()
	entries, err := f.store.Entries(context.Background())
	require.NoError(t, err)
	return entries
}

// --- scenarios ---

func TestRun_Success(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.text = "  " + strings.Repeat("a", 142) + "\n"

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, types.StatusSuccess, res.Status())
	assert.Equal(t, []State{StateStart, StateIdeaSelected, StateGenerated, StateValidated, StatePublished, StateLogged}, res.States)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Remote work tips", e.IdeaTopic)
	assert.Equal(t, strings.Repeat("a", 142), e.PostText)
	assert.Equal(t, 142, e.CharacterCount)
	assert.Equal(t, "Twitter", e.Platform)
	assert.Equal(t, types.StatusSuccess, e.Status)
	assert.Equal(t, "1790000000000000001", e.PostID)
	assert.Equal(t, "https://x.com/i/web/status/1790000000000000001", e.PostURL)
	assert.Equal(t, "stub-model", e.Model)
	assert.Equal(t, res.RunID, e.RunID)
	assert.Empty(t, e.ErrorDetail)
	assert.Equal(t, []string{strings.Repeat("a", 142)}, f.publisher.texts)
}

func TestRun_LengthExceededIsSkipped(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.text = strings.Repeat("b", 300)

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)

	var ve *gate.ValidationError
	require.True(t, errors.As(res.Err, &ve))
	assert.Equal(t, []State{StateStart, StateIdeaSelected, StateGenerated, StateSkipped, StateLogged}, res.States)
	assert.Empty(t, f.publisher.texts, "publisher not called")

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, types.StatusSkipped, entries[0].Status)
	assert.Equal(t, "length exceeded", entries[0].ErrorDetail)
	assert.Equal(t, 300, entries[0].CharacterCount)
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		status    types.RunStatus
		detail    string
		chars     int
		published bool
	}{
		{"post published", "5 ways AI boosts your workflow today!", types.StatusSuccess, "", 37, true},
		{"over the limit", strings.Repeat("x", 500), types.StatusSkipped, gate.ReasonLength, 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []types.Idea{{Topic: "AI productivity tips", Platform: "Twitter"}}, ideas.PolicyRandom)
			f.backend.text = tt.response

			res, err := New(f.deps).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status())

			entries := f.entries(t)
			require.Len(t, entries, 1)
			e := entries[0]
			assert.Equal(t, "AI productivity tips", e.IdeaTopic)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.detail, e.ErrorDetail)
			assert.Equal(t, tt.chars, e.CharacterCount)
			if tt.published {
				assert.Equal(t, tt.response, e.PostText)
				assert.Equal(t, []string{tt.response}, f.publisher.texts)
			} else {
				assert.Empty(t, f.publisher.texts)
				assert.Empty(t, e.PostID)
			}
		})
	}
}

func TestRun_TruncateOverflow(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	g, err := gate.New(types.PlatformConfig{Name: "Twitter", CharLimit: 280, Overflow: gate.OverflowTruncate})
	require.NoError(t, err)
	f.deps.Gate = g
	f.backend.text = strings.Repeat("c", 300)

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status())
	assert.Equal(t, 280, res.Entry.CharacterCount)
	assert.True(t, strings.HasSuffix(f.publisher.texts[0], "..."))
}

func TestRun_GenerationTimeoutFails(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.block = true

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)

	var ge *generate.GenerationError
	require.True(t, errors.As(res.Err, &ge))
	assert.Equal(t, generate.KindTimeout, ge.Kind)
	assert.Equal(t, []State{StateStart, StateIdeaSelected, StateFailed, StateLogged}, res.States)
	assert.Empty(t, f.publisher.texts)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, types.StatusFailed, entries[0].Status)
	assert.Equal(t, "generation timeout", entries[0].ErrorDetail)
	assert.Empty(t, entries[0].PostText)
	assert.Zero(t, entries[0].CharacterCount)
}

func TestRun_PublishRateLimitFails(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.text = "hello world"
	f.publisher.err = &publish.PublishError{
		Kind:    publish.KindRateLimit,
		Status:  429,
		ResetAt: time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC),
	}

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)

	var pe *publish.PublishError
	require.True(t, errors.As(res.Err, &pe))
	assert.Equal(t, []State{StateStart, StateIdeaSelected, StateGenerated, StateValidated, StateFailed, StateLogged}, res.States)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, types.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].ErrorDetail, "rate limit")
	assert.Contains(t, entries[0].ErrorDetail, "2026-03-01T09:15:00Z")
	assert.Equal(t, "hello world", entries[0].PostText)
	assert.Empty(t, entries[0].PostID)
}

func TestRun_UnsupportedPlatformIsSkipped(t *testing.T) {
	f := newFixture(t, []types.Idea{{Topic: "Team rituals", Platform: "Mastodon"}}, ideas.PolicyRandom)
	f.backend.text = "hello"

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSkipped, res.Status())
	assert.Equal(t, gate.ReasonPlatform+": Mastodon", res.Entry.ErrorDetail)
	assert.Equal(t, "Mastodon", res.Entry.Platform)
	assert.Empty(t, f.publisher.texts)
}

func TestRun_IdeaWithoutPlatformUsesGatePlatform(t *testing.T) {
	f := newFixture(t, []types.Idea{{Topic: "Open source maintainers"}}, ideas.PolicyRandom)
	f.backend.text = "hello"

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status())
	assert.Equal(t, "Twitter", res.Entry.Platform)
}

// --- log invariants ---

func TestRun_AppendsExactlyOneEntryPerRun(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	r := New(f.deps)

	outcomes := []func(){
		func() { f.backend.text, f.backend.block, f.publisher.err = "fine", false, nil },
		func() { f.backend.text = strings.Repeat("x", 281) },
		func() { f.backend.block = true },
		func() {
			f.backend.text, f.backend.block = "ok", false
			f.publisher.err = &publish.PublishError{Kind: publish.KindAuth, Status: 401}
		},
	}

	var before []types.LogEntry
	for i, setup := range outcomes {
		setup()
		_, err := r.Run(context.Background())
		require.NoError(t, err)

		after := f.entries(t)
		require.Len(t, after, i+1)
		if len(before) > 0 {
			assert.Equal(t, before, after[:len(before)], "existing entries unchanged")
		}
		before = after
	}

	statuses := make([]types.RunStatus, len(before))
	for i, e := range before {
		statuses[i] = e.Status
	}
	assert.Equal(t, []types.RunStatus{types.StatusSuccess, types.StatusSkipped, types.StatusFailed, types.StatusFailed}, statuses)
}

func TestRun_StorageErrorIsReturned(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRoundRobin)
	f.deps.Log = failingLog{Log: f.store}
	f.backend.text = "hello"

	res, err := New(f.deps).Run(context.Background())
	var se *activity.StorageError
	require.True(t, errors.As(err, &se))
	assert.NotContains(t, res.States, StateLogged)
	assert.Empty(t, f.entries(t))

	_, statErr := os.Stat(f.deps.CursorFile)
	assert.True(t, os.IsNotExist(statErr), "cursor not advanced when nothing was logged")
}

func TestRun_CancelledContextWritesNothing(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.text = "hello"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.deps).Run(ctx)
	require.Error(t, err)
	assert.Empty(t, f.entries(t))
}

// --- rotation ---

func TestRun_RoundRobinPersistsCursor(t *testing.T) {
	pool := []types.Idea{{Topic: "one"}, {Topic: "two"}, {Topic: "three"}}
	f := newFixture(t, pool, ideas.PolicyRoundRobin)
	f.backend.text = "hello"
	r := New(f.deps)

	var topics []string
	for range 4 {
		res, err := r.Run(context.Background())
		require.NoError(t, err)
		topics = append(topics, res.Entry.IdeaTopic)
	}
	assert.Equal(t, []string{"one", "two", "three", "one"}, topics)

	cur, ok, err := ideas.LoadCursor(f.deps.CursorFile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, cur.Index)
}

func TestRun_RoundRobinSeedsFromLog(t *testing.T) {
	pool := []types.Idea{{Topic: "one"}, {Topic: "two"}, {Topic: "three"}}
	f := newFixture(t, pool, ideas.PolicyRoundRobin)
	f.backend.text = "hello"
	f.deps.CursorFile = ""

	require.NoError(t, f.store.Append(context.Background(), types.LogEntry{
		ID: "earlier", IdeaTopic: "two", Status: types.StatusSuccess, PostText: "old",
	}))

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "three", res.Entry.IdeaTopic)
}

func TestRun_UnreadableCursorFallsBackToLog(t *testing.T) {
	pool := []types.Idea{{Topic: "one"}, {Topic: "two"}}
	f := newFixture(t, pool, ideas.PolicyRoundRobin)
	f.backend.text = "hello"
	require.NoError(t, os.WriteFile(f.deps.CursorFile, []byte("index: [not a number"), 0o644))

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "one", res.Entry.IdeaTopic)
}

// writeCorruptLog leaves a log whose second line was cut off mid-write.
func writeCorruptLog(t *testing.T, f *fixture) string {
	t.Helper()
	path := filepath.Join(f.dir, "posted.jsonl")
	valid := `{"id":"a","run_id":"r0","idea_topic":"one","status":"SUCCESS","post_text":"old","posted_at":"2026-02-28T09:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(valid+"\n{truncated by hand\n"), 0o644))
	return path
}

func lineCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestRun_CorruptLogStillRecordsRun(t *testing.T) {
	f := newFixture(t, remoteWork(), ideas.PolicyRandom)
	f.backend.text = "hello"
	path := writeCorruptLog(t, f)
	require.Equal(t, 2, lineCount(t, path))

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status())
	assert.Equal(t, 1, f.backend.calls)
	assert.Equal(t, 3, lineCount(t, path), "exactly one entry appended")
}

func TestRun_CorruptLogRestartsRotation(t *testing.T) {
	pool := []types.Idea{{Topic: "one"}, {Topic: "two"}, {Topic: "three"}}
	f := newFixture(t, pool, ideas.PolicyRoundRobin)
	f.backend.text = "hello"
	f.deps.CursorFile = ""
	path := writeCorruptLog(t, f)

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "one", res.Entry.IdeaTopic)
	assert.Equal(t, 3, lineCount(t, path))
}

// --- end to end with the demo backend and simulated publisher ---

func TestRun_DemoPipeline(t *testing.T) {
	f := newFixture(t, ideas.DefaultPool(), ideas.PolicyRoundRobin)
	f.deps.Generator = generate.New(generate.DemoBackend{}, generate.Options{Platform: "Twitter", CharLimit: 280, Logger: quietLogger()})
	f.deps.Publisher = &publish.SimulatedPublisher{Logger: quietLogger(), NewID: func() string { return "abc" }}

	res, err := New(f.deps).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, types.StatusSuccess, res.Status())
	assert.Equal(t, ideas.DefaultPool()[0].Topic, res.Entry.IdeaTopic)
	assert.Equal(t, "sim-abc", res.Entry.PostID)
	assert.True(t, res.Entry.Simulated)
	assert.Equal(t, "demo", res.Entry.Model)
	assert.LessOrEqual(t, res.Entry.CharacterCount, 280)
}
