// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner sequences one pipeline run: select an idea, generate a
// post, check it against the platform, publish it, and record the outcome.
// Every run that reaches a terminal state appends exactly one entry to the
// activity log.
package runner

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/internal/gate"
	"github.com/pdiddy/postbot/internal/generate"
	"github.com/pdiddy/postbot/internal/ideas"
	"github.com/pdiddy/postbot/internal/publish"
	"github.com/pdiddy/postbot/pkg/types"
)

// State is a step of a run. Runs move forward only.
type State string

const (
	StateStart        State = "START"
	StateIdeaSelected State = "IDEA_SELECTED"
	StateGenerated    State = "GENERATED"
	StateValidated    State = "VALIDATED"
	StatePublished    State = "PUBLISHED"
	StateSkipped      State = "SKIPPED"
	StateFailed       State = "FAILED"
	StateLogged       State = "LOGGED"
)

const defaultWriteTimeout = 10 * time.Second

// Generator expands an idea into post text.
type Generator interface {
	Generate(ctx context.Context, idea types.Idea, promptTemplate string) (types.GeneratedPost, error)
}

// Gate validates text for a platform and returns the text to publish.
type Gate interface {
	Platform() string
	Check(platform, text string) (string, error)
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Ideas *ideas.Source

	// CursorFile persists the round-robin cursor. When empty, the cursor is
	// derived from the activity log on every run.
	CursorFile string

	Generator      Generator
	PromptTemplate string
	Gate           Gate
	Publisher      publish.Publisher
	Log            activity.Log

	// WriteTimeout bounds the log append (default 10s).
	WriteTimeout time.Duration

	Logger logrus.FieldLogger
	Now    func() time.Time
	NewID  func() string
}

// Result describes a finished run.
type Result struct {
	RunID string

	// States lists every state the run passed through, in order.
	States []State

	// Entry is the log entry written for the run.
	Entry types.LogEntry

	// Err is the stage error behind a SKIPPED or FAILED outcome.
	Err error
}

// Status returns the recorded outcome.
func (r Result) Status() types.RunStatus { return r.Entry.Status }

// Runner executes pipeline runs.
type Runner struct {
	d Deps
}

// New returns a Runner over d. Missing clock, id source, logger and prompt
// template fall back to defaults.
func New(d Deps) *Runner {
	if d.WriteTimeout <= 0 {
		d.WriteTimeout = defaultWriteTimeout
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.PromptTemplate == "" {
		d.PromptTemplate = generate.DefaultPromptTemplate
	}
	return &Runner{d: d}
}

// run carries the per-invocation state.
type run struct {
	id     string
	log    logrus.FieldLogger
	states []State
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	r.log.WithField("state", s).Debug("state transition")
}

// Run performs one pipeline run. Stage failures are recorded in the log and
// reported through Result.Err; the returned error is non-nil only when the
// entry cannot be written to the log, in which case it is a
// *activity.StorageError.
func (rn *Runner) Run(ctx context.Context) (Result, error) {
	rr := &run{id: rn.d.NewID()}
	rr.log = rn.d.Logger.WithField("run_id", rr.id)
	rr.enter(StateStart)

	rr.log.WithField("log", rn.d.Log.Path()).Info("starting run")

	cur := rn.loadCursor(ctx, rr)
	idea, next := rn.d.Ideas.Next(cur)
	rr.enter(StateIdeaSelected)
	rr.log.WithFields(logrus.Fields{"stage": "ideas", "topic": idea.Topic, "policy": rn.d.Ideas.Policy()}).Info("selected idea")

	entry := types.LogEntry{
		RunID:     rr.id,
		IdeaTopic: idea.Topic,
		Platform:  rn.platform(idea),
	}

	stageErr := rn.pipeline(ctx, rr, idea, &entry)

	entry.ID = rn.d.NewID()
	entry.PostedAt = rn.d.Now().UTC()
	entry.CharacterCount = utf8.RuneCountInString(entry.PostText)

	writeCtx, cancel := context.WithTimeout(ctx, rn.d.WriteTimeout)
	defer cancel()
	if err := rn.d.Log.Append(writeCtx, entry); err != nil {
		rr.log.WithError(err).WithField("stage", "activity").Error("could not record run")
		return Result{RunID: rr.id, States: rr.states, Entry: entry, Err: stageErr}, err
	}
	rr.enter(StateLogged)
	rr.log.WithFields(logrus.Fields{"stage": "activity", "status": entry.Status, "entry_id": entry.ID}).Info("run recorded")

	if rn.d.Ideas.Policy() == ideas.PolicyRoundRobin && rn.d.CursorFile != "" {
		if err := ideas.SaveCursor(rn.d.CursorFile, next); err != nil {
			rr.log.WithError(err).Warn("could not save idea cursor")
		}
	}

	return Result{RunID: rr.id, States: rr.states, Entry: entry, Err: stageErr}, nil
}

// pipeline runs generation, validation and publishing, filling entry with
// the outcome. The returned error is the stage error, if any.
func (rn *Runner) pipeline(ctx context.Context, rr *run, idea types.Idea, entry *types.LogEntry) error {
	post, err := rn.d.Generator.Generate(ctx, idea, rn.d.PromptTemplate)
	if err != nil {
		rn.fail(rr, entry, "generate", err)
		return err
	}
	rr.enter(StateGenerated)
	entry.PostText = post.Text
	entry.Model = post.Model

	text, err := rn.d.Gate.Check(entry.Platform, post.Text)
	if err != nil {
		var ve *gate.ValidationError
		if errors.As(err, &ve) {
			rr.enter(StateSkipped)
			entry.Status = types.StatusSkipped
			entry.ErrorDetail = ve.Error()
			rr.log.WithFields(logrus.Fields{"stage": "gate", "reason": ve.Reason}).Warn("post skipped")
			return err
		}
		rn.fail(rr, entry, "gate", err)
		return err
	}
	rr.enter(StateValidated)
	if text != post.Text {
		rr.log.WithField("stage", "gate").Info("post truncated to platform limit")
	}
	entry.PostText = text

	pub, err := rn.d.Publisher.Publish(ctx, text)
	if err != nil {
		rn.fail(rr, entry, "publish", err)
		return err
	}
	rr.enter(StatePublished)
	entry.Status = types.StatusSuccess
	entry.PostID = string(pub.ID)
	entry.PostURL = pub.URL
	entry.Simulated = pub.Simulated
	return nil
}

func (rn *Runner) fail(rr *run, entry *types.LogEntry, stage string, err error) {
	rr.enter(StateFailed)
	entry.Status = types.StatusFailed
	entry.ErrorDetail = err.Error()

	fields := logrus.Fields{"stage": stage}
	var ge *generate.GenerationError
	var pe *publish.PublishError
	switch {
	case errors.As(err, &ge):
		fields["kind"] = ge.Kind
	case errors.As(err, &pe):
		fields["kind"] = pe.Kind
	}
	rr.log.WithError(err).WithFields(fields).Error("run failed")
}

// loadCursor returns the rotation cursor: the persisted file when present,
// otherwise one derived from the log. The log is only read here; an
// unreadable log restarts the rotation at the first idea.
func (rn *Runner) loadCursor(ctx context.Context, rr *run) types.Cursor {
	if rn.d.Ideas.Policy() != ideas.PolicyRoundRobin {
		return types.Cursor{}
	}
	if rn.d.CursorFile != "" {
		cur, ok, err := ideas.LoadCursor(rn.d.CursorFile)
		if err != nil {
			rr.log.WithError(err).Warn("ignoring unreadable idea cursor")
		} else if ok {
			return cur
		}
	}
	history, err := rn.d.Log.Entries(ctx)
	if err != nil {
		rr.log.WithError(err).Warn("could not read activity log; starting rotation at the first idea")
		return types.Cursor{}
	}
	return ideas.SeedCursor(rn.d.Ideas.Pool(), history)
}

func (rn *Runner) platform(idea types.Idea) string {
	if idea.Platform != "" {
		return idea.Platform
	}
	return rn.d.Gate.Platform()
}
