// Package reconcile merges a snapshot of debate artifacts into a local
// collection.
//
// A Session walks one snapshot through Loading, Resolving, an optional
// AwaitingReview pause for near-duplicates, and Applying, which writes every
// accepted record in a single transaction. Records are resolved one kind at
// a time in dependency order so that the foreign keys of later kinds can be
// rewritten to the local ids chosen for earlier ones.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/snapshot"
	"github.com/agentstation/argmap/pkg/store"
)

// ErrAborted is reported by a summary of a session aborted during review.
var ErrAborted = errors.New("import aborted during review")

// Session is a single import of one snapshot. Sessions are not safe for
// concurrent use and cannot be reused once committed or failed.
type Session struct {
	id    string
	store store.Store
	opts  *options
	machine

	startedAt  time.Time
	entries    []snapshot.Entry
	indexes    map[artifacts.Kind]*Index
	decisions  map[reviewKey]Action
	resolution *Resolution
	summary    *Summary
}

// NewSession creates an idle session importing into s.
func NewSession(s store.Store, opts ...Option) (*Session, error) {
	if s == nil {
		return nil, errors.NewValidationError("store", nil, "must not be nil")
	}
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	id := o.sessionID
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:        id,
		store:     s,
		opts:      o,
		machine:   newMachine(o.now),
		decisions: make(map[reviewKey]Action),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// History returns the state transitions so far.
func (s *Session) History() []Transition {
	out := make([]Transition, len(s.history))
	copy(out, s.history)
	return out
}

// Summary returns the latest summary, or nil before the first import.
func (s *Session) Summary() *Summary { return s.summary }

// Resolution returns the latest resolution, or nil before resolving.
func (s *Session) Resolution() *Resolution { return s.resolution }

// Import reads a snapshot from r and reconciles it. The returned summary
// is in StateAwaitingReview when near-duplicates need a decision, in
// StateCommitted once written, and in StateFailed otherwise. A ParseError,
// a StorageError or cancellation fails the session and is also returned.
func (s *Session) Import(ctx context.Context, r io.Reader) (*Summary, error) {
	ctx = s.context(ctx)
	if err := s.transition(StateLoading); err != nil {
		return nil, err
	}
	s.startedAt = s.opts.now()

	doc, err := snapshot.Decode(r, "", "snapshot")
	if err != nil {
		return s.failed(ctx, err, 0)
	}
	return s.importDocument(ctx, doc)
}

// ImportDocument reconciles an already parsed snapshot.
func (s *Session) ImportDocument(ctx context.Context, doc *snapshot.Document) (*Summary, error) {
	ctx = s.context(ctx)
	if err := s.transition(StateLoading); err != nil {
		return nil, err
	}
	s.startedAt = s.opts.now()
	return s.importDocument(ctx, doc)
}

func (s *Session) importDocument(ctx context.Context, doc *snapshot.Document) (*Summary, error) {
	logger := logging.Ctx(ctx)
	s.entries = doc.Entries(s.startedAt)
	logger.Info().
		Int("records", len(s.entries)).
		Str("app", doc.App).
		Str("exported_at", doc.ExportedAt).
		Msg("Snapshot loaded")

	if err := s.buildIndexes(ctx); err != nil {
		return s.failed(ctx, err, len(s.entries))
	}
	return s.resolve(ctx)
}

// Confirm settles every pending near-duplicate and resumes the session.
// Invalid decisions leave the session awaiting review.
func (s *Session) Confirm(ctx context.Context, decisions []Decision) (*Summary, error) {
	ctx = s.context(ctx)
	if s.state != StateAwaitingReview {
		return nil, errors.NewTransitionError(s.state.String(), StateResolving.String())
	}
	decided, err := decisionsFor(s.resolution.Pending(), decisions)
	if err != nil {
		return s.summary, err
	}
	for key, action := range decided {
		s.decisions[key] = action
	}

	logging.Ctx(ctx).Info().Int("decisions", len(decided)).Msg("Review decisions accepted")
	return s.resolve(ctx)
}

// Abort abandons a session awaiting review. Nothing is written.
func (s *Session) Abort(ctx context.Context) (*Summary, error) {
	ctx = s.context(ctx)
	if s.state != StateAwaitingReview {
		return nil, errors.NewTransitionError(s.state.String(), StateFailed.String())
	}
	logging.Ctx(ctx).Info().Int("pending", len(s.resolution.Pending())).Msg("Import aborted during review")
	s.fail()
	s.summary = newSummaryBuilder(s.id, s.startedAt).
		WithTotal(len(s.entries)).
		WithError(ErrAborted).
		Build(s.state, s.opts.now())
	return s.summary, nil
}

// resolve runs a resolution pass and either pauses for review or applies.
func (s *Session) resolve(ctx context.Context) (*Summary, error) {
	rctx := logging.WithOperation(ctx, "resolve")
	logger := logging.Ctx(rctx)
	if err := s.transition(StateResolving); err != nil {
		return nil, err
	}

	res, err := newResolver(s.opts, s.indexes, s.decisions).resolve(rctx, s.entries)
	if err != nil {
		logger.Warn().Err(err).Msg("Import canceled while resolving")
		return s.failed(ctx, err, len(s.entries))
	}
	s.resolution = res

	if pending := res.Pending(); len(pending) > 0 {
		if err := s.transition(StateAwaitingReview); err != nil {
			return nil, err
		}
		logger.Info().Int("pending", len(pending)).Msg("Import awaiting review")
		s.summary = newSummaryBuilder(s.id, s.startedAt).WithResolution(res).Build(s.state, s.opts.now())
		return s.summary, nil
	}
	return s.apply(ctx, res)
}

// apply writes the resolution in one transaction. It runs to completion
// even if ctx is canceled.
func (s *Session) apply(ctx context.Context, res *Resolution) (*Summary, error) {
	ctx = logging.WithOperation(ctx, "apply")
	logger := logging.Ctx(ctx)
	if err := s.transition(StateApplying); err != nil {
		return nil, err
	}

	if len(res.Writes) > 0 {
		ctx = context.WithoutCancel(ctx)
		err := store.RunInTransaction(ctx, s.store, func(tx store.Tx) error {
			return tx.Put(ctx, res.Writes...)
		})
		if err != nil {
			logger.Error().Err(err).Int("writes", len(res.Writes)).Msg("Import rolled back")
			s.fail()
			s.summary = newSummaryBuilder(s.id, s.startedAt).
				WithTotal(res.Total).
				WithError(err).
				Build(s.state, s.opts.now())
			return s.summary, err
		}
	}

	if err := s.transition(StateCommitted); err != nil {
		return nil, err
	}
	s.summary = newSummaryBuilder(s.id, s.startedAt).WithResolution(res).Build(s.state, s.opts.now())
	logger.Info().
		Int("created", s.summary.Created).
		Int("updated", s.summary.Updated).
		Int("duplicates", s.summary.Duplicates).
		Int("errors", s.summary.Errors).
		Dur("duration", s.summary.FinishedAt.Sub(s.startedAt)).
		Msg("Import committed")
	return s.summary, nil
}

// buildIndexes reads the existing collection, one index per kind.
func (s *Session) buildIndexes(ctx context.Context) error {
	s.indexes = make(map[artifacts.Kind]*Index, len(artifacts.Kinds()))
	for _, kind := range artifacts.Kinds() {
		entities, err := s.store.List(ctx, kind)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", errors.ErrCanceled, ctx.Err())
			}
			return errors.WrapStorage("list", kind.String(), err)
		}
		s.indexes[kind] = NewIndex(kind, entities, s.opts.fingerprint())
		logging.Ctx(logging.WithKind(ctx, kind.String())).Debug().Int("entities", len(entities)).Msg("Indexed existing entities")
	}
	return nil
}

// failed moves to StateFailed and reports err.
func (s *Session) failed(ctx context.Context, err error, total int) (*Summary, error) {
	logging.Ctx(logging.WithError(ctx, err)).Error().Str("state", s.state.String()).Msg("Import failed")
	s.fail()
	s.summary = newSummaryBuilder(s.id, s.startedAt).
		WithTotal(total).
		WithError(err).
		Build(s.state, s.opts.now())
	return s.summary, err
}

// context attaches the session logger and id.
func (s *Session) context(ctx context.Context) context.Context {
	if s.opts.logger != nil {
		ctx = logging.WithLogger(ctx, s.opts.logger)
	}
	return logging.WithSession(ctx, s.id)
}
