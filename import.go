package argmap

import (
	"context"
	"io"

	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/snapshot"
)

// Compile-time interface check to ensure proper implementation.
var _ Importer = (*client)(nil)

// Importer runs import sessions. At most one session is active at a time;
// a session awaiting review stays active until it is confirmed or aborted.
type Importer interface {
	// ImportSnapshot reads a snapshot from r and merges it into the
	// collection. Records at least threshold similar to an existing entity
	// are held for review.
	ImportSnapshot(ctx context.Context, r io.Reader, threshold float64) (*reconcile.Summary, error)

	// ImportDocument merges an already parsed snapshot.
	ImportDocument(ctx context.Context, doc *snapshot.Document, threshold float64) (*reconcile.Summary, error)

	// ConfirmReviewDecisions settles every near-duplicate of the session
	// awaiting review and resumes it.
	ConfirmReviewDecisions(ctx context.Context, decisions []reconcile.Decision) (*reconcile.Summary, error)

	// AbortReview abandons the session awaiting review without writing.
	AbortReview(ctx context.Context) error

	// Review returns the summary of the session awaiting review, or nil.
	Review() *reconcile.Summary
}

// ImportSnapshot implements Importer.
func (c *client) ImportSnapshot(ctx context.Context, r io.Reader, threshold float64) (*reconcile.Summary, error) {
	return c.begin(ctx, threshold, func(s *reconcile.Session) (*reconcile.Summary, error) {
		return s.Import(ctx, r)
	})
}

// ImportDocument implements Importer.
func (c *client) ImportDocument(ctx context.Context, doc *snapshot.Document, threshold float64) (*reconcile.Summary, error) {
	if doc == nil {
		return nil, errors.NewValidationError("document", nil, "must not be nil")
	}
	return c.begin(ctx, threshold, func(s *reconcile.Session) (*reconcile.Summary, error) {
		return s.ImportDocument(ctx, doc)
	})
}

// ConfirmReviewDecisions implements Importer.
func (c *client) ConfirmReviewDecisions(ctx context.Context, decisions []reconcile.Decision) (*reconcile.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, errors.NewTransitionError(reconcile.StateIdle.String(), reconcile.StateResolving.String())
	}
	s := c.session
	summary, err := s.Confirm(ctx, decisions)
	if errors.IsValidationError(err) {
		return summary, err
	}
	c.settle(s, summary)
	return summary, err
}

// AbortReview implements Importer.
func (c *client) AbortReview(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return errors.NewTransitionError(reconcile.StateIdle.String(), reconcile.StateFailed.String())
	}
	s := c.session
	summary, err := s.Abort(ctx)
	c.settle(s, summary)
	return err
}

// Review implements Importer.
func (c *client) Review() *reconcile.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.State() != reconcile.StateAwaitingReview {
		return nil
	}
	return c.session.Summary()
}

// begin takes the session lock and runs a new session.
func (c *client) begin(ctx context.Context, threshold float64, run func(*reconcile.Session) (*reconcile.Summary, error)) (*reconcile.Summary, error) {
	if !c.lock.TryLock() {
		logging.Ctx(ctx).Warn().Msg("Import rejected, another session is active")
		return nil, errors.ErrSessionActive
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := reconcile.NewSession(c.options.store, c.sessionOptions(threshold)...)
	if err != nil {
		c.lock.Unlock()
		return nil, err
	}
	c.session = s

	summary, err := run(s)
	c.settle(s, summary)
	return summary, err
}

// settle fires hooks for the session outcome and releases the session lock
// once the session is over. c.mu must be held.
func (c *client) settle(s *reconcile.Session, summary *reconcile.Summary) {
	if summary != nil {
		c.hooks.trigger(summary)
	}
	if s.State().Terminal() && c.session == s {
		c.session = nil
		c.lock.Unlock()
	}
}

func (c *client) sessionOptions(threshold float64) []reconcile.Option {
	opts := []reconcile.Option{
		reconcile.WithThreshold(threshold),
		reconcile.WithCandidateCap(c.options.candidateCap),
		reconcile.WithFingerprints(c.fingerprints),
		reconcile.WithClock(c.options.now),
	}
	if c.options.logger != nil {
		opts = append(opts, reconcile.WithLogger(c.options.logger))
	}
	return opts
}
