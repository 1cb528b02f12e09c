package argmap

import (
	"sync"

	"github.com/agentstation/argmap/pkg/reconcile"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for import events
type (
	// ImportCommittedHook is called after an import is written
	ImportCommittedHook func(summary *reconcile.Summary)

	// ReviewRequiredHook is called when an import pauses for review
	ReviewRequiredHook func(summary *reconcile.Summary)

	// ImportFailedHook is called when an import fails or is aborted
	ImportFailedHook func(summary *reconcile.Summary)
)

// Hooks registers callbacks for import outcomes. Hooks run synchronously
// inside the import call and must not call back into the client.
type Hooks interface {
	// OnImportCommitted registers a callback for committed imports
	OnImportCommitted(ImportCommittedHook)

	// OnReviewRequired registers a callback for imports awaiting review
	OnReviewRequired(ReviewRequiredHook)

	// OnImportFailed registers a callback for failed imports
	OnImportFailed(ImportFailedHook)
}

// hooks manages event callbacks for import outcomes
type hooks struct {
	mu          sync.RWMutex
	onCommitted []ImportCommittedHook
	onReview    []ReviewRequiredHook
	onFailed    []ImportFailedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnImportCommitted implements Hooks.
func (c *client) OnImportCommitted(fn ImportCommittedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCommitted = append(c.hooks.onCommitted, fn)
}

// OnReviewRequired implements Hooks.
func (c *client) OnReviewRequired(fn ReviewRequiredHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onReview = append(c.hooks.onReview, fn)
}

// OnImportFailed implements Hooks.
func (c *client) OnImportFailed(fn ImportFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFailed = append(c.hooks.onFailed, fn)
}

// trigger calls the hooks registered for the summary's state
func (h *hooks) trigger(summary *reconcile.Summary) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch summary.State {
	case reconcile.StateCommitted:
		for _, hook := range h.onCommitted {
			hook(summary)
		}
	case reconcile.StateAwaitingReview:
		for _, hook := range h.onReview {
			hook(summary)
		}
	case reconcile.StateFailed:
		for _, hook := range h.onFailed {
			hook(summary)
		}
	}
}
