// Package argmap merges snapshots of debate artifacts into a local
// collection without creating duplicate or inconsistent data.
//
// A Client imports one snapshot at a time. Records that exactly match an
// existing entity are merged into it, records that merely resemble one are
// held for review, and everything else is created, with every cross-entity
// reference rewritten to the ids of the local collection. The whole merge is
// written in a single transaction.
//
// Example usage:
//
//	client, err := argmap.New(argmap.WithStore(db))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := client.ImportSnapshot(ctx, file, 0.9)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if summary.NeedsReview() {
//	    var decisions []reconcile.Decision
//	    for _, item := range summary.Pending() {
//	        decisions = append(decisions, item.Decide(reconcile.Reject))
//	    }
//	    summary, err = client.ConfirmReviewDecisions(ctx, decisions)
//	}
//
//	// Export the collection for another device
//	doc, err := client.ExportSnapshot(ctx)
package argmap

import (
	"sync"

	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/fingerprint"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/store/memory"
)

// Client imports and exports snapshots of one local collection.
type Client interface {

	// Importer runs import sessions against the collection
	Importer

	// Exporter serializes the collection
	Exporter

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// fingerprints memoizes fingerprints across sessions
	fingerprints *fingerprint.Generator

	// lock is held from the start of an import until its session commits
	// or fails, including while it awaits review
	lock    sync.Mutex
	mu      sync.Mutex
	session *reconcile.Session

	hooks *hooks // Event hooks for import outcomes
}

// New creates a new Client instance with the given options. Without
// WithStore the client works on an empty in-memory collection.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, errors.NewConfigError("client", "invalid option", err)
	}
	if o.store == nil {
		o.store = memory.New()
	}

	c := &client{
		options:      o,
		fingerprints: fingerprint.NewGenerator(fingerprint.WithTTL(o.fingerprintTTL)),
		hooks:        newHooks(),
	}

	logging.Debug().
		Int("candidate_cap", o.candidateCap).
		Dur("fingerprint_ttl", o.fingerprintTTL).
		Msg("Client created")
	return c, nil
}
