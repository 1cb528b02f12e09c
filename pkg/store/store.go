// Package store defines the storage capability the reconciliation engine
// needs from a local collection: read entities by kind, and write a batch
// of entities atomically.
package store

import (
	"context"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
)

// Reader reads entities from a collection.
type Reader interface {
	// List returns every entity of kind, ordered by creation time then id.
	List(ctx context.Context, kind artifacts.Kind) ([]artifacts.Entity, error)
}

// Store is a local collection that supports transactional batch writes.
type Store interface {
	Reader
	// Begin starts a write transaction.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a write transaction. Writes become visible only after Commit.
type Tx interface {
	// Put inserts entities, replacing any entity of the same kind and id.
	Put(ctx context.Context, entities ...artifacts.Entity) error
	// Commit makes the writes visible.
	Commit() error
	// Rollback discards the writes. It is a no-op after Commit.
	Rollback() error
}

// RunInTransaction runs fn inside a transaction, committing when fn
// succeeds and rolling back otherwise. Failures are StorageErrors.
func RunInTransaction(ctx context.Context, s Store, fn func(tx Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return errors.WrapStorage("begin", "", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		if errors.IsStorageError(err) {
			return err
		}
		return errors.WrapStorage("put", "", err)
	}
	if err = tx.Commit(); err != nil {
		return errors.WrapStorage("commit", "", err)
	}
	return nil
}

// Load reads every kind from r into a Collection.
func Load(ctx context.Context, r Reader) (*artifacts.Collection, error) {
	var all []artifacts.Entity
	for _, kind := range artifacts.Kinds() {
		entities, err := r.List(ctx, kind)
		if err != nil {
			return nil, errors.WrapStorage("list", kind.String(), err)
		}
		all = append(all, entities...)
	}
	return artifacts.NewCollection(artifacts.WithEntities(all...)), nil
}
