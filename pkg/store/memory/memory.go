// Package memory provides an in-memory transactional store. It backs tests
// and embedders that keep their collection in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/store"
)

// Operations that can be made to fail with WithFailure.
const (
	OpList   = "list"
	OpBegin  = "begin"
	OpPut    = "put"
	OpCommit = "commit"
)

// Store is an in-memory store.Store.
type Store struct {
	mu       sync.RWMutex
	data     *artifacts.Collection
	failures map[string]error
	commits  int
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithEntities seeds the store.
func WithEntities(entities ...artifacts.Entity) Option {
	return func(s *Store) {
		for _, e := range entities {
			_ = s.data.Set(e)
		}
	}
}

// WithFailure makes every call of operation op return err.
func WithFailure(op string, err error) Option {
	return func(s *Store) {
		s.failures[op] = err
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		data:     artifacts.NewCollection(),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List implements store.Reader.
func (s *Store) List(ctx context.Context, kind artifacts.Kind) ([]artifacts.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpList]; err != nil {
		return nil, err
	}
	return s.data.List(kind), nil
}

// Begin implements store.Store.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpBegin]; err != nil {
		return nil, err
	}
	return &tx{store: s}, nil
}

// Collection returns a copy of the stored entities.
func (s *Store) Collection() *artifacts.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Copy()
}

// Commits returns how many transactions have been committed.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

type tx struct {
	store  *Store
	staged []artifacts.Entity
	done   bool
}

func (t *tx) Put(ctx context.Context, entities ...artifacts.Entity) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.store.failure(OpPut); err != nil {
		return err
	}
	for _, e := range entities {
		if e.EntityID() == "" {
			return fmt.Errorf("%s id cannot be empty", e.EntityKind())
		}
		t.staged = append(t.staged, e.Clone())
	}
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpCommit]; err != nil {
		return err
	}
	for _, e := range t.staged {
		if err := s.data.Set(e); err != nil {
			return err
		}
	}
	s.commits++
	return nil
}

func (t *tx) Rollback() error {
	t.done = true
	t.staged = nil
	return nil
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}
