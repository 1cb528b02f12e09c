package artifacts

import (
	"fmt"
	"sync"

	"github.com/agentstation/argmap/pkg/errors"
)

// Collection is a concurrent safe set of entities, keyed by kind and id.
type Collection struct {
	mu       sync.RWMutex
	entities map[Kind]map[string]Entity
}

// CollectionOption defines a function that configures a Collection.
type CollectionOption func(*Collection)

// WithEntities seeds the collection with copies of the given entities.
func WithEntities(entities ...Entity) CollectionOption {
	return func(c *Collection) {
		for _, e := range entities {
			c.bucket(e.EntityKind())[e.EntityID()] = e.Clone()
		}
	}
}

// NewCollection creates a new Collection with optional configuration.
func NewCollection(opts ...CollectionOption) *Collection {
	c := &Collection{
		entities: make(map[Kind]map[string]Entity, len(Kinds())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bucket returns the map for kind, creating it. Callers hold the write lock.
func (c *Collection) bucket(kind Kind) map[string]Entity {
	b, ok := c.entities[kind]
	if !ok {
		b = make(map[string]Entity)
		c.entities[kind] = b
	}
	return b
}

// Get returns a copy of an entity by kind and id and whether it exists.
func (c *Collection) Get(kind Kind, id string) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[kind][id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Set stores a copy of the entity, replacing any entity with the same id.
func (c *Collection) Set(e Entity) error {
	if e == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	if e.EntityID() == "" {
		return errors.NewRecordValidationError(e.EntityKind().String(), "", "id", "is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bucket(e.EntityKind())[e.EntityID()] = e.Clone()
	return nil
}

// Add stores a copy of the entity, returning an error if its id is taken.
func (c *Collection) Add(e Entity) error {
	if e == nil {
		return fmt.Errorf("entity cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucket(e.EntityKind())
	if _, exists := b[e.EntityID()]; exists {
		return fmt.Errorf("%s with ID %s already exists", e.EntityKind(), e.EntityID())
	}
	b[e.EntityID()] = e.Clone()
	return nil
}

// Delete removes an entity. Returns an error if it doesn't exist.
func (c *Collection) Delete(kind Kind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entities[kind][id]; !exists {
		return errors.NewNotFoundError(kind.String(), id)
	}
	delete(c.entities[kind], id)
	return nil
}

// Exists checks if an entity exists without returning it.
func (c *Collection) Exists(kind Kind, id string) bool {
	c.mu.RLock()
	_, exists := c.entities[kind][id]
	c.mu.RUnlock()
	return exists
}

// Len returns the number of entities of a kind.
func (c *Collection) Len(kind Kind) int {
	c.mu.RLock()
	n := len(c.entities[kind])
	c.mu.RUnlock()
	return n
}

// Total returns the number of entities of all kinds.
func (c *Collection) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, b := range c.entities {
		n += len(b)
	}
	return n
}

// List returns copies of all entities of a kind in canonical order.
func (c *Collection) List(kind Kind) []Entity {
	c.mu.RLock()
	out := make([]Entity, 0, len(c.entities[kind]))
	for _, e := range c.entities[kind] {
		out = append(out, e.Clone())
	}
	c.mu.RUnlock()

	Sort(out)
	return out
}

// Copy returns a deep copy of the collection.
func (c *Collection) Copy() *Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := NewCollection()
	for kind, b := range c.entities {
		dst := cp.bucket(kind)
		for id, e := range b {
			dst[id] = e.Clone()
		}
	}
	return cp
}
