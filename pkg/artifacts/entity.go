// Package artifacts defines the debate artifacts argmap reconciles: topics,
// claims, rebuttals, evidence, questions, sources and tags.
//
// Every kind implements Entity so the reconciliation engine can index,
// rewrite, backfill and persist records without knowing their concrete type.
package artifacts

import (
	"sort"
	"time"
)

// Entity is the behavior shared by all artifact kinds.
type Entity interface {
	// EntityKind returns the kind of the entity.
	EntityKind() Kind
	// EntityID returns the entity identifier, unique per kind.
	EntityID() string
	// SetEntityID replaces the entity identifier.
	SetEntityID(id string)
	// Created returns the creation timestamp.
	Created() time.Time
	// Updated returns the last modification timestamp.
	Updated() time.Time
	// Touch sets the modification timestamp.
	Touch(t time.Time)
	// PrimaryText returns the primary text used for similarity scoring.
	PrimaryText() string
	// References lists the foreign keys held by the entity.
	References() []Reference
	// Remap replaces every foreign key with the id returned by fn. The
	// entity is left unchanged when fn fails.
	Remap(fn RemapFunc) error
	// Backfill copies fields that are empty on the receiver and present
	// on from, returning the names of the fields it filled.
	Backfill(from Entity) []string
	// Clone returns a deep copy.
	Clone() Entity
}

// Reference is one foreign key of an entity.
type Reference struct {
	Field   string // snapshot field name, e.g. "claimId"
	Targets []Kind // acceptable target kinds, in lookup order
	ID      string
}

// RemapFunc translates a reference into a local id.
type RemapFunc func(ref Reference) (string, error)

// Meta holds the fields common to every entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID returns the identifier.
func (m *Meta) EntityID() string { return m.ID }

// SetEntityID replaces the identifier.
func (m *Meta) SetEntityID(id string) { m.ID = id }

// Created returns the creation timestamp.
func (m *Meta) Created() time.Time { return m.CreatedAt }

// Updated returns the modification timestamp.
func (m *Meta) Updated() time.Time { return m.UpdatedAt }

// Touch sets the modification timestamp.
func (m *Meta) Touch(t time.Time) { m.UpdatedAt = t }

// Sort orders entities by creation time, then id. This is the canonical
// order for tie-breaking and export.
func Sort(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return Less(entities[i], entities[j])
	})
}

// Less reports whether a was created before b, breaking ties by id.
func Less(a, b Entity) bool {
	ca, cb := a.Created(), b.Created()
	if !ca.Equal(cb) {
		return ca.Before(cb)
	}
	return a.EntityID() < b.EntityID()
}

func remapOne(fn RemapFunc, field, id string, targets ...Kind) (string, error) {
	return fn(Reference{Field: field, Targets: targets, ID: id})
}

func remapList(fn RemapFunc, field string, ids []string, targets ...Kind) ([]string, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		local, err := remapOne(fn, field, id, targets...)
		if err != nil {
			return nil, err
		}
		out[i] = local
	}
	return out, nil
}

func listRefs(field string, ids []string, targets ...Kind) []Reference {
	refs := make([]Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, Reference{Field: field, Targets: targets, ID: id})
	}
	return refs
}
