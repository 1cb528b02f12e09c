package reconcile

import (
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
)

// Translator maps snapshot ids to local ids, per kind, and rewrites the
// foreign keys of incoming records through those tables.
type Translator struct {
	tables  map[artifacts.Kind]map[string]string
	indexes map[artifacts.Kind]*Index
}

// NewTranslator creates a Translator that falls back to the ids of the
// indexed existing entities.
func NewTranslator(indexes map[artifacts.Kind]*Index) *Translator {
	return &Translator{
		tables:  make(map[artifacts.Kind]map[string]string),
		indexes: indexes,
	}
}

// Set records that snapshotID of kind is known locally as localID. The
// first translation of a snapshot id is kept.
func (t *Translator) Set(kind artifacts.Kind, snapshotID, localID string) {
	table, ok := t.tables[kind]
	if !ok {
		table = make(map[string]string)
		t.tables[kind] = table
	}
	if _, exists := table[snapshotID]; !exists {
		table[snapshotID] = localID
	}
}

// Lookup returns the local id of a snapshot id.
func (t *Translator) Lookup(kind artifacts.Kind, snapshotID string) (string, bool) {
	id, ok := t.tables[kind][snapshotID]
	return id, ok
}

// Len returns the number of translations of kind.
func (t *Translator) Len(kind artifacts.Kind) int {
	return len(t.tables[kind])
}

// Resolve returns the local id a reference points to. Snapshot
// translations of every target kind are tried before existing ids, each
// in the reference's target order.
func (t *Translator) Resolve(ref artifacts.Reference) (string, bool) {
	for _, kind := range ref.Targets {
		if id, ok := t.Lookup(kind, ref.ID); ok {
			return id, true
		}
	}
	for _, kind := range ref.Targets {
		if idx, ok := t.indexes[kind]; ok && idx.Has(ref.ID) {
			return ref.ID, true
		}
	}
	return "", false
}

// Rewrite replaces every foreign key of e, the record snapshotID of kind,
// with its local id. On failure e is unchanged and the error is a
// ReferenceError naming the first unresolved key.
func (t *Translator) Rewrite(kind artifacts.Kind, snapshotID string, e artifacts.Entity) error {
	return e.Remap(func(ref artifacts.Reference) (string, error) {
		if id, ok := t.Resolve(ref); ok {
			return id, nil
		}
		targets := make([]string, len(ref.Targets))
		for i, k := range ref.Targets {
			targets[i] = k.String()
		}
		return "", errors.NewReferenceError(kind.String(), snapshotID, ref.Field, ref.ID, targets...)
	})
}
