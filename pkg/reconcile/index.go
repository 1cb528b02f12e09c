package reconcile

import (
	"sort"
	"unicode/utf8"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/fingerprint"
	"github.com/agentstation/argmap/pkg/normalize"
	"github.com/agentstation/argmap/pkg/similarity"
)

// Index is a read-only view of the existing entities of one kind, built
// once per session.
type Index struct {
	kind          artifacts.Kind
	byID          map[string]artifacts.Entity
	byFingerprint map[string]artifacts.Entity
	candidates    []candidate
}

// candidate is an existing entity prepared for similarity scanning.
type candidate struct {
	entity artifacts.Entity
	text   string // normalized primary text
	length int    // code points of text
}

// Match is the closest existing entity found by a similarity scan.
type Match struct {
	Entity artifacts.Entity
	Score  float64
}

// NewIndex indexes entities of kind. When several entities share a
// fingerprint the earliest created one wins.
func NewIndex(kind artifacts.Kind, entities []artifacts.Entity, fp *fingerprint.Generator) *Index {
	sorted := make([]artifacts.Entity, len(entities))
	copy(sorted, entities)
	artifacts.Sort(sorted)

	idx := &Index{
		kind:          kind,
		byID:          make(map[string]artifacts.Entity, len(sorted)),
		byFingerprint: make(map[string]artifacts.Entity, len(sorted)),
		candidates:    make([]candidate, 0, len(sorted)),
	}
	for _, e := range sorted {
		idx.byID[e.EntityID()] = e
		key := fp.Of(e)
		if _, ok := idx.byFingerprint[key]; !ok {
			idx.byFingerprint[key] = e
		}
		text := normalize.String(e.PrimaryText())
		idx.candidates = append(idx.candidates, candidate{
			entity: e,
			text:   text,
			length: utf8.RuneCountInString(text),
		})
	}
	return idx
}

// Kind returns the indexed kind.
func (x *Index) Kind() artifacts.Kind { return x.kind }

// Len returns the number of indexed entities.
func (x *Index) Len() int { return len(x.byID) }

// Get returns the entity with id.
func (x *Index) Get(id string) (artifacts.Entity, bool) {
	e, ok := x.byID[id]
	return e, ok
}

// Has reports whether an entity with id exists.
func (x *Index) Has(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// ByFingerprint returns the earliest created entity with fingerprint fp.
func (x *Index) ByFingerprint(fp string) (artifacts.Entity, bool) {
	e, ok := x.byFingerprint[fp]
	return e, ok
}

// BestMatch returns the existing entity whose primary text is most similar
// to text, if its ratio reaches threshold. Entities whose length alone
// rules them out are skipped, and at most limit of the rest, closest in
// length first, are scored. Equal scores go to the earliest created entity.
func (x *Index) BestMatch(text string, threshold float64, limit int) (Match, bool) {
	norm := normalize.String(text)
	length := utf8.RuneCountInString(norm)

	pool := make([]candidate, 0, len(x.candidates))
	for _, c := range x.candidates {
		if similarity.UpperBound(length, c.length) >= threshold {
			pool = append(pool, c)
		}
	}
	if limit > 0 && len(pool) > limit {
		// candidates are already in creation order, so a stable sort keeps
		// the earliest entity first among equal length gaps
		sort.SliceStable(pool, func(i, j int) bool {
			return gap(pool[i].length, length) < gap(pool[j].length, length)
		})
		pool = pool[:limit]
	}

	var best Match
	found := false
	for _, c := range pool {
		score := similarity.RatioNormalized(norm, c.text)
		if score < threshold {
			continue
		}
		if !found || score > best.Score || (score == best.Score && artifacts.Less(c.entity, best.Entity)) {
			best = Match{Entity: c.entity, Score: score}
			found = true
		}
	}
	return best, found
}

func gap(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
