package reconcile

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/snapshot"
)

// Resolution is the result of resolving every record of a snapshot against
// the existing collection. Nothing is written while resolving.
type Resolution struct {
	Total   int
	Kinds   map[artifacts.Kind]*KindStats
	Records []RecordOutcome
	Review  []ReviewItem
	Errors  []error

	// Writes are the entities to persist: created records first, in
	// resolution order, then existing entities that received backfill.
	Writes []artifacts.Entity

	Translations *Translator
}

// Pending returns the near-duplicates without a decision.
func (r *Resolution) Pending() []ReviewItem {
	var pending []ReviewItem
	for _, item := range r.Review {
		if item.NeedsDecision() {
			pending = append(pending, item)
		}
	}
	return pending
}

// reviewKey identifies a record for review decisions.
type reviewKey struct {
	kind artifacts.Kind
	id   string
}

// resolver classifies the records of one snapshot. A resolver is used for
// a single pass; decisions are fixed for the pass.
type resolver struct {
	opts      *options
	indexes   map[artifacts.Kind]*Index
	decisions map[reviewKey]Action

	translator *Translator
	// staged maps fingerprints to records accepted earlier in the pass
	staged map[artifacts.Kind]map[string]artifacts.Entity
	// confirmed maps fingerprints of confirmed near-duplicates to their match
	confirmed map[artifacts.Kind]map[string]artifacts.Entity
	// seen maps snapshot ids to the fingerprint of their first record
	seen map[artifacts.Kind]map[string]string
	// assigned holds the local ids handed out in the pass
	assigned map[artifacts.Kind]map[string]bool
	// modified holds working copies of existing entities that were backfilled
	modified map[reviewKey]artifacts.Entity
	order    []reviewKey
	created  []artifacts.Entity

	res *Resolution
}

func newResolver(opts *options, indexes map[artifacts.Kind]*Index, decisions map[reviewKey]Action) *resolver {
	res := &Resolution{Kinds: make(map[artifacts.Kind]*KindStats)}
	for _, kind := range artifacts.Kinds() {
		res.Kinds[kind] = &KindStats{}
	}
	for _, kind := range artifacts.Kinds() {
		if _, ok := indexes[kind]; !ok {
			indexes[kind] = NewIndex(kind, nil, opts.fingerprint())
		}
	}
	translator := NewTranslator(indexes)
	res.Translations = translator
	return &resolver{
		opts:       opts,
		indexes:    indexes,
		decisions:  decisions,
		translator: translator,
		staged:     make(map[artifacts.Kind]map[string]artifacts.Entity),
		confirmed:  make(map[artifacts.Kind]map[string]artifacts.Entity),
		seen:       make(map[artifacts.Kind]map[string]string),
		assigned:   make(map[artifacts.Kind]map[string]bool),
		modified:   make(map[reviewKey]artifacts.Entity),
		res:        res,
	}
}

// resolve classifies entries, which must be in dependency order. The
// context is checked between records.
func (r *resolver) resolve(ctx context.Context, entries []snapshot.Entry) (*Resolution, error) {
	r.res.Total = len(entries)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}
		r.resolveEntry(ctx, entry)
	}

	r.res.Writes = append(r.res.Writes, r.created...)
	for _, key := range r.order {
		r.res.Writes = append(r.res.Writes, r.modified[key])
	}
	return r.res, nil
}

func (r *resolver) resolveEntry(ctx context.Context, entry snapshot.Entry) {
	r.stats(entry.Kind).Total++
	if entry.Err != nil {
		r.fail(entry, entry.Err)
		return
	}

	e := entry.Entity.Clone()
	if err := r.translator.Rewrite(entry.Kind, entry.SnapshotID, e); err != nil {
		r.fail(entry, err)
		return
	}

	fp := r.opts.fingerprint().Of(e)
	if entry.Fingerprint != "" && entry.Fingerprint != fp {
		logging.Ctx(logging.WithRecord(ctx, entry.Kind.String(), entry.SnapshotID)).Debug().
			Str("carried", entry.Fingerprint).
			Str("computed", fp).
			Msg("Snapshot fingerprint differs from recomputed one")
	}

	seen := r.bucket(r.seen, entry.Kind)
	if first, ok := seen[entry.SnapshotID]; ok && first != fp {
		r.conflict(entry, e, fp, first)
		return
	} else if !ok {
		seen[entry.SnapshotID] = fp
	}

	idx := r.indexes[entry.Kind]
	// An existing entity with the record's own id and content wins over an
	// earlier twin, so a re-import translates ids to themselves.
	if target, ok := idx.Get(entry.SnapshotID); ok && r.opts.fingerprint().Of(target) == fp {
		r.mergeExisting(entry, e, target, RecordOutcome{Classification: Duplicate})
		return
	}
	if target, ok := idx.ByFingerprint(fp); ok {
		r.mergeExisting(entry, e, target, RecordOutcome{Classification: Duplicate})
		return
	}
	if target, ok := r.entities(r.confirmed, entry.Kind)[fp]; ok {
		r.mergeExisting(entry, e, target, RecordOutcome{
			Classification: Duplicate,
			Message:        "duplicate of a confirmed near-duplicate earlier in the snapshot",
		})
		return
	}
	if target, ok := r.entities(r.staged, entry.Kind)[fp]; ok {
		r.mergeStaged(entry, e, target)
		return
	}

	match, ok := idx.BestMatch(e.PrimaryText(), r.opts.threshold, r.opts.candidateCap)
	if !ok {
		r.create(entry, e, fp, RecordOutcome{Classification: New})
		return
	}

	outcome := RecordOutcome{MatchID: match.Entity.EntityID(), Score: match.Score}
	switch r.decisions[reviewKey{entry.Kind, entry.SnapshotID}] {
	case Confirm:
		r.stats(entry.Kind).Confirmed++
		outcome.Classification, outcome.Decision = Duplicate, Confirm
		confirmed := r.entities(r.confirmed, entry.Kind)
		if _, ok := confirmed[fp]; !ok {
			confirmed[fp] = match.Entity
		}
		r.mergeExisting(entry, e, match.Entity, outcome)
	case Reject:
		r.stats(entry.Kind).Rejected++
		outcome.Classification, outcome.Decision = New, Reject
		r.create(entry, e, fp, outcome)
	default:
		r.hold(entry, e, fp, match)
	}
}

// mergeExisting records a duplicate of an existing entity and backfills
// the fields the existing entity lacks.
func (r *resolver) mergeExisting(entry snapshot.Entry, e, target artifacts.Entity, outcome RecordOutcome) {
	st := r.stats(entry.Kind)
	st.Duplicates++

	key := reviewKey{entry.Kind, target.EntityID()}
	working, ok := r.modified[key]
	if !ok {
		working = target.Clone()
	}
	if filled := working.Backfill(e); len(filled) > 0 {
		working.Touch(r.opts.now())
		r.stamp(working, r.opts.fingerprint().Of(working))
		if !ok {
			r.modified[key] = working
			r.order = append(r.order, key)
		}
		st.Updated++
		outcome.Filled = filled
	}

	r.translator.Set(entry.Kind, entry.SnapshotID, target.EntityID())
	outcome.Kind, outcome.SnapshotID, outcome.LocalID = entry.Kind, entry.SnapshotID, target.EntityID()
	if outcome.MatchID == "" {
		outcome.MatchID = target.EntityID()
	}
	r.res.Records = append(r.res.Records, outcome)
}

// mergeStaged records a duplicate of a record accepted earlier in the
// same snapshot.
func (r *resolver) mergeStaged(entry snapshot.Entry, e, target artifacts.Entity) {
	r.stats(entry.Kind).Duplicates++
	filled := target.Backfill(e)
	r.translator.Set(entry.Kind, entry.SnapshotID, target.EntityID())
	r.res.Records = append(r.res.Records, RecordOutcome{
		Kind:           entry.Kind,
		SnapshotID:     entry.SnapshotID,
		LocalID:        target.EntityID(),
		Classification: Duplicate,
		MatchID:        target.EntityID(),
		Filled:         filled,
		Message:        "duplicate of a record earlier in the snapshot",
	})
}

// create stages e as a new entity, minting an id when its own is taken.
func (r *resolver) create(entry snapshot.Entry, e artifacts.Entity, fp string, outcome RecordOutcome) {
	r.stats(entry.Kind).Created++
	id, minted := r.assign(entry.Kind, entry.SnapshotID)
	e.SetEntityID(id)
	r.stamp(e, fp)
	if minted {
		outcome.Message = fmt.Sprintf("id %q already in use, assigned %q", entry.SnapshotID, id)
	}
	r.stage(entry.Kind, fp, e)
	r.created = append(r.created, e)
	r.translator.Set(entry.Kind, entry.SnapshotID, id)

	outcome.Kind, outcome.SnapshotID, outcome.LocalID = entry.Kind, entry.SnapshotID, id
	r.res.Records = append(r.res.Records, outcome)
}

// hold keeps a near-duplicate for review. It gets the id it would have as
// a new entity so dependents can resolve against it in the meantime.
func (r *resolver) hold(entry snapshot.Entry, e artifacts.Entity, fp string, match Match) {
	r.stats(entry.Kind).NearDuplicates++
	id, _ := r.assign(entry.Kind, entry.SnapshotID)
	e.SetEntityID(id)
	r.stage(entry.Kind, fp, e)
	r.translator.Set(entry.Kind, entry.SnapshotID, id)

	r.res.Review = append(r.res.Review, ReviewItem{
		Kind:          entry.Kind,
		SnapshotID:    entry.SnapshotID,
		Reason:        NearDuplicate,
		Text:          e.PrimaryText(),
		MatchID:       match.Entity.EntityID(),
		MatchText:     match.Entity.PrimaryText(),
		Score:         match.Score,
		ProvisionalID: id,
	})
	r.res.Records = append(r.res.Records, RecordOutcome{
		Kind:           entry.Kind,
		SnapshotID:     entry.SnapshotID,
		LocalID:        id,
		Classification: NearDuplicate,
		MatchID:        match.Entity.EntityID(),
		Score:          match.Score,
	})
}

func (r *resolver) conflict(entry snapshot.Entry, e artifacts.Entity, fp, first string) {
	err := errors.NewConflictError(entry.Kind.String(), entry.SnapshotID, fp, first)
	r.stats(entry.Kind).Errors++
	r.res.Errors = append(r.res.Errors, err)
	r.res.Review = append(r.res.Review, ReviewItem{
		Kind:       entry.Kind,
		SnapshotID: entry.SnapshotID,
		Reason:     Conflict,
		Text:       e.PrimaryText(),
		Message:    err.Error(),
	})
	r.res.Records = append(r.res.Records, RecordOutcome{
		Kind:           entry.Kind,
		SnapshotID:     entry.SnapshotID,
		Classification: Conflict,
		Message:        err.Error(),
	})
}

func (r *resolver) fail(entry snapshot.Entry, err error) {
	r.stats(entry.Kind).Errors++
	r.res.Errors = append(r.res.Errors, err)
	r.res.Records = append(r.res.Records, RecordOutcome{
		Kind:           entry.Kind,
		SnapshotID:     entry.SnapshotID,
		Classification: Invalid,
		Message:        err.Error(),
	})
}

// assign returns snapshotID when it is free in the collection and in this
// pass, and a minted id otherwise.
func (r *resolver) assign(kind artifacts.Kind, snapshotID string) (string, bool) {
	taken := r.bucketBool(kind)
	id, minted := snapshotID, false
	for r.indexes[kind].Has(id) || taken[id] {
		id, minted = r.opts.newID(), true
	}
	taken[id] = true
	return id, minted
}

// stamp stores the content fingerprint on entities that carry one.
func (r *resolver) stamp(e artifacts.Entity, fp string) {
	if c, ok := e.(*artifacts.Claim); ok {
		c.Fingerprint = fp
	}
}

func (r *resolver) stage(kind artifacts.Kind, fp string, e artifacts.Entity) {
	staged := r.entities(r.staged, kind)
	if _, ok := staged[fp]; !ok {
		staged[fp] = e
	}
}

func (r *resolver) entities(m map[artifacts.Kind]map[string]artifacts.Entity, kind artifacts.Kind) map[string]artifacts.Entity {
	b, ok := m[kind]
	if !ok {
		b = make(map[string]artifacts.Entity)
		m[kind] = b
	}
	return b
}

func (r *resolver) bucket(m map[artifacts.Kind]map[string]string, kind artifacts.Kind) map[string]string {
	b, ok := m[kind]
	if !ok {
		b = make(map[string]string)
		m[kind] = b
	}
	return b
}

func (r *resolver) bucketBool(kind artifacts.Kind) map[string]bool {
	b, ok := r.assigned[kind]
	if !ok {
		b = make(map[string]bool)
		r.assigned[kind] = b
	}
	return b
}

func (r *resolver) stats(kind artifacts.Kind) *KindStats {
	st, ok := r.res.Kinds[kind]
	if !ok {
		st = &KindStats{}
		r.res.Kinds[kind] = st
	}
	return st
}

// decisionsFor validates decisions against the pending review items. Every
// pending item needs exactly one decision and every decision must name a
// pending item.
func decisionsFor(pending []ReviewItem, decisions []Decision) (map[reviewKey]Action, error) {
	want := make(map[reviewKey]bool, len(pending))
	for _, item := range pending {
		want[reviewKey{item.Kind, item.SnapshotID}] = true
	}

	got := make(map[reviewKey]Action, len(decisions))
	for _, d := range decisions {
		key := reviewKey{d.Kind, d.SnapshotID}
		switch {
		case !d.Action.Valid():
			return nil, errors.NewRecordValidationError(d.Kind.String(), d.SnapshotID, "action",
				fmt.Sprintf("unknown action %q, want confirm or reject", d.Action))
		case !want[key]:
			return nil, errors.NewRecordValidationError(d.Kind.String(), d.SnapshotID, "snapshotId",
				"no near-duplicate awaiting review")
		}
		if _, dup := got[key]; dup {
			return nil, errors.NewRecordValidationError(d.Kind.String(), d.SnapshotID, "snapshotId",
				"decided more than once")
		}
		got[key] = d.Action
	}

	var missing []string
	for _, item := range pending {
		if _, ok := got[reviewKey{item.Kind, item.SnapshotID}]; !ok {
			missing = append(missing, item.Kind.String()+"/"+item.SnapshotID)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, errors.NewValidationError("decisions", missing,
			fmt.Sprintf("missing decisions for %d near-duplicates", len(missing)))
	}
	return got, nil
}
