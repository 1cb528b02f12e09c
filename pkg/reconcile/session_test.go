package reconcile_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/fingerprint"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/snapshot"
	"github.com/agentstation/argmap/pkg/store/memory"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return epoch.Add(time.Duration(hours) * time.Hour)
}

func meta(id string, hours int) artifacts.Meta {
	return artifacts.Meta{ID: id, CreatedAt: at(hours), UpdatedAt: at(hours)}
}

func rec(id string) snapshot.RecordMeta {
	return snapshot.RecordMeta{ID: id, CreatedAt: at(100).Format(time.RFC3339)}
}

func claim(id, text string, hours int) *artifacts.Claim {
	return &artifacts.Claim{Meta: meta(id, hours), Text: text, Stance: artifacts.StanceNeutral, Strength: artifacts.StrengthMedium}
}

func newDoc(fill func(d *snapshot.Document)) *snapshot.Document {
	d := snapshot.New("test", at(200))
	fill(d)
	return d
}

// newSession creates a session with a fixed clock and predictable minted ids.
func newSession(t *testing.T, st *memory.Store, opts ...reconcile.Option) *reconcile.Session {
	t.Helper()
	minted := 0
	base := []reconcile.Option{
		reconcile.WithClock(func() time.Time { return at(300) }),
		reconcile.WithFingerprints(fingerprint.NewGenerator()),
		reconcile.WithIDGenerator(func() string {
			minted++
			return fmt.Sprintf("minted-%d", minted)
		}),
		reconcile.WithLogger(logging.NewNopLogger()),
	}
	s, err := reconcile.NewSession(st, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, st *memory.Store, kind artifacts.Kind, id string) artifacts.Entity {
	t.Helper()
	e, ok := st.Collection().Get(kind, id)
	require.True(t, ok, "%s %s not stored", kind, id)
	return e
}

// scenario: one identical claim, one 95% similar claim, one unrelated claim
// and a topic, against two existing claims.
func scenario() (*memory.Store, *snapshot.Document) {
	st := memory.New(memory.WithEntities(
		claim("e1", "Nuclear power is safe", 0),
		claim("e2", "cats are better pets", 1),
	))
	doc := newDoc(func(d *snapshot.Document) {
		d.Topics = append(d.Topics, snapshot.TopicRecord{RecordMeta: rec("t1"), Title: "Energy"})
		d.Claims = append(d.Claims,
			snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "nuclear power is SAFE!"},
			snapshot.ClaimRecord{RecordMeta: rec("c2"), Text: "rats are better pets"},
			snapshot.ClaimRecord{RecordMeta: rec("c3"), Text: "Solar panels are cheap now", Topics: []string{"t1"}},
		)
	})
	return st, doc
}

// withQuestion adds a question targeting the near-duplicate claim.
func withQuestion(doc *snapshot.Document) *snapshot.Document {
	doc.Questions = append(doc.Questions, snapshot.QuestionRecord{RecordMeta: rec("q1"), Text: "Which pets are better?", TargetID: "c2"})
	return doc
}

func TestImportEndToEnd(t *testing.T) {
	st, doc := scenario()
	s := newSession(t, st)

	sum, err := s.ImportDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, sum.Success)
	assert.Equal(t, reconcile.StateAwaitingReview, sum.State)
	assert.Equal(t, 4, sum.TotalItems)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 3, sum.Stats(artifacts.KindClaim).Total)
	assert.Equal(t, 1, sum.Stats(artifacts.KindClaim).Created)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.NearDuplicates)
	assert.Equal(t, 0, sum.Errors)

	require.Len(t, sum.ItemsForReview, 1)
	item := sum.ItemsForReview[0]
	assert.Equal(t, reconcile.NearDuplicate, item.Reason)
	assert.Equal(t, "c2", item.SnapshotID)
	assert.Equal(t, "e2", item.MatchID)
	assert.InDelta(t, 0.95, item.Score, 1e-9)

	assert.Equal(t, 0, st.Commits(), "nothing is written while awaiting review")
}

func TestConfirmReviewDecisions(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm merges into the match", func(t *testing.T) {
		st, doc := scenario()
		s := newSession(t, st)
		sum, err := s.ImportDocument(ctx, withQuestion(doc))
		require.NoError(t, err)
		require.True(t, sum.NeedsReview())

		sum, err = s.Confirm(ctx, []reconcile.Decision{sum.Pending()[0].Decide(reconcile.Confirm)})
		require.NoError(t, err)

		assert.Equal(t, reconcile.StateCommitted, sum.State)
		assert.Equal(t, 3, sum.Created)
		assert.Equal(t, 2, sum.Duplicates)
		assert.Equal(t, 0, sum.NearDuplicates)
		assert.Equal(t, 1, sum.Stats(artifacts.KindClaim).Confirmed)
		assert.Empty(t, sum.Pending())

		q := get(t, st, artifacts.KindQuestion, "q1").(*artifacts.Question)
		assert.Equal(t, "e2", q.TargetID, "dependents follow the confirmed match")
		assert.False(t, st.Collection().Exists(artifacts.KindClaim, "c2"))
		assert.Equal(t, 1, st.Commits())
	})

	t.Run("reject imports as new", func(t *testing.T) {
		st, doc := scenario()
		s := newSession(t, st)
		sum, err := s.ImportDocument(ctx, withQuestion(doc))
		require.NoError(t, err)

		sum, err = s.Confirm(ctx, []reconcile.Decision{{Kind: artifacts.KindClaim, SnapshotID: "c2", Action: reconcile.Reject}})
		require.NoError(t, err)

		assert.Equal(t, reconcile.StateCommitted, sum.State)
		assert.Equal(t, 4, sum.Created)
		assert.Equal(t, 1, sum.Duplicates)
		assert.Equal(t, 1, sum.Stats(artifacts.KindClaim).Rejected)

		c2 := get(t, st, artifacts.KindClaim, "c2").(*artifacts.Claim)
		assert.Equal(t, "rats are better pets", c2.Text)
		q := get(t, st, artifacts.KindQuestion, "q1").(*artifacts.Question)
		assert.Equal(t, "c2", q.TargetID)
	})

	t.Run("invalid decisions keep the session in review", func(t *testing.T) {
		st, doc := scenario()
		s := newSession(t, st)
		_, err := s.ImportDocument(ctx, doc)
		require.NoError(t, err)

		tests := []struct {
			name      string
			decisions []reconcile.Decision
		}{
			{"missing", nil},
			{"unknown action", []reconcile.Decision{{Kind: artifacts.KindClaim, SnapshotID: "c2", Action: "maybe"}}},
			{"unknown item", []reconcile.Decision{
				{Kind: artifacts.KindClaim, SnapshotID: "c2", Action: reconcile.Confirm},
				{Kind: artifacts.KindClaim, SnapshotID: "c3", Action: reconcile.Confirm},
			}},
			{"decided twice", []reconcile.Decision{
				{Kind: artifacts.KindClaim, SnapshotID: "c2", Action: reconcile.Confirm},
				{Kind: artifacts.KindClaim, SnapshotID: "c2", Action: reconcile.Reject},
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.Confirm(ctx, tt.decisions)
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				assert.Equal(t, reconcile.StateAwaitingReview, s.State())
			})
		}
		assert.Equal(t, 0, st.Commits())
	})

	t.Run("outside review", func(t *testing.T) {
		s := newSession(t, memory.New())
		_, err := s.Confirm(ctx, nil)
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
		assert.Equal(t, reconcile.StateIdle, s.State())
	})
}

func TestConfirmCoversLaterRecordsWithSameContent(t *testing.T) {
	ctx := context.Background()
	st, doc := scenario()
	doc.Claims = append(doc.Claims, snapshot.ClaimRecord{RecordMeta: rec("c4"), Text: "Rats are better pets."})
	doc.Questions = append(doc.Questions, snapshot.QuestionRecord{RecordMeta: rec("q1"), Text: "Which pets?", TargetID: "c4"})
	s := newSession(t, st)

	sum, err := s.ImportDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, sum.Pending(), 1)
	assert.Equal(t, "c2", sum.Pending()[0].SnapshotID)

	sum, err = s.Confirm(ctx, []reconcile.Decision{sum.Pending()[0].Decide(reconcile.Confirm)})
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Empty(t, sum.Pending())
	assert.Equal(t, 3, sum.Stats(artifacts.KindClaim).Duplicates)
	assert.Equal(t, 1, sum.Stats(artifacts.KindClaim).Confirmed)
	assert.Zero(t, sum.NearDuplicates)

	for _, r := range sum.Records {
		if r.Kind == artifacts.KindClaim && r.SnapshotID == "c4" {
			assert.Equal(t, reconcile.Duplicate, r.Classification)
			assert.Equal(t, "e2", r.LocalID)
		}
	}
	assert.Equal(t, "e2", get(t, st, artifacts.KindQuestion, "q1").(*artifacts.Question).TargetID)
	assert.False(t, st.Collection().Exists(artifacts.KindClaim, "c4"))
	assert.Equal(t, 1, st.Commits())
}

func TestImportIsIdempotentWithTwinContent(t *testing.T) {
	st := memory.New(memory.WithEntities(
		claim("c1", "Twin claim", 0),
		claim("c2", "Twin claim", 1),
		&artifacts.Evidence{Meta: meta("ev1", 2), Content: "Backs the second twin", ClaimID: "c2", Type: artifacts.EvidenceOther, Quality: artifacts.QualityMedium},
	))
	before := export(t, st)

	sum, err := newSession(t, st).ImportDocument(context.Background(), export(t, st))
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Equal(t, 3, sum.Duplicates)
	assert.Zero(t, sum.NearDuplicates)
	assert.Zero(t, sum.Created)
	for _, r := range sum.Records {
		assert.Equal(t, r.SnapshotID, r.LocalID, "%s %s translates to itself", r.Kind, r.SnapshotID)
	}
	assert.Equal(t, before, export(t, st))
}

func TestStoredClaimsCarryFingerprint(t *testing.T) {
	ctx := context.Background()
	st, doc := scenario()
	s := newSession(t, st)
	sum, err := s.ImportDocument(ctx, doc)
	require.NoError(t, err)
	_, err = s.Confirm(ctx, []reconcile.Decision{sum.Pending()[0].Decide(reconcile.Reject)})
	require.NoError(t, err)

	for _, id := range []string{"c2", "c3"} {
		c := get(t, st, artifacts.KindClaim, id).(*artifacts.Claim)
		assert.Equal(t, fingerprint.Of(c), c.Fingerprint, id)
	}

	exported := export(t, st)
	for _, r := range exported.Claims {
		assert.Equal(t, fingerprint.Of(get(t, st, artifacts.KindClaim, r.ID)), r.ClaimFingerprint, r.ID)
	}
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	st, doc := scenario()
	s := newSession(t, st)

	_, err := s.Abort(ctx)
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	_, err = s.ImportDocument(ctx, doc)
	require.NoError(t, err)

	sum, err := s.Abort(ctx)
	require.NoError(t, err)
	assert.False(t, sum.Success)
	assert.Equal(t, reconcile.StateFailed, sum.State)
	assert.Contains(t, sum.ErrorMessages, reconcile.ErrAborted.Error())
	assert.Equal(t, 0, st.Commits())

	_, err = s.Confirm(ctx, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

func TestSessionIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, memory.New())
	_, err := s.ImportDocument(ctx, newDoc(func(*snapshot.Document) {}))
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateCommitted, s.State())

	_, err = s.ImportDocument(ctx, newDoc(func(*snapshot.Document) {}))
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	var path []reconcile.State
	for _, tr := range s.History() {
		path = append(path, tr.To)
	}
	assert.Equal(t, []reconcile.State{
		reconcile.StateLoading, reconcile.StateResolving, reconcile.StateApplying, reconcile.StateCommitted,
	}, path)
}

// seeded returns a store holding a small connected collection.
func seeded() *memory.Store {
	score := 0.8
	return memory.New(memory.WithEntities(
		&artifacts.Topic{Meta: meta("t1", 0), Title: "Energy", Posture: artifacts.PostureFor, Tags: []string{"energy"}},
		&artifacts.Source{Meta: meta("s1", 0), Title: "Annual report", Publisher: "IEA", Date: "2023", ReliabilityScore: &score},
		&artifacts.Tag{Meta: meta("g1", 0), Label: "energy", Color: "#00ff00"},
		&artifacts.Claim{Meta: meta("c1", 1), Text: "Nuclear power is safe", Stance: artifacts.StancePro, Strength: artifacts.StrengthHigh, Topics: []string{"t1"}},
		&artifacts.Claim{Meta: meta("c2", 2), Text: "Wind farms harm birds", Stance: artifacts.StanceCon, Strength: artifacts.StrengthLow, Topics: []string{"t1"}},
		&artifacts.Rebuttal{Meta: meta("r1", 3), Text: "Waste storage is unsolved", ClaimID: "c1"},
		&artifacts.Evidence{Meta: meta("e1", 3), Content: "Deaths per TWh are lowest", ClaimID: "c1", SourceID: "s1", Type: artifacts.EvidenceStatistic, Quality: artifacts.QualityHigh},
		&artifacts.Question{Meta: meta("q1", 4), Text: "What about cost?", TargetID: "c2", Kind: artifacts.QuestionChallenge},
	))
}

func export(t *testing.T, st *memory.Store) *snapshot.Document {
	t.Helper()
	doc, err := snapshot.Export(context.Background(), st, snapshot.WithClock(func() time.Time { return at(500) }))
	require.NoError(t, err)
	return doc
}

func TestImportIsIdempotent(t *testing.T) {
	st := seeded()
	before := export(t, st)

	s := newSession(t, st)
	sum, err := s.ImportDocument(context.Background(), export(t, st))
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Equal(t, 8, sum.TotalItems)
	assert.Equal(t, 8, sum.Duplicates)
	assert.Zero(t, sum.Created)
	assert.Zero(t, sum.Updated)
	assert.Zero(t, sum.NearDuplicates)
	assert.Zero(t, sum.Errors)
	assert.Equal(t, 0, st.Commits())
	assert.Equal(t, before, export(t, st))
}

func TestRoundTripIntoEmptyCollection(t *testing.T) {
	src := seeded()
	doc := export(t, src)

	dst := memory.New()
	sum, err := newSession(t, dst).ImportDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Equal(t, 8, sum.Created)
	assert.Equal(t, doc, export(t, dst))
}

func TestReferenceIntegrity(t *testing.T) {
	st := memory.New(memory.WithEntities(claim("local", "An existing claim", 0)))
	doc := newDoc(func(d *snapshot.Document) {
		d.Claims = append(d.Claims, snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "Snapshot claim"})
		d.Rebuttals = append(d.Rebuttals,
			snapshot.RebuttalRecord{RecordMeta: rec("r1"), Text: "Against the snapshot claim", ClaimID: "c1"},
			snapshot.RebuttalRecord{RecordMeta: rec("r2"), Text: "Against the local claim", ClaimID: "local"},
			snapshot.RebuttalRecord{RecordMeta: rec("r3"), Text: "Against nothing", ClaimID: "missing"},
		)
		d.Evidences = append(d.Evidences,
			snapshot.EvidenceRecord{RecordMeta: rec("e1"), Content: "Cites a missing source", ClaimID: "c1", SourceID: "s9"},
		)
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, sum.Success)
	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Equal(t, 3, sum.Created)
	assert.Equal(t, 2, sum.Errors)
	require.Len(t, sum.Failures, 2)
	for _, err := range sum.Failures {
		assert.True(t, errors.IsReferenceError(err))
	}

	var refErr *errors.ReferenceError
	require.ErrorAs(t, sum.Failures[1], &refErr)
	assert.Equal(t, "sourceId", refErr.Field)
	assert.Equal(t, "s9", refErr.TargetID)

	assert.Equal(t, "c1", get(t, st, artifacts.KindRebuttal, "r1").(*artifacts.Rebuttal).ClaimID)
	assert.Equal(t, "local", get(t, st, artifacts.KindRebuttal, "r2").(*artifacts.Rebuttal).ClaimID)
	assert.False(t, st.Collection().Exists(artifacts.KindRebuttal, "r3"))
	assert.False(t, st.Collection().Exists(artifacts.KindEvidence, "e1"))
}

func TestQuestionTargetsTopicThenClaim(t *testing.T) {
	// the snapshot topic "x" collides with a local topic, so its local id
	// differs from the claim sharing its snapshot id
	st := memory.New(memory.WithEntities(&artifacts.Topic{Meta: meta("x", 0), Title: "Old topic"}))
	doc := newDoc(func(d *snapshot.Document) {
		d.Topics = append(d.Topics, snapshot.TopicRecord{RecordMeta: rec("x"), Title: "Shared id topic"})
		d.Claims = append(d.Claims,
			snapshot.ClaimRecord{RecordMeta: rec("x"), Text: "Shared id claim"},
			snapshot.ClaimRecord{RecordMeta: rec("c"), Text: "Only a claim"},
		)
		d.Questions = append(d.Questions,
			snapshot.QuestionRecord{RecordMeta: rec("q1"), Text: "About x?", TargetID: "x"},
			snapshot.QuestionRecord{RecordMeta: rec("q2"), Text: "About c?", TargetID: "c"},
		)
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Created)
	assert.Equal(t, "minted-1", get(t, st, artifacts.KindQuestion, "q1").(*artifacts.Question).TargetID)
	assert.Equal(t, "c", get(t, st, artifacts.KindQuestion, "q2").(*artifacts.Question).TargetID)
}

func TestIDCollisionMintsNewID(t *testing.T) {
	st := memory.New(memory.WithEntities(
		&artifacts.Topic{Meta: meta("t1", 0), Title: "Energy"},
	))
	doc := newDoc(func(d *snapshot.Document) {
		d.Topics = append(d.Topics, snapshot.TopicRecord{RecordMeta: rec("t1"), Title: "Healthcare"})
		d.Claims = append(d.Claims, snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "Care should be free", Topics: []string{"t1"}})
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Created)

	assert.Equal(t, "Energy", get(t, st, artifacts.KindTopic, "t1").(*artifacts.Topic).Title)
	assert.Equal(t, "Healthcare", get(t, st, artifacts.KindTopic, "minted-1").(*artifacts.Topic).Title)
	assert.Equal(t, []string{"minted-1"}, get(t, st, artifacts.KindClaim, "c1").(*artifacts.Claim).Topics)

	require.NotEmpty(t, sum.Records)
	assert.Equal(t, "minted-1", sum.Records[0].LocalID)
	assert.Contains(t, sum.Records[0].Message, "already in use")
}

func TestDuplicateBackfillsEmptyFields(t *testing.T) {
	st := memory.New(memory.WithEntities(
		&artifacts.Source{Meta: meta("s1", 0), Title: "Annual report", Publisher: "IEA", Date: "2023"},
	))
	doc := newDoc(func(d *snapshot.Document) {
		d.Sources = append(d.Sources, snapshot.SourceRecord{
			RecordMeta: rec("remote"),
			Title:      "ANNUAL REPORT",
			Publisher:  "iea",
			Date:       "2023",
			URL:        "https://example.org/report",
		})
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, []string{"url"}, sum.Records[0].Filled)

	s1 := get(t, st, artifacts.KindSource, "s1").(*artifacts.Source)
	assert.Equal(t, "Annual report", s1.Title, "non-empty fields are kept")
	assert.Equal(t, "https://example.org/report", s1.URL)
	assert.True(t, s1.UpdatedAt.Equal(at(300)))
}

func TestNearDuplicateTieBreak(t *testing.T) {
	doc := newDoc(func(d *snapshot.Document) {
		d.Claims = append(d.Claims, snapshot.ClaimRecord{RecordMeta: rec("in"), Text: "rats are better pets"})
	})

	t.Run("earliest created", func(t *testing.T) {
		st := memory.New(memory.WithEntities(
			claim("a", "cats are better pets", 2),
			claim("b", "bats are better pets", 1),
		))
		sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, sum.Pending(), 1)
		assert.Equal(t, "b", sum.Pending()[0].MatchID)
	})

	t.Run("lowest id", func(t *testing.T) {
		st := memory.New(memory.WithEntities(
			claim("z", "cats are better pets", 1),
			claim("y", "bats are better pets", 1),
		))
		sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, sum.Pending(), 1)
		assert.Equal(t, "y", sum.Pending()[0].MatchID)
	})

	t.Run("below threshold", func(t *testing.T) {
		st := memory.New(memory.WithEntities(claim("a", "cats are better pets", 1)))
		sum, err := newSession(t, st, reconcile.WithThreshold(0.99)).ImportDocument(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StateCommitted, sum.State)
		assert.Equal(t, 1, sum.Created)
	})
}

func TestConflictingSnapshotIDs(t *testing.T) {
	st := memory.New()
	doc := newDoc(func(d *snapshot.Document) {
		d.Claims = append(d.Claims,
			snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "First version"},
			snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "First version"},
			snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "Entirely different wording"},
		)
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, reconcile.StateCommitted, sum.State)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Errors)
	require.Len(t, sum.ItemsForReview, 1)
	assert.Equal(t, reconcile.Conflict, sum.ItemsForReview[0].Reason)
	assert.False(t, sum.ItemsForReview[0].NeedsDecision())
	require.Len(t, sum.Failures, 1)
	assert.True(t, errors.IsConflict(sum.Failures[0]))

	assert.Equal(t, "First version", get(t, st, artifacts.KindClaim, "c1").(*artifacts.Claim).Text)
}

func TestInvalidRecordsAreSkipped(t *testing.T) {
	st := memory.New()
	bad := 1.5
	doc := newDoc(func(d *snapshot.Document) {
		d.Claims = append(d.Claims,
			snapshot.ClaimRecord{RecordMeta: rec("c1"), Text: "  "},
			snapshot.ClaimRecord{RecordMeta: rec("c2"), Text: "Fine", Stance: "sideways"},
			snapshot.ClaimRecord{RecordMeta: rec("c3"), Text: "Fine too"},
		)
		d.Sources = append(d.Sources, snapshot.SourceRecord{RecordMeta: rec("s1"), Title: "Doubtful", ReliabilityScore: &bad})
	})

	sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 3, sum.Errors)
	assert.Len(t, sum.ErrorMessages, 3)
	for _, err := range sum.Failures {
		assert.True(t, errors.IsValidationError(err))
	}
	assert.Equal(t, 1, sum.Stats(artifacts.KindSource).Errors)
	assert.True(t, st.Collection().Exists(artifacts.KindClaim, "c3"))
}

func TestStorageFailureRollsBack(t *testing.T) {
	for _, op := range []string{memory.OpBegin, memory.OpPut, memory.OpCommit} {
		t.Run(op, func(t *testing.T) {
			st, doc := scenario()
			st = memory.New(
				memory.WithEntities(st.Collection().List(artifacts.KindClaim)...),
				memory.WithFailure(op, errors.New("disk full")),
			)
			doc.Claims = doc.Claims[:1]

			sum, err := newSession(t, st).ImportDocument(context.Background(), doc)
			require.Error(t, err)
			assert.True(t, errors.IsStorageError(err))
			assert.False(t, sum.Success)
			assert.Equal(t, reconcile.StateFailed, sum.State)
			assert.Zero(t, sum.Created)
			assert.Equal(t, 2, st.Collection().Total())
			assert.Equal(t, 0, st.Commits())
		})
	}

	t.Run("list", func(t *testing.T) {
		st := memory.New(memory.WithFailure(memory.OpList, errors.New("locked")))
		sum, err := newSession(t, st).ImportDocument(context.Background(), newDoc(func(*snapshot.Document) {}))
		assert.True(t, errors.IsStorageError(err))
		assert.Equal(t, reconcile.StateFailed, sum.State)
	})
}

func TestParseErrorFailsBeforeMutation(t *testing.T) {
	st := memory.New()
	s := newSession(t, st)

	sum, err := s.Import(context.Background(), strings.NewReader(`{"schemaVersion": "1.0", "claims": [`))
	require.Error(t, err)
	assert.True(t, errors.IsParseError(err))
	assert.False(t, sum.Success)
	assert.Equal(t, reconcile.StateFailed, s.State())
	assert.Equal(t, 0, st.Commits())
}

func TestImportFromReader(t *testing.T) {
	st := memory.New()
	data := `{
  "schemaVersion": "1.0",
  "exportedAt": "2024-06-01T00:00:00Z",
  "app": "argmap",
  "topics": [{"id": "t1", "title": "Energy"}],
  "claims": [{"id": "c1", "text": "Nuclear power is safe", "topics": ["t1"], "claimFingerprint": "ffffffffffffffff"}]
}`
	logger := logging.NewTestLogger(t)
	s := newSession(t, st, reconcile.WithLogger(logger.Logger), reconcile.WithSessionID("session-1"))

	sum, err := s.Import(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "session-1", sum.SessionID)
	assert.Equal(t, 2, sum.Created)

	c1 := get(t, st, artifacts.KindClaim, "c1").(*artifacts.Claim)
	assert.True(t, c1.CreatedAt.Equal(at(300)), "missing timestamps default to load time")

	assert.Equal(t, fingerprint.Of(c1), c1.Fingerprint, "carried fingerprints are recomputed")

	committed, ok := logger.Find("Import committed")
	require.True(t, ok)
	assert.Equal(t, "session-1", committed["session_id"])
	assert.Equal(t, "apply", committed["operation"])

	mismatch, ok := logger.Find("Snapshot fingerprint differs from recomputed one")
	require.True(t, ok)
	assert.Equal(t, "claim", mismatch["kind"])
	assert.Equal(t, "c1", mismatch["snapshot_id"])
	assert.Equal(t, "ffffffffffffffff", mismatch["carried"])
}

func TestCancellation(t *testing.T) {
	st, doc := scenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSession(t, st)
	sum, err := s.ImportDocument(ctx, doc)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
	assert.Equal(t, reconcile.StateFailed, sum.State)
	assert.Equal(t, 0, st.Commits())
}

func TestNewSessionOptions(t *testing.T) {
	_, err := reconcile.NewSession(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = reconcile.NewSession(memory.New(), reconcile.WithThreshold(1.5))
	assert.True(t, errors.IsValidationError(err))

	s, err := reconcile.NewSession(memory.New())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, reconcile.StateIdle, s.State())
	assert.Nil(t, s.Summary())
}
