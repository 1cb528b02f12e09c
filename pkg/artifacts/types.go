package artifacts

import (
	"slices"

	"github.com/agentstation/argmap/internal/utils/ptr"
)

// Topic is a subject under debate.
type Topic struct {
	Meta
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Posture Posture  `json:"posture"`
	Tags    []string `json:"tags,omitempty"`
}

// EntityKind implements Entity.
func (t *Topic) EntityKind() Kind { return KindTopic }

// PrimaryText implements Entity.
func (t *Topic) PrimaryText() string { return t.Title }

// References implements Entity. Topics hold no foreign keys.
func (t *Topic) References() []Reference { return nil }

// Remap implements Entity.
func (t *Topic) Remap(RemapFunc) error { return nil }

// Backfill implements Entity.
func (t *Topic) Backfill(from Entity) []string {
	src, ok := from.(*Topic)
	if !ok {
		return nil
	}
	var filled []string
	if t.Summary == "" && src.Summary != "" {
		t.Summary = src.Summary
		filled = append(filled, "summary")
	}
	if len(t.Tags) == 0 && len(src.Tags) > 0 {
		t.Tags = slices.Clone(src.Tags)
		filled = append(filled, "tags")
	}
	return filled
}

// Clone implements Entity.
func (t *Topic) Clone() Entity {
	c := *t
	c.Tags = slices.Clone(t.Tags)
	return &c
}

// Claim is an assertion about one or more topics.
type Claim struct {
	Meta
	Text        string   `json:"text"`
	Stance      Stance   `json:"stance"`
	Strength    Strength `json:"strength"`
	Topics      []string `json:"topics,omitempty"`
	FallacyIDs  []string `json:"fallacyIds,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// EntityKind implements Entity.
func (c *Claim) EntityKind() Kind { return KindClaim }

// PrimaryText implements Entity.
func (c *Claim) PrimaryText() string { return c.Text }

// References implements Entity.
func (c *Claim) References() []Reference {
	return listRefs("topics", c.Topics, KindTopic)
}

// Remap implements Entity.
func (c *Claim) Remap(fn RemapFunc) error {
	topics, err := remapList(fn, "topics", c.Topics, KindTopic)
	if err != nil {
		return err
	}
	c.Topics = topics
	return nil
}

// Backfill implements Entity.
func (c *Claim) Backfill(from Entity) []string {
	src, ok := from.(*Claim)
	if !ok {
		return nil
	}
	var filled []string
	if len(c.Topics) == 0 && len(src.Topics) > 0 {
		c.Topics = slices.Clone(src.Topics)
		filled = append(filled, "topics")
	}
	if len(c.FallacyIDs) == 0 && len(src.FallacyIDs) > 0 {
		c.FallacyIDs = slices.Clone(src.FallacyIDs)
		filled = append(filled, "fallacyIds")
	}
	return filled
}

// Clone implements Entity.
func (c *Claim) Clone() Entity {
	cp := *c
	cp.Topics = slices.Clone(c.Topics)
	cp.FallacyIDs = slices.Clone(c.FallacyIDs)
	return &cp
}

// Rebuttal answers a claim.
type Rebuttal struct {
	Meta
	Text       string   `json:"text"`
	ClaimID    string   `json:"claimId"`
	FallacyIDs []string `json:"fallacyIds,omitempty"`
}

// EntityKind implements Entity.
func (r *Rebuttal) EntityKind() Kind { return KindRebuttal }

// PrimaryText implements Entity.
func (r *Rebuttal) PrimaryText() string { return r.Text }

// References implements Entity.
func (r *Rebuttal) References() []Reference {
	return []Reference{{Field: "claimId", Targets: []Kind{KindClaim}, ID: r.ClaimID}}
}

// Remap implements Entity.
func (r *Rebuttal) Remap(fn RemapFunc) error {
	claimID, err := remapOne(fn, "claimId", r.ClaimID, KindClaim)
	if err != nil {
		return err
	}
	r.ClaimID = claimID
	return nil
}

// Backfill implements Entity.
func (r *Rebuttal) Backfill(from Entity) []string {
	src, ok := from.(*Rebuttal)
	if !ok {
		return nil
	}
	if len(r.FallacyIDs) == 0 && len(src.FallacyIDs) > 0 {
		r.FallacyIDs = slices.Clone(src.FallacyIDs)
		return []string{"fallacyIds"}
	}
	return nil
}

// Clone implements Entity.
func (r *Rebuttal) Clone() Entity {
	cp := *r
	cp.FallacyIDs = slices.Clone(r.FallacyIDs)
	return &cp
}

// Evidence supports a claim, optionally citing a source.
type Evidence struct {
	Meta
	Content  string       `json:"content"`
	ClaimID  string       `json:"claimId"`
	SourceID string       `json:"sourceId,omitempty"`
	Type     EvidenceType `json:"type"`
	Quality  Quality      `json:"quality"`
}

// EntityKind implements Entity.
func (e *Evidence) EntityKind() Kind { return KindEvidence }

// PrimaryText implements Entity.
func (e *Evidence) PrimaryText() string { return e.Content }

// References implements Entity.
func (e *Evidence) References() []Reference {
	refs := []Reference{{Field: "claimId", Targets: []Kind{KindClaim}, ID: e.ClaimID}}
	if e.SourceID != "" {
		refs = append(refs, Reference{Field: "sourceId", Targets: []Kind{KindSource}, ID: e.SourceID})
	}
	return refs
}

// Remap implements Entity.
func (e *Evidence) Remap(fn RemapFunc) error {
	claimID, err := remapOne(fn, "claimId", e.ClaimID, KindClaim)
	if err != nil {
		return err
	}
	sourceID := e.SourceID
	if sourceID != "" {
		if sourceID, err = remapOne(fn, "sourceId", sourceID, KindSource); err != nil {
			return err
		}
	}
	e.ClaimID, e.SourceID = claimID, sourceID
	return nil
}

// Backfill implements Entity.
func (e *Evidence) Backfill(from Entity) []string {
	src, ok := from.(*Evidence)
	if !ok {
		return nil
	}
	if e.SourceID == "" && src.SourceID != "" {
		e.SourceID = src.SourceID
		return []string{"sourceId"}
	}
	return nil
}

// Clone implements Entity.
func (e *Evidence) Clone() Entity {
	cp := *e
	return &cp
}

// Question is an open question about a topic or a claim.
type Question struct {
	Meta
	Text     string       `json:"text"`
	TargetID string       `json:"targetId"`
	Kind     QuestionKind `json:"kind"`
}

// EntityKind implements Entity.
func (q *Question) EntityKind() Kind { return KindQuestion }

// PrimaryText implements Entity.
func (q *Question) PrimaryText() string { return q.Text }

// References implements Entity. A target is looked up as a topic first.
func (q *Question) References() []Reference {
	return []Reference{{Field: "targetId", Targets: []Kind{KindTopic, KindClaim}, ID: q.TargetID}}
}

// Remap implements Entity.
func (q *Question) Remap(fn RemapFunc) error {
	target, err := remapOne(fn, "targetId", q.TargetID, KindTopic, KindClaim)
	if err != nil {
		return err
	}
	q.TargetID = target
	return nil
}

// Backfill implements Entity. Questions have no optional fields.
func (q *Question) Backfill(Entity) []string { return nil }

// Clone implements Entity.
func (q *Question) Clone() Entity {
	cp := *q
	return &cp
}

// Source is a publication evidence can cite.
type Source struct {
	Meta
	Title            string   `json:"title"`
	Citation         string   `json:"citation,omitempty"`
	URL              string   `json:"url,omitempty"`
	Publisher        string   `json:"publisher,omitempty"`
	Date             string   `json:"date,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	ReliabilityScore *float64 `json:"reliabilityScore,omitempty"`
}

// EntityKind implements Entity.
func (s *Source) EntityKind() Kind { return KindSource }

// PrimaryText implements Entity.
func (s *Source) PrimaryText() string { return s.Title }

// References implements Entity. Sources hold no foreign keys.
func (s *Source) References() []Reference { return nil }

// Remap implements Entity.
func (s *Source) Remap(RemapFunc) error { return nil }

// Backfill implements Entity.
func (s *Source) Backfill(from Entity) []string {
	src, ok := from.(*Source)
	if !ok {
		return nil
	}
	var filled []string
	fill := func(name string, dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			filled = append(filled, name)
		}
	}
	fill("citation", &s.Citation, src.Citation)
	fill("url", &s.URL, src.URL)
	fill("publisher", &s.Publisher, src.Publisher)
	fill("date", &s.Date, src.Date)
	fill("notes", &s.Notes, src.Notes)
	if s.ReliabilityScore == nil && src.ReliabilityScore != nil {
		s.ReliabilityScore = ptr.Clone(src.ReliabilityScore)
		filled = append(filled, "reliabilityScore")
	}
	return filled
}

// Clone implements Entity.
func (s *Source) Clone() Entity {
	cp := *s
	cp.ReliabilityScore = ptr.Clone(s.ReliabilityScore)
	return &cp
}

// Tag is a label that can be attached to topics.
type Tag struct {
	Meta
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// EntityKind implements Entity.
func (t *Tag) EntityKind() Kind { return KindTag }

// PrimaryText implements Entity.
func (t *Tag) PrimaryText() string { return t.Label }

// References implements Entity. Tags hold no foreign keys.
func (t *Tag) References() []Reference { return nil }

// Remap implements Entity.
func (t *Tag) Remap(RemapFunc) error { return nil }

// Backfill implements Entity.
func (t *Tag) Backfill(from Entity) []string {
	src, ok := from.(*Tag)
	if !ok {
		return nil
	}
	if t.Color == "" && src.Color != "" {
		t.Color = src.Color
		return []string{"color"}
	}
	return nil
}

// Clone implements Entity.
func (t *Tag) Clone() Entity {
	cp := *t
	return &cp
}
