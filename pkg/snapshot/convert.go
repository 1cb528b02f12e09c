package snapshot

import (
	"slices"
	"strings"
	"time"

	"github.com/agentstation/argmap/internal/utils/ptr"
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/fingerprint"
)

// Entry is one snapshot record converted to an entity. Err is set instead
// of Entity when the record failed validation.
type Entry struct {
	Kind       artifacts.Kind
	SnapshotID string
	Entity     artifacts.Entity
	// Fingerprint is the claimFingerprint carried by the record, if any.
	Fingerprint string
	Err         error
}

// Entries validates and converts every record, kinds in dependency order
// and records in snapshot order. Records without timestamps are stamped
// with now. The document itself is left as it is.
func (d *Document) Entries(now time.Time) []Entry {
	entries := make([]Entry, 0, d.Len())
	for _, kind := range artifacts.Kinds() {
		switch kind {
		case artifacts.KindTopic:
			entries = appendEntries(entries, kind, d.Topics, now, topicEntity)
		case artifacts.KindSource:
			entries = appendEntries(entries, kind, d.Sources, now, sourceEntity)
		case artifacts.KindTag:
			entries = appendEntries(entries, kind, d.Tags, now, tagEntity)
		case artifacts.KindClaim:
			entries = appendEntries(entries, kind, d.Claims, now, claimEntity)
		case artifacts.KindRebuttal:
			entries = appendEntries(entries, kind, d.Rebuttals, now, rebuttalEntity)
		case artifacts.KindEvidence:
			entries = appendEntries(entries, kind, d.Evidences, now, evidenceEntity)
		case artifacts.KindQuestion:
			entries = appendEntries(entries, kind, d.Questions, now, questionEntity)
		}
	}
	return entries
}

// record is implemented by every record type through canonicalization.
type record interface {
	meta() *RecordMeta
	canonicalize()
}

func appendEntries[R any, P interface {
	*R
	record
}](entries []Entry, kind artifacts.Kind, records []R, now time.Time, convert func(P, artifacts.Meta) (artifacts.Entity, string)) []Entry {
	for i := range records {
		cp := records[i]
		rec := P(&cp)
		rec.canonicalize()
		m := rec.meta()
		entry := Entry{Kind: kind, SnapshotID: m.ID}
		if err := validateRecord(kind.String(), m.ID, rec); err != nil {
			entry.Err = err
			entries = append(entries, entry)
			continue
		}
		entry.Entity, entry.Fingerprint = convert(rec, entityMeta(m, now))
		entries = append(entries, entry)
	}
	return entries
}

func entityMeta(m *RecordMeta, now time.Time) artifacts.Meta {
	created, err := parseTime(m.CreatedAt)
	if err != nil {
		created = now
	}
	updated, err := parseTime(m.UpdatedAt)
	if err != nil {
		updated = created
	}
	return artifacts.Meta{ID: m.ID, CreatedAt: created, UpdatedAt: updated}
}

func (m *RecordMeta) meta() *RecordMeta { return m }

func (m *RecordMeta) trim() {
	m.ID = strings.TrimSpace(m.ID)
	m.CreatedAt = strings.TrimSpace(m.CreatedAt)
	m.UpdatedAt = strings.TrimSpace(m.UpdatedAt)
}

// enum lowercases v and substitutes def when it is empty.
func enum[T ~string](v T, def T) T {
	s := strings.ToLower(strings.TrimSpace(string(v)))
	if s == "" {
		return def
	}
	return T(s)
}

func trimAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r *TopicRecord) canonicalize() {
	r.trim()
	r.Title = strings.TrimSpace(r.Title)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Posture = enum(r.Posture, artifacts.PostureUndecided)
	r.Tags = trimAll(r.Tags)
}

func (r *ClaimRecord) canonicalize() {
	r.trim()
	r.Text = strings.TrimSpace(r.Text)
	r.Stance = enum(r.Stance, artifacts.StanceNeutral)
	r.Strength = enum(r.Strength, artifacts.StrengthMedium)
	if r.Topics != nil {
		topics := make([]string, len(r.Topics))
		for i, id := range r.Topics {
			topics[i] = strings.TrimSpace(id)
		}
		r.Topics = topics
	}
	r.FallacyIDs = trimAll(r.FallacyIDs)
	r.ClaimFingerprint = strings.ToLower(strings.TrimSpace(r.ClaimFingerprint))
}

func (r *RebuttalRecord) canonicalize() {
	r.trim()
	r.Text = strings.TrimSpace(r.Text)
	r.ClaimID = strings.TrimSpace(r.ClaimID)
	r.FallacyIDs = trimAll(r.FallacyIDs)
}

func (r *EvidenceRecord) canonicalize() {
	r.trim()
	r.Content = strings.TrimSpace(r.Content)
	r.ClaimID = strings.TrimSpace(r.ClaimID)
	r.SourceID = strings.TrimSpace(r.SourceID)
	r.Type = enum(r.Type, artifacts.EvidenceOther)
	r.Quality = enum(r.Quality, artifacts.QualityMedium)
}

func (r *QuestionRecord) canonicalize() {
	r.trim()
	r.Text = strings.TrimSpace(r.Text)
	r.TargetID = strings.TrimSpace(r.TargetID)
	r.Kind = enum(r.Kind, artifacts.QuestionOther)
}

func (r *SourceRecord) canonicalize() {
	r.trim()
	r.Title = strings.TrimSpace(r.Title)
	r.Citation = strings.TrimSpace(r.Citation)
	r.URL = strings.TrimSpace(r.URL)
	r.Publisher = strings.TrimSpace(r.Publisher)
	r.Date = strings.TrimSpace(r.Date)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *TagRecord) canonicalize() {
	r.trim()
	r.Label = strings.TrimSpace(r.Label)
	r.Color = strings.TrimSpace(r.Color)
}

func topicEntity(r *TopicRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Topic{Meta: m, Title: r.Title, Summary: r.Summary, Posture: r.Posture, Tags: slices.Clone(r.Tags)}, ""
}

func claimEntity(r *ClaimRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Claim{
		Meta:       m,
		Text:       r.Text,
		Stance:     r.Stance,
		Strength:   r.Strength,
		Topics:     slices.Clone(r.Topics),
		FallacyIDs: slices.Clone(r.FallacyIDs),
	}, r.ClaimFingerprint
}

func rebuttalEntity(r *RebuttalRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Rebuttal{Meta: m, Text: r.Text, ClaimID: r.ClaimID, FallacyIDs: slices.Clone(r.FallacyIDs)}, ""
}

func evidenceEntity(r *EvidenceRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Evidence{Meta: m, Content: r.Content, ClaimID: r.ClaimID, SourceID: r.SourceID, Type: r.Type, Quality: r.Quality}, ""
}

func questionEntity(r *QuestionRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Question{Meta: m, Text: r.Text, TargetID: r.TargetID, Kind: r.Kind}, ""
}

func sourceEntity(r *SourceRecord, m artifacts.Meta) (artifacts.Entity, string) {
	s := &artifacts.Source{
		Meta:      m,
		Title:     r.Title,
		Citation:  r.Citation,
		URL:       r.URL,
		Publisher: r.Publisher,
		Date:      r.Date,
		Notes:     r.Notes,

		ReliabilityScore: ptr.Clone(r.ReliabilityScore),
	}
	return s, ""
}

func tagEntity(r *TagRecord, m artifacts.Meta) (artifacts.Entity, string) {
	return &artifacts.Tag{Meta: m, Label: r.Label, Color: r.Color}, ""
}

// Add appends e to the document as a record of its kind.
func (d *Document) Add(e artifacts.Entity) {
	m := RecordMeta{
		ID:        e.EntityID(),
		CreatedAt: formatTime(e.Created()),
		UpdatedAt: formatTime(e.Updated()),
	}
	switch v := e.(type) {
	case *artifacts.Topic:
		d.Topics = append(d.Topics, TopicRecord{RecordMeta: m, Title: v.Title, Summary: v.Summary, Posture: v.Posture, Tags: slices.Clone(v.Tags)})
	case *artifacts.Claim:
		d.Claims = append(d.Claims, ClaimRecord{
			RecordMeta:       m,
			Text:             v.Text,
			Stance:           v.Stance,
			Strength:         v.Strength,
			Topics:           slices.Clone(v.Topics),
			FallacyIDs:       slices.Clone(v.FallacyIDs),
			ClaimFingerprint: claimFingerprint(v),
		})
	case *artifacts.Rebuttal:
		d.Rebuttals = append(d.Rebuttals, RebuttalRecord{RecordMeta: m, Text: v.Text, ClaimID: v.ClaimID, FallacyIDs: slices.Clone(v.FallacyIDs)})
	case *artifacts.Evidence:
		d.Evidences = append(d.Evidences, EvidenceRecord{RecordMeta: m, Content: v.Content, ClaimID: v.ClaimID, SourceID: v.SourceID, Type: v.Type, Quality: v.Quality})
	case *artifacts.Question:
		d.Questions = append(d.Questions, QuestionRecord{RecordMeta: m, Text: v.Text, TargetID: v.TargetID, Kind: v.Kind})
	case *artifacts.Source:
		d.Sources = append(d.Sources, SourceRecord{
			RecordMeta:       m,
			Title:            v.Title,
			Citation:         v.Citation,
			URL:              v.URL,
			Publisher:        v.Publisher,
			Date:             v.Date,
			Notes:            v.Notes,
			ReliabilityScore: ptr.Clone(v.ReliabilityScore),
		})
	case *artifacts.Tag:
		d.Tags = append(d.Tags, TagRecord{RecordMeta: m, Label: v.Label, Color: v.Color})
	}
}

// claimFingerprint prefers the fingerprint stored with the claim.
func claimFingerprint(c *artifacts.Claim) string {
	if c.Fingerprint != "" {
		return c.Fingerprint
	}
	return fingerprint.Of(c)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
