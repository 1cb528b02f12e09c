// Package snapshot reads and writes the portable snapshot document that
// carries a collection of debate artifacts between devices.
//
// A snapshot is a single JSON (or YAML) object with a schema version, an
// export timestamp, the producing application, and one array per entity
// kind. Records reference each other by the ids they had on the exporting
// device; the reconciliation engine rewrites those ids on import.
package snapshot

import (
	"github.com/agentstation/argmap/pkg/artifacts"
)

// Document is a snapshot of a collection.
type Document struct {
	SchemaVersion string           `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt    string           `json:"exportedAt" yaml:"exportedAt"`
	App           string           `json:"app" yaml:"app"`
	Topics        []TopicRecord    `json:"topics" yaml:"topics"`
	Claims        []ClaimRecord    `json:"claims" yaml:"claims"`
	Rebuttals     []RebuttalRecord `json:"rebuttals" yaml:"rebuttals"`
	Evidences     []EvidenceRecord `json:"evidences" yaml:"evidences"`
	Questions     []QuestionRecord `json:"questions" yaml:"questions"`
	Sources       []SourceRecord   `json:"sources" yaml:"sources"`
	Tags          []TagRecord      `json:"tags" yaml:"tags"`
}

// Len returns the number of records of all kinds.
func (d *Document) Len() int {
	return len(d.Topics) + len(d.Claims) + len(d.Rebuttals) + len(d.Evidences) +
		len(d.Questions) + len(d.Sources) + len(d.Tags)
}

// Counts returns the number of records per kind.
func (d *Document) Counts() map[artifacts.Kind]int {
	return map[artifacts.Kind]int{
		artifacts.KindTopic:    len(d.Topics),
		artifacts.KindClaim:    len(d.Claims),
		artifacts.KindRebuttal: len(d.Rebuttals),
		artifacts.KindEvidence: len(d.Evidences),
		artifacts.KindQuestion: len(d.Questions),
		artifacts.KindSource:   len(d.Sources),
		artifacts.KindTag:      len(d.Tags),
	}
}

// RecordMeta holds the fields common to every record.
type RecordMeta struct {
	ID        string `json:"id" yaml:"id" validate:"notblank"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt,omitempty" validate:"omitempty,timestamp"`
	UpdatedAt string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty" validate:"omitempty,timestamp"`
}

// TopicRecord is a topic as it appears in a snapshot.
type TopicRecord struct {
	RecordMeta `json:",inline" yaml:",inline"`
	Title      string            `json:"title" yaml:"title" validate:"hastext"`
	Summary    string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Posture    artifacts.Posture `json:"posture,omitempty" yaml:"posture,omitempty" validate:"enum"`
	Tags       []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ClaimRecord is a claim as it appears in a snapshot.
type ClaimRecord struct {
	RecordMeta       `json:",inline" yaml:",inline"`
	Text             string             `json:"text" yaml:"text" validate:"hastext"`
	Stance           artifacts.Stance   `json:"stance,omitempty" yaml:"stance,omitempty" validate:"enum"`
	Strength         artifacts.Strength `json:"strength,omitempty" yaml:"strength,omitempty" validate:"enum"`
	Topics           []string           `json:"topics,omitempty" yaml:"topics,omitempty" validate:"dive,notblank"`
	FallacyIDs       []string           `json:"fallacyIds,omitempty" yaml:"fallacyIds,omitempty"`
	ClaimFingerprint string             `json:"claimFingerprint,omitempty" yaml:"claimFingerprint,omitempty"`
}

// RebuttalRecord is a rebuttal as it appears in a snapshot.
type RebuttalRecord struct {
	RecordMeta `json:",inline" yaml:",inline"`
	Text       string   `json:"text" yaml:"text" validate:"hastext"`
	ClaimID    string   `json:"claimId" yaml:"claimId" validate:"notblank"`
	FallacyIDs []string `json:"fallacyIds,omitempty" yaml:"fallacyIds,omitempty"`
}

// EvidenceRecord is a piece of evidence as it appears in a snapshot.
type EvidenceRecord struct {
	RecordMeta `json:",inline" yaml:",inline"`
	Content    string                 `json:"content" yaml:"content" validate:"hastext"`
	ClaimID    string                 `json:"claimId" yaml:"claimId" validate:"notblank"`
	SourceID   string                 `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
	Type       artifacts.EvidenceType `json:"type,omitempty" yaml:"type,omitempty" validate:"enum"`
	Quality    artifacts.Quality      `json:"quality,omitempty" yaml:"quality,omitempty" validate:"enum"`
}

// QuestionRecord is a question as it appears in a snapshot.
type QuestionRecord struct {
	RecordMeta `json:",inline" yaml:",inline"`
	Text       string                 `json:"text" yaml:"text" validate:"hastext"`
	TargetID   string                 `json:"targetId" yaml:"targetId" validate:"notblank"`
	Kind       artifacts.QuestionKind `json:"kind,omitempty" yaml:"kind,omitempty" validate:"enum"`
}

// SourceRecord is a source as it appears in a snapshot.
type SourceRecord struct {
	RecordMeta       `json:",inline" yaml:",inline"`
	Title            string   `json:"title" yaml:"title" validate:"hastext"`
	Citation         string   `json:"citation,omitempty" yaml:"citation,omitempty"`
	URL              string   `json:"url,omitempty" yaml:"url,omitempty"`
	Publisher        string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Date             string   `json:"date,omitempty" yaml:"date,omitempty"`
	Notes            string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	ReliabilityScore *float64 `json:"reliabilityScore,omitempty" yaml:"reliabilityScore,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// TagRecord is a tag as it appears in a snapshot.
type TagRecord struct {
	RecordMeta `json:",inline" yaml:",inline"`
	Label      string `json:"label" yaml:"label" validate:"hastext"`
	Color      string `json:"color,omitempty" yaml:"color,omitempty"`
}
