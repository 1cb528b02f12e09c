package artifacts

import "slices"

// Posture is the author's overall position on a topic.
type Posture string

// Postures.
const (
	PostureUndecided Posture = "undecided"
	PostureNeutral   Posture = "neutral"
	PostureFor       Posture = "for"
	PostureAgainst   Posture = "against"
)

// Valid reports whether p is a known posture.
func (p Posture) Valid() bool {
	return slices.Contains([]Posture{PostureUndecided, PostureNeutral, PostureFor, PostureAgainst}, p)
}

// Stance is the direction a claim argues.
type Stance string

// Stances.
const (
	StancePro     Stance = "pro"
	StanceCon     Stance = "con"
	StanceNeutral Stance = "neutral"
)

// Valid reports whether s is a known stance.
func (s Stance) Valid() bool {
	return slices.Contains([]Stance{StancePro, StanceCon, StanceNeutral}, s)
}

// Strength is how strongly a claim is held.
type Strength string

// Strengths.
const (
	StrengthLow    Strength = "low"
	StrengthMedium Strength = "medium"
	StrengthHigh   Strength = "high"
)

// Valid reports whether s is a known strength.
func (s Strength) Valid() bool {
	return slices.Contains([]Strength{StrengthLow, StrengthMedium, StrengthHigh}, s)
}

// EvidenceType classifies a piece of evidence.
type EvidenceType string

// Evidence types.
const (
	EvidenceStudy     EvidenceType = "study"
	EvidenceStatistic EvidenceType = "statistic"
	EvidenceExpert    EvidenceType = "expert"
	EvidenceAnecdote  EvidenceType = "anecdote"
	EvidenceQuote     EvidenceType = "quote"
	EvidenceOther     EvidenceType = "other"
)

// Valid reports whether t is a known evidence type.
func (t EvidenceType) Valid() bool {
	return slices.Contains([]EvidenceType{
		EvidenceStudy, EvidenceStatistic, EvidenceExpert,
		EvidenceAnecdote, EvidenceQuote, EvidenceOther,
	}, t)
}

// Quality rates a piece of evidence.
type Quality string

// Qualities.
const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Valid reports whether q is a known quality.
func (q Quality) Valid() bool {
	return slices.Contains([]Quality{QualityLow, QualityMedium, QualityHigh}, q)
}

// QuestionKind classifies an open question.
type QuestionKind string

// Question kinds.
const (
	QuestionClarifying  QuestionKind = "clarifying"
	QuestionChallenge   QuestionKind = "challenge"
	QuestionExploratory QuestionKind = "exploratory"
	QuestionOther       QuestionKind = "other"
)

// Valid reports whether k is a known question kind.
func (k QuestionKind) Valid() bool {
	return slices.Contains([]QuestionKind{QuestionClarifying, QuestionChallenge, QuestionExploratory, QuestionOther}, k)
}
