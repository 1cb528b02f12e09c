package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/argmap/pkg/artifacts"
)

// Classification is the outcome of resolving one incoming record.
type Classification string

// Record classifications.
const (
	New           Classification = "new"
	Duplicate     Classification = "duplicate"
	NearDuplicate Classification = "near_duplicate"
	Conflict      Classification = "conflict"
	// Invalid marks a record skipped for a validation or reference error.
	Invalid Classification = "invalid"
)

// Action is a review decision on a near-duplicate.
type Action string

// Review actions.
const (
	// Confirm merges the record into its match.
	Confirm Action = "confirm"
	// Reject imports the record as new.
	Reject Action = "reject"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == Confirm || a == Reject
}

// Decision settles one near-duplicate review item.
type Decision struct {
	Kind       artifacts.Kind `json:"kind" yaml:"kind"`
	SnapshotID string         `json:"snapshotId" yaml:"snapshotId"`
	Action     Action         `json:"action" yaml:"action"`
}

// ReviewItem is a record that needs a human look: a near-duplicate waiting
// for a decision, or a conflict that was skipped.
type ReviewItem struct {
	Kind          artifacts.Kind `json:"kind"`
	SnapshotID    string         `json:"snapshotId"`
	Reason        Classification `json:"reason"`
	Text          string         `json:"text"`
	MatchID       string         `json:"matchId,omitempty"`
	MatchText     string         `json:"matchText,omitempty"`
	Score         float64        `json:"score,omitempty"`
	ProvisionalID string         `json:"provisionalId,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// NeedsDecision reports whether the item must be confirmed or rejected
// before the import can commit.
func (i ReviewItem) NeedsDecision() bool {
	return i.Reason == NearDuplicate
}

// Decide returns a Decision for the item.
func (i ReviewItem) Decide(action Action) Decision {
	return Decision{Kind: i.Kind, SnapshotID: i.SnapshotID, Action: action}
}

// KindStats counts the outcomes of one kind.
type KindStats struct {
	Total          int `json:"total"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Duplicates     int `json:"duplicates"`
	NearDuplicates int `json:"nearDuplicates"`
	Confirmed      int `json:"confirmed"`
	Rejected       int `json:"rejected"`
	Errors         int `json:"errors"`
}

// RecordOutcome is the audit entry of one incoming record.
type RecordOutcome struct {
	Kind           artifacts.Kind `json:"kind"`
	SnapshotID     string         `json:"snapshotId"`
	LocalID        string         `json:"localId,omitempty"`
	Classification Classification `json:"classification"`
	Decision       Action         `json:"decision,omitempty"`
	MatchID        string         `json:"matchId,omitempty"`
	Score          float64        `json:"score,omitempty"`
	Filled         []string       `json:"filled,omitempty"`
	Message        string         `json:"message,omitempty"`
}

// Summary reports the state and counts of an import session. Counts are
// what the session has resolved so far; they are persisted only once the
// state is StateCommitted.
type Summary struct {
	Success        bool                          `json:"success"`
	State          State                         `json:"state"`
	SessionID      string                        `json:"sessionId"`
	TotalItems     int                           `json:"totalItems"`
	Created        int                           `json:"created"`
	Updated        int                           `json:"updated"`
	Duplicates     int                           `json:"duplicates"`
	NearDuplicates int                           `json:"nearDuplicates"`
	Errors         int                           `json:"errors"`
	ErrorMessages  []string                      `json:"errorMessages"`
	ItemsForReview []ReviewItem                  `json:"itemsForReview"`
	Kinds          map[artifacts.Kind]*KindStats `json:"kinds"`
	Records        []RecordOutcome               `json:"records,omitempty"`
	StartedAt      time.Time                     `json:"startedAt"`
	FinishedAt     time.Time                     `json:"finishedAt,omitzero"`

	// Failures holds the errors behind ErrorMessages for errors.Is checks.
	Failures []error `json:"-"`
}

// NeedsReview reports whether near-duplicates await a decision.
func (s *Summary) NeedsReview() bool {
	return s.State == StateAwaitingReview
}

// Pending returns the review items that need a decision.
func (s *Summary) Pending() []ReviewItem {
	var pending []ReviewItem
	for _, item := range s.ItemsForReview {
		if item.NeedsDecision() {
			pending = append(pending, item)
		}
	}
	return pending
}

// HasErrors returns true if any record was skipped or the session failed
func (s *Summary) HasErrors() bool {
	return len(s.ErrorMessages) > 0
}

// Stats returns the counts of kind, never nil.
func (s *Summary) Stats(kind artifacts.Kind) KindStats {
	if st, ok := s.Kinds[kind]; ok && st != nil {
		return *st
	}
	return KindStats{}
}

// String returns a human-readable one line summary
func (s *Summary) String() string {
	switch {
	case s.State == StateFailed:
		return fmt.Sprintf("Import failed with %d errors", len(s.ErrorMessages))
	case s.NeedsReview():
		return fmt.Sprintf("Import awaiting review of %d near-duplicates. %s", s.NearDuplicates, s.counts())
	case s.State == StateCommitted:
		return fmt.Sprintf("Import committed. %s", s.counts())
	default:
		return fmt.Sprintf("Import %s. %s", s.State, s.counts())
	}
}

func (s *Summary) counts() string {
	return fmt.Sprintf("%d items: %d created, %d updated, %d duplicates, %d near-duplicates, %d errors",
		s.TotalItems, s.Created, s.Updated, s.Duplicates, s.NearDuplicates, s.Errors)
}

// Report generates a detailed multi-line report of the session
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Import Report\n=============\nSession: %s\nState: %s\n", s.SessionID, s.State)
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", s.FinishedAt.Sub(s.StartedAt))
	}
	fmt.Fprintf(&b, "\n%s\n", s.counts())

	for _, kind := range artifacts.Kinds() {
		st := s.Stats(kind)
		if st.Total == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-9s total=%d created=%d updated=%d duplicates=%d near=%d confirmed=%d rejected=%d errors=%d\n",
			kind, st.Total, st.Created, st.Updated, st.Duplicates, st.NearDuplicates, st.Confirmed, st.Rejected, st.Errors)
	}

	if len(s.ItemsForReview) > 0 {
		fmt.Fprintf(&b, "\nReview (%d):\n", len(s.ItemsForReview))
		for i, item := range s.ItemsForReview {
			if item.NeedsDecision() {
				fmt.Fprintf(&b, "%d. %s %s ~ %s (%.2f)\n", i+1, item.Kind, item.SnapshotID, item.MatchID, item.Score)
			} else {
				fmt.Fprintf(&b, "%d. %s %s: %s\n", i+1, item.Kind, item.SnapshotID, item.Message)
			}
		}
	}

	if len(s.ErrorMessages) > 0 {
		fmt.Fprintf(&b, "\nErrors (%d):\n", len(s.ErrorMessages))
		for i, msg := range s.ErrorMessages {
			fmt.Fprintf(&b, "%d. %s\n", i+1, msg)
		}
	}
	return b.String()
}

// summaryBuilder assembles a Summary.
type summaryBuilder struct {
	summary *Summary
}

func newSummaryBuilder(sessionID string, startedAt time.Time) *summaryBuilder {
	kinds := make(map[artifacts.Kind]*KindStats, len(artifacts.Kinds()))
	for _, kind := range artifacts.Kinds() {
		kinds[kind] = &KindStats{}
	}
	return &summaryBuilder{
		summary: &Summary{
			SessionID:      sessionID,
			ErrorMessages:  []string{},
			ItemsForReview: []ReviewItem{},
			Kinds:          kinds,
			StartedAt:      startedAt,
		},
	}
}

// WithResolution copies counts, review items and outcomes.
func (b *summaryBuilder) WithResolution(res *Resolution) *summaryBuilder {
	if res == nil {
		return b
	}
	s := b.summary
	s.TotalItems = res.Total
	for kind, st := range res.Kinds {
		cp := *st
		s.Kinds[kind] = &cp
		s.Created += st.Created
		s.Updated += st.Updated
		s.Duplicates += st.Duplicates
		s.NearDuplicates += st.NearDuplicates
		s.Errors += st.Errors
	}
	s.ItemsForReview = append(s.ItemsForReview, res.Review...)
	s.Records = append(s.Records, res.Records...)
	for _, err := range res.Errors {
		b.WithError(err)
	}
	return b
}

// WithError adds an error message.
func (b *summaryBuilder) WithError(err error) *summaryBuilder {
	if err != nil {
		b.summary.Failures = append(b.summary.Failures, err)
		b.summary.ErrorMessages = append(b.summary.ErrorMessages, err.Error())
	}
	return b
}

// WithTotal sets the number of records when no resolution ran.
func (b *summaryBuilder) WithTotal(n int) *summaryBuilder {
	b.summary.TotalItems = n
	return b
}

// Build finalizes the summary for state.
func (b *summaryBuilder) Build(state State, at time.Time) *Summary {
	s := b.summary
	s.State = state
	s.Success = state != StateFailed
	if state.Terminal() {
		s.FinishedAt = at
	}
	return s
}
