// Package table converts import results into rows for table output.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/reconcile"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// maxText bounds how much of an entity's text fits in a cell.
const maxText = 60

var countAlignment = []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight}

// KindsToTableData converts the per-kind counts of a summary, in dependency
// order, followed by a totals row. Kinds with no records are left out.
func KindsToTableData(s *reconcile.Summary) Data {
	headers := []string{"Kind", "Total", "Created", "Updated", "Duplicates", "Near", "Confirmed", "Rejected", "Errors"}

	var rows [][]string
	var total reconcile.KindStats
	for _, kind := range artifacts.Kinds() {
		st := s.Stats(kind)
		if st.Total == 0 {
			continue
		}
		rows = append(rows, statsRow(kind.String(), st))
		total.Total += st.Total
		total.Created += st.Created
		total.Updated += st.Updated
		total.Duplicates += st.Duplicates
		total.NearDuplicates += st.NearDuplicates
		total.Confirmed += st.Confirmed
		total.Rejected += st.Rejected
		total.Errors += st.Errors
	}
	rows = append(rows, statsRow("TOTAL", total))

	return Data{Headers: headers, Rows: rows, ColumnAlignment: countAlignment}
}

func statsRow(label string, st reconcile.KindStats) []string {
	return []string{
		label,
		strconv.Itoa(st.Total),
		strconv.Itoa(st.Created),
		strconv.Itoa(st.Updated),
		strconv.Itoa(st.Duplicates),
		strconv.Itoa(st.NearDuplicates),
		strconv.Itoa(st.Confirmed),
		strconv.Itoa(st.Rejected),
		strconv.Itoa(st.Errors),
	}
}

// ReviewToTableData converts review items. offset numbers the first row so
// pages keep a stable numbering.
func ReviewToTableData(items []reconcile.ReviewItem, offset int) Data {
	headers := []string{"#", "Kind", "Snapshot ID", "Reason", "Score", "Text", "Match"}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		score := "-"
		if item.NeedsDecision() {
			score = fmt.Sprintf("%.2f", item.Score)
		}
		match := item.Message
		if item.MatchID != "" {
			match = fmt.Sprintf("%s: %s", item.MatchID, Truncate(item.MatchText, maxText))
		}
		rows = append(rows, []string{
			strconv.Itoa(offset + i + 1),
			item.Kind.String(),
			item.SnapshotID,
			string(item.Reason),
			score,
			Truncate(item.Text, maxText),
			match,
		})
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}

// RecordsToTableData converts the per-record outcomes of a session.
func RecordsToTableData(records []reconcile.RecordOutcome) Data {
	headers := []string{"Kind", "Snapshot ID", "Local ID", "Outcome", "Decision", "Match", "Filled", "Message"}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Kind.String(),
			r.SnapshotID,
			orDash(r.LocalID),
			string(r.Classification),
			orDash(string(r.Decision)),
			orDash(r.MatchID),
			orDash(strings.Join(r.Filled, ",")),
			orDash(r.Message),
		})
	}
	return Data{Headers: headers, Rows: rows}
}

// ErrorsToTableData lists the error messages of a summary.
func ErrorsToTableData(messages []string) Data {
	rows := make([][]string, 0, len(messages))
	for i, msg := range messages {
		rows = append(rows, []string{strconv.Itoa(i + 1), msg})
	}
	return Data{
		Headers:         []string{"#", "Error"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft},
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
