// Package similarity scores how alike two pieces of text are using the
// Levenshtein edit distance over Unicode code points.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/agentstation/argmap/pkg/normalize"
)

// Distance returns the minimum number of single code point insertions,
// deletions and substitutions turning a into b. Inputs are not normalized.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Ratio returns the similarity of a and b in [0, 1], computed on their
// normalized forms as 1 - distance / max(length). Two empty strings are
// identical.
func Ratio(a, b string) float64 {
	return RatioNormalized(normalize.String(a), normalize.String(b))
}

// RatioNormalized is Ratio for inputs that are already normalized.
func RatioNormalized(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// AreSimilar reports whether Ratio(a, b) reaches threshold.
func AreSimilar(a, b string, threshold float64) bool {
	return Ratio(a, b) >= threshold
}

// UpperBound returns the highest ratio two strings of the given code point
// lengths can reach. The distance is at least the length difference.
func UpperBound(lenA, lenB int) float64 {
	longest := max(lenA, lenB)
	if longest == 0 {
		return 1
	}
	diff := lenA - lenB
	if diff < 0 {
		diff = -diff
	}
	return 1 - float64(diff)/float64(longest)
}
