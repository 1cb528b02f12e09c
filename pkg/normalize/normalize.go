// Package normalize canonicalizes free text before it is fingerprinted or
// compared, so that "Café" and "CAFE" are the same key.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String returns the canonical form of s: canonically decomposed with
// non-spacing marks removed, lowercased, reduced to letters, digits and
// whitespace, with whitespace runs collapsed to one space and trimmed.
//
// String is total and idempotent.
func String(s string) string {
	if s == "" {
		return ""
	}

	// Transformers carry state, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return String(a) == String(b)
}
