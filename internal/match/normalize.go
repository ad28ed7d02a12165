// Package match implements the cascading text matcher that locates the
// destination unit a correction targets. Strategies run in strict precedence
// order: exact, then similarity, then keyword. Exact matches are unambiguous
// and must win to avoid false positives from the fuzzy strategies.
package match

import (
	"strings"
	"unicode"
)

// Normalize prepares text for comparison: case-fold, collapse whitespace,
// strip punctuation noise. Both match candidates and destination units go
// through the same normalization.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true // Trim leading space
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// Punctuation separates tokens rather than vanishing entirely,
			// so "14/03/2026" and "14 03 2026" normalize the same way.
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokens returns the normalized token set of s.
func Tokens(s string) map[string]struct{} {
	fields := strings.Fields(Normalize(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard computes the token-set similarity ratio of two strings:
// |intersection| / |union| over normalized tokens. Returns 0 when either
// side has no tokens.
func Jaccard(a, b string) float64 {
	ta := Tokens(a)
	tb := Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
