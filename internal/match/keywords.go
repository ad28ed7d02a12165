package match

import (
	"strings"
	"unicode"
)

// defaultDomainKeywords are tokens that anchor degraded extractions to the
// right destination unit even when most of the text was misread. They cover
// the financial-review vocabulary the source documents use.
var defaultDomainKeywords = []string{
	"fee", "fees", "total", "amount", "balance", "premium",
	"date", "review", "pension", "isa", "fund", "portfolio",
	"income", "charge", "valuation",
}

// SalientTokens extracts the tokens used by the keyword strategy: numbers,
// capitalized words (proper nouns as written, before normalization), and any
// configured domain keywords present in the text.
func SalientTokens(s string, domainKeywords []string) []string {
	if len(domainKeywords) == 0 {
		domainKeywords = defaultDomainKeywords
	}
	domain := make(map[string]struct{}, len(domainKeywords))
	for _, k := range domainKeywords {
		domain[strings.ToLower(k)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		if tok == "" {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, raw := range strings.Fields(s) {
		trimmed := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(trimmed)
		switch {
		case hasDigit(trimmed):
			add(lower)
		case unicode.IsUpper([]rune(trimmed)[0]) && len(trimmed) > 1:
			add(lower)
		default:
			if _, ok := domain[lower]; ok {
				add(lower)
			}
		}
	}

	return out
}

// keywordOverlap counts how many of the salient tokens appear in the
// normalized unit text. Tokens are normalized before the lookup so numbers
// with interior punctuation ("12,500") still line up with the unit.
func keywordOverlap(unitText string, tokens []string) int {
	normUnit := " " + Normalize(unitText) + " "
	overlap := 0
	for _, tok := range tokens {
		nt := Normalize(tok)
		if nt == "" {
			continue
		}
		if strings.Contains(normUnit, " "+nt+" ") {
			overlap++
		}
	}
	return overlap
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
