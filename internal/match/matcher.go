package match

import (
	"sort"
	"strings"

	"github.com/jackzampolin/redline/internal/types"
)

// Unit is the matcher's view of one addressable destination unit.
// Ordinal is the unit's position in document order and is stable for the
// lifetime of one processing run.
type Unit struct {
	ID      string
	Ordinal int
	Text    string
}

// Config holds the matcher thresholds. The defaults come from the original
// pipelines and are empirically chosen; they are configuration rather than
// constants so they can be recalibrated against a labeled corpus.
type Config struct {
	// SimilarityThreshold is the minimum Jaccard ratio the similarity
	// strategy accepts. A score exactly at the threshold is accepted.
	SimilarityThreshold float64
	// KeywordMinOverlap is the minimum number of salient tokens a unit must
	// contain for the keyword strategy to accept it.
	KeywordMinOverlap int
	// DomainKeywords supplements the built-in salient-token vocabulary.
	DomainKeywords []string
}

// DefaultConfig returns the standard matcher configuration.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.6,
		KeywordMinOverlap:   2,
	}
}

// Matcher matches extracted text against a pool of destination units.
// Units leave the pool once matched and consumed, so later regions cannot
// target the same location twice. Not safe for concurrent use: matching and
// applying run serialized in region order by design.
type Matcher struct {
	cfg      Config
	units    []Unit
	consumed map[string]bool
}

// New creates a matcher over the given destination units.
func New(units []Unit, cfg Config) *Matcher {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.6
	}
	if cfg.KeywordMinOverlap <= 0 {
		cfg.KeywordMinOverlap = 2
	}

	sorted := make([]Unit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	return &Matcher{
		cfg:      cfg,
		units:    sorted,
		consumed: make(map[string]bool),
	}
}

// Available returns the unconsumed units in destination order.
func (m *Matcher) Available() []Unit {
	out := make([]Unit, 0, len(m.units))
	for _, u := range m.units {
		if !m.consumed[u.ID] {
			out = append(out, u)
		}
	}
	return out
}

// Consume removes a unit from the pool. Called after a replace or delete is
// applied; append targets stay in the pool so handwritten list items can
// accumulate beneath the same unit.
func (m *Matcher) Consume(unitID string) {
	m.consumed[unitID] = true
}

// Match finds the best destination unit for the candidate text, trying each
// strategy in precedence order. Returns an unaccepted result with strategy
// "none" when no strategy clears its threshold - the caller records it as
// unmatched, never silently dropped.
func (m *Matcher) Match(regionID, candidate string) types.MatchResult {
	pool := m.Available()

	if r, ok := m.matchExact(pool, candidate); ok {
		r.RegionID = regionID
		return r
	}
	if r, ok := m.matchSimilarity(pool, candidate); ok {
		r.RegionID = regionID
		return r
	}
	if r, ok := m.matchKeyword(pool, candidate); ok {
		r.RegionID = regionID
		return r
	}

	return types.MatchResult{
		RegionID: regionID,
		Strategy: types.StrategyNone,
		Accepted: false,
	}
}

// matchExact looks for an exact normalized match: full equality, one text
// containing the other, or an equal leading label (the text before the first
// colon). The label rule lets a handwritten value replace a masked
// placeholder - "Review date: 14/03/2026" matches "Review date: XXXX".
// The first unit in destination order wins.
func (m *Matcher) matchExact(pool []Unit, candidate string) (types.MatchResult, bool) {
	normCand := Normalize(candidate)
	if normCand == "" {
		return types.MatchResult{}, false
	}
	candLabel := normalizedLabel(candidate)

	for _, u := range pool {
		normUnit := Normalize(u.Text)
		if normUnit == "" {
			continue
		}

		exact := normUnit == normCand ||
			strings.Contains(normUnit, normCand) ||
			strings.Contains(normCand, normUnit)
		if !exact && candLabel != "" && candLabel == normalizedLabel(u.Text) {
			exact = true
		}

		if exact {
			return types.MatchResult{
				UnitID:   u.ID,
				Strategy: types.StrategyExact,
				Score:    1.0,
				Accepted: true,
			}, true
		}
	}
	return types.MatchResult{}, false
}

// matchSimilarity selects the maximum-scoring unit by Jaccard token-set
// ratio, accepting only scores at or above the threshold. Ties break to the
// earliest destination ordinal, preserving top-to-bottom document order.
func (m *Matcher) matchSimilarity(pool []Unit, candidate string) (types.MatchResult, bool) {
	var best *Unit
	bestScore := 0.0

	for i := range pool {
		score := Jaccard(candidate, pool[i].Text)
		if score > bestScore {
			bestScore = score
			best = &pool[i]
		}
	}

	if best == nil || bestScore < m.cfg.SimilarityThreshold {
		return types.MatchResult{}, false
	}
	return types.MatchResult{
		UnitID:   best.ID,
		Strategy: types.StrategySimilarity,
		Score:    bestScore,
		Accepted: true,
	}, true
}

// matchKeyword is the last-resort recall net for degraded extractions:
// salient tokens from the candidate (numbers, proper nouns, domain keywords)
// against each unit, accepting the highest overlap above the configured
// minimum. Ties break to the earliest ordinal.
func (m *Matcher) matchKeyword(pool []Unit, candidate string) (types.MatchResult, bool) {
	tokens := SalientTokens(candidate, m.cfg.DomainKeywords)
	if len(tokens) == 0 {
		return types.MatchResult{}, false
	}

	var best *Unit
	bestOverlap := 0

	for i := range pool {
		overlap := keywordOverlap(pool[i].Text, tokens)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = &pool[i]
		}
	}

	if best == nil || bestOverlap < m.cfg.KeywordMinOverlap {
		return types.MatchResult{}, false
	}
	return types.MatchResult{
		UnitID:   best.ID,
		Strategy: types.StrategyKeyword,
		Score:    float64(bestOverlap) / float64(len(tokens)),
		Accepted: true,
	}, true
}

// normalizedLabel returns the normalized text before the first colon, or ""
// when the text has no colon-delimited label.
func normalizedLabel(s string) string {
	idx := strings.IndexRune(s, ':')
	if idx <= 0 {
		return ""
	}
	return Normalize(s[:idx])
}
