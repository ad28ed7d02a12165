package match

import (
	"testing"

	"github.com/jackzampolin/redline/internal/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Total Fee", "total fee"},
		{"collapses whitespace", "a   b\t\nc", "a b c"},
		{"punctuation separates tokens", "Total fee: $1,200", "total fee 1 200"},
		{"date slashes", "14/03/2026", "14 03 2026"},
		{"empty", "", ""},
		{"only punctuation", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		if got := Jaccard("alpha beta", "alpha beta"); got != 1.0 {
			t.Errorf("expected 1.0, got %f", got)
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		if got := Jaccard("alpha beta", "gamma delta"); got != 0.0 {
			t.Errorf("expected 0.0, got %f", got)
		}
	})

	t.Run("three of five", func(t *testing.T) {
		// Intersection 3, union 5.
		got := Jaccard("alpha beta gamma", "beta alpha delta gamma epsilon")
		if got != 0.6 {
			t.Errorf("expected 0.6, got %f", got)
		}
	})

	t.Run("empty side", func(t *testing.T) {
		if got := Jaccard("", "alpha"); got != 0.0 {
			t.Errorf("expected 0.0, got %f", got)
		}
	})
}

func TestMatcherExactPrecedence(t *testing.T) {
	// With both an exact and a fuzzy-similar unit present, exact must win.
	m := New([]Unit{
		{ID: "u1", Ordinal: 0, Text: "Total fee: $1,200"},
		{ID: "u2", Ordinal: 1, Text: "Total fees: $1200 approx"},
	}, DefaultConfig())

	r := m.Match("r1", "Total fee: $1,200")
	if !r.Accepted {
		t.Fatal("expected match to be accepted")
	}
	if r.UnitID != "u1" {
		t.Errorf("expected u1, got %s", r.UnitID)
	}
	if r.Strategy != types.StrategyExact {
		t.Errorf("expected exact strategy, got %s", r.Strategy)
	}
	if r.Score != 1.0 {
		t.Errorf("expected score 1.0, got %f", r.Score)
	}
}

func TestMatcherLabelMatch(t *testing.T) {
	// A handwritten value replacing a masked placeholder shares only the
	// leading label with the destination unit.
	m := New([]Unit{
		{ID: "u1", Ordinal: 0, Text: "Review date: XXXX"},
	}, DefaultConfig())

	r := m.Match("r1", "Review date: 14/03/2026")
	if !r.Accepted || r.UnitID != "u1" {
		t.Fatalf("expected accepted match on u1, got %+v", r)
	}
	if r.Strategy != types.StrategyExact {
		t.Errorf("expected exact strategy, got %s", r.Strategy)
	}
}

func TestMatcherSimilarityThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("exactly at threshold accepted", func(t *testing.T) {
		// Jaccard 3/5 = 0.6, not a substring in either direction.
		m := New([]Unit{
			{ID: "u1", Ordinal: 0, Text: "beta alpha delta gamma epsilon"},
		}, cfg)
		r := m.Match("r1", "alpha beta gamma")
		if !r.Accepted {
			t.Fatalf("score exactly at threshold must be accepted, got %+v", r)
		}
		if r.Strategy != types.StrategySimilarity {
			t.Errorf("expected similarity strategy, got %s", r.Strategy)
		}
		if r.Score != 0.6 {
			t.Errorf("expected score 0.6, got %f", r.Score)
		}
	})

	t.Run("below threshold falls through", func(t *testing.T) {
		// Jaccard 2/4 = 0.5; no salient-token overlap either, so no match.
		m := New([]Unit{
			{ID: "u1", Ordinal: 0, Text: "beta alpha delta"},
		}, cfg)
		r := m.Match("r1", "alpha beta gamma")
		if r.Accepted {
			t.Fatalf("score below threshold must not be accepted via similarity, got %+v", r)
		}
		if r.Strategy != types.StrategyNone {
			t.Errorf("expected none strategy, got %s", r.Strategy)
		}
	})
}

func TestMatcherSimilarityTieBreak(t *testing.T) {
	// Equal scores resolve to the earliest destination ordinal.
	m := New([]Unit{
		{ID: "late", Ordinal: 5, Text: "gamma beta alpha zeta omega"},
		{ID: "early", Ordinal: 1, Text: "beta alpha delta gamma epsilon"},
	}, DefaultConfig())

	r := m.Match("r1", "alpha beta gamma")
	if !r.Accepted {
		t.Fatal("expected an accepted match")
	}
	if r.UnitID != "early" {
		t.Errorf("expected earliest ordinal to win, got %s", r.UnitID)
	}
}

func TestMatcherKeywordFallback(t *testing.T) {
	m := New([]Unit{
		{ID: "u1", Ordinal: 0, Text: "The annual charge of 450 applies to the Smith portfolio"},
		{ID: "u2", Ordinal: 1, Text: "General notes about nothing in particular"},
	}, DefaultConfig())

	// Degraded extraction: shares the number and proper noun with u1 but has
	// little token overlap otherwise.
	r := m.Match("r1", "450 Smith revised arrangement wording entirely different here")
	if !r.Accepted {
		t.Fatalf("expected keyword match, got %+v", r)
	}
	if r.Strategy != types.StrategyKeyword {
		t.Errorf("expected keyword strategy, got %s", r.Strategy)
	}
	if r.UnitID != "u1" {
		t.Errorf("expected u1, got %s", r.UnitID)
	}
}

func TestMatcherNoMatch(t *testing.T) {
	m := New([]Unit{
		{ID: "u1", Ordinal: 0, Text: "completely unrelated content"},
	}, DefaultConfig())

	r := m.Match("r1", "zz9 plural alpha")
	if r.Accepted {
		t.Fatalf("expected no match, got %+v", r)
	}
	if r.Strategy != types.StrategyNone {
		t.Errorf("expected none strategy, got %s", r.Strategy)
	}
	if r.UnitID != "" {
		t.Errorf("expected empty unit id, got %s", r.UnitID)
	}
}

func TestMatcherUnitConsumption(t *testing.T) {
	m := New([]Unit{
		{ID: "u1", Ordinal: 0, Text: "Total fee: $1,200"},
		{ID: "u2", Ordinal: 1, Text: "Total fee: $1,200 per annum"},
	}, DefaultConfig())

	first := m.Match("r1", "Total fee: $1,200")
	if first.UnitID != "u1" {
		t.Fatalf("expected u1 first, got %s", first.UnitID)
	}
	m.Consume("u1")

	second := m.Match("r2", "Total fee: $1,200")
	if second.UnitID != "u2" {
		t.Errorf("consumed unit must not match again; expected u2, got %s", second.UnitID)
	}

	m.Consume("u2")
	third := m.Match("r3", "Total fee: $1,200")
	if third.Accepted {
		t.Errorf("expected no match with pool exhausted, got %+v", third)
	}
}

func TestSalientTokens(t *testing.T) {
	tokens := SalientTokens("Review the Jones pension transfer of 12,500 by March", nil)

	want := map[string]bool{"jones": true, "12": false, "march": true, "pension": true}
	set := make(map[string]bool)
	for _, tok := range tokens {
		set[tok] = true
	}

	for tok := range want {
		if want[tok] && !set[tok] {
			t.Errorf("expected salient token %q in %v", tok, tokens)
		}
	}
	// Numbers keep interior punctuation; only edge punctuation is trimmed.
	if !set["12,500"] {
		t.Errorf("expected numeric token %q in %v", "12,500", tokens)
	}
}
