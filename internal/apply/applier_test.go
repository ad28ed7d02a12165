package apply

import (
	"testing"

	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/types"
)

func TestInferOperation(t *testing.T) {
	tests := []struct {
		name        string
		hasDiagonal bool
		noText      bool
		text        string
		want        types.Operation
	}{
		{"struck with no replacement", true, true, "", types.OpDelete},
		{"struck with blank text", true, false, "   ", types.OpDelete},
		{"struck with replacement", true, false, "Total fee: 450", types.OpReplace},
		{"plain correction", false, false, "Review date: 14/03/2026", types.OpReplace},
		{"bullet list accumulates", false, false, "- call client\n- update ISA", types.OpAppend},
		{"mixed lines are a replace", false, false, "- call client\nplus this", types.OpReplace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferOperation(tt.hasDiagonal, tt.noText, tt.text)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func match(regionID, unitID string) types.MatchResult {
	return types.MatchResult{
		RegionID: regionID,
		UnitID:   unitID,
		Strategy: types.StrategyExact,
		Score:    1.0,
		Accepted: true,
	}
}

func TestApplyOperations(t *testing.T) {
	doc := dest.NewMemoryDocument([]string{"Total fee: 500", "Adviser: Smith", "Actions:"})
	units, _ := doc.Units()
	a := New(doc, nil)

	t.Run("replace", func(t *testing.T) {
		rec := a.Apply(match("r1", units[0].ID), types.OpReplace, units[0].Text, "Total fee: 450")
		if rec.Failed {
			t.Fatalf("record failed: %+v", rec)
		}
		if doc.Text()[0] != "Total fee: 450" {
			t.Errorf("document not updated: %v", doc.Text())
		}
	})

	t.Run("delete clears after text", func(t *testing.T) {
		rec := a.Apply(match("r2", units[1].ID), types.OpDelete, units[1].Text, "ignored")
		if rec.After != "" {
			t.Errorf("delete record should have empty after, got %q", rec.After)
		}
		for _, line := range doc.Text() {
			if line == "Adviser: Smith" {
				t.Error("deleted unit still present")
			}
		}
	})

	t.Run("append", func(t *testing.T) {
		rec := a.Apply(match("r3", units[2].ID), types.OpAppend, units[2].Text, "- call client")
		if rec.Failed {
			t.Fatalf("record failed: %+v", rec)
		}
		lines := doc.Text()
		if lines[len(lines)-1] != "- call client" {
			t.Errorf("append misplaced: %v", lines)
		}
	})
}

func TestApplyIdempotency(t *testing.T) {
	doc := dest.NewMemoryDocument([]string{"Total fee: 500", "Actions:"})
	units, _ := doc.Units()
	a := New(doc, nil)

	t.Run("replace replay is a no-op", func(t *testing.T) {
		first := a.Apply(match("r1", units[0].ID), types.OpReplace, units[0].Text, "Total fee: 450")
		a.Apply(match("r1", units[0].ID), types.OpReplace, units[0].Text, "Total fee: 999")
		if doc.Text()[0] != "Total fee: 450" {
			t.Errorf("replay mutated the document: %v", doc.Text())
		}
		if len(a.Records()) != 1 {
			t.Errorf("replay produced extra records: %d", len(a.Records()))
		}
		if first.After != "Total fee: 450" {
			t.Errorf("first record %+v", first)
		}
	})

	t.Run("appends with distinct content accumulate", func(t *testing.T) {
		a.Apply(match("r2", units[1].ID), types.OpAppend, units[1].Text, "- item one")
		a.Apply(match("r3", units[1].ID), types.OpAppend, units[1].Text, "- item two")
		a.Apply(match("r3", units[1].ID), types.OpAppend, units[1].Text, "- item two")

		count := 0
		for _, line := range doc.Text() {
			if line == "- item one" || line == "- item two" {
				count++
			}
		}
		if count != 2 {
			t.Errorf("expected two appended items, got %d in %v", count, doc.Text())
		}
	})
}

func TestApplyAdapterFailureRecorded(t *testing.T) {
	doc := dest.NewMemoryDocument([]string{"one"})
	a := New(doc, nil)

	rec := a.Apply(match("r1", "missing-unit"), types.OpReplace, "x", "y")
	if !rec.Failed {
		t.Fatal("expected failed record for unknown unit")
	}
	if rec.Err == "" {
		t.Error("failure should carry the adapter error")
	}
}

func TestAppendDelta(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		text   string
		want   string
	}{
		{
			"new item after existing anchor line",
			"- review pension annually",
			"- review pension annually\n- increase contributions",
			"- increase contributions",
		},
		{
			"case and whitespace insensitive",
			"- Review Pension Annually",
			"  - review pension annually  \n- call client",
			"- call client",
		},
		{
			"everything already present",
			"- review pension annually",
			"- review pension annually",
			"",
		},
		{
			"all lines new",
			"Actions:",
			"- call client\n- update ISA",
			"- call client\n- update ISA",
		},
		{
			"blank lines dropped",
			"- a",
			"- a\n\n- b\n",
			"- b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AppendDelta(tt.anchor, tt.text); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
