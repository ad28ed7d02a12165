package dest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryDocumentUnits(t *testing.T) {
	d := NewMemoryDocument([]string{"Total fee: 500", "", "Review date: XXXX"})

	units, err := d.Units()
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Ordinal != 0 || units[1].Ordinal != 1 {
		t.Errorf("ordinals not sequential: %d, %d", units[0].Ordinal, units[1].Ordinal)
	}
	if units[1].Text != "Review date: XXXX" {
		t.Errorf("unexpected text: %q", units[1].Text)
	}
}

func TestMemoryDocumentOperations(t *testing.T) {
	d := NewMemoryDocument([]string{"Total fee: 500", "Adviser: Smith", "Review date: XXXX"})
	units, _ := d.Units()

	t.Run("replace", func(t *testing.T) {
		if err := d.Replace(units[0].ID, "Total fee: 450"); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if got := d.Text()[0]; got != "Total fee: 450" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := d.Delete(units[1].ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		for _, line := range d.Text() {
			if strings.Contains(line, "Adviser") {
				t.Errorf("deleted unit still present: %q", line)
			}
		}
	})

	t.Run("append", func(t *testing.T) {
		if err := d.Append(units[2].ID, "Next review: 14/03/2027"); err != nil {
			t.Fatalf("append: %v", err)
		}
		lines := d.Text()
		if lines[len(lines)-1] != "Next review: 14/03/2027" {
			t.Errorf("appended line misplaced: %v", lines)
		}
		// Appended units join the pool with fresh ordinals.
		fresh, _ := d.Units()
		if fresh[len(fresh)-1].Ordinal != len(fresh)-1 {
			t.Errorf("ordinals not renumbered after append")
		}
	})

	t.Run("unknown unit", func(t *testing.T) {
		if err := d.Replace("nope", "x"); err == nil {
			t.Fatal("expected error for unknown unit")
		}
	})
}

func TestMemoryDocumentSave(t *testing.T) {
	d := NewMemoryDocument([]string{"one", "two"})
	units, _ := d.Units()
	if err := d.Delete(units[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	if err := d.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "two\n" {
		t.Errorf("saved content %q", string(data))
	}
}
