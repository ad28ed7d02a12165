package dest

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jackzampolin/redline/internal/match"
)

// memUnit carries a unit plus the bookkeeping the adapter needs.
type memUnit struct {
	id      string
	ordinal int
	text    string
	deleted bool
}

// MemoryDocument is an in-memory Document backed by a list of text lines.
// It is used by the pipeline's dry-run mode and throughout the tests.
type MemoryDocument struct {
	mu      sync.Mutex
	units   []*memUnit
	appends map[string]int
}

// NewMemoryDocument builds a document from lines of text. Blank lines are
// kept out of the unit list, matching how the file-format adapters skip
// empty paragraphs.
func NewMemoryDocument(lines []string) *MemoryDocument {
	d := &MemoryDocument{appends: make(map[string]int)}
	ord := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.units = append(d.units, &memUnit{
			id:      fmt.Sprintf("u%04d", i),
			ordinal: ord,
			text:    line,
		})
		ord++
	}
	return d
}

func (d *MemoryDocument) Units() ([]match.Unit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]match.Unit, 0, len(d.units))
	for _, u := range d.units {
		if u.deleted {
			continue
		}
		out = append(out, match.Unit{ID: u.id, Ordinal: u.ordinal, Text: u.text})
	}
	return out, nil
}

func (d *MemoryDocument) Replace(unitID, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := d.find(unitID)
	if u == nil {
		return fmt.Errorf("replace %q: %w", unitID, ErrUnitNotFound)
	}
	u.text = text
	u.deleted = false
	return nil
}

func (d *MemoryDocument) Delete(unitID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := d.find(unitID)
	if u == nil {
		return fmt.Errorf("delete %q: %w", unitID, ErrUnitNotFound)
	}
	u.text = ""
	u.deleted = true
	return nil
}

func (d *MemoryDocument) Append(unitID, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := -1
	for i, u := range d.units {
		if u.id == unitID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("append after %q: %w", unitID, ErrUnitNotFound)
	}

	d.appends[unitID]++
	nu := &memUnit{
		id:   fmt.Sprintf("%s.a%d", unitID, d.appends[unitID]),
		text: text,
	}
	d.units = append(d.units[:idx+1], append([]*memUnit{nu}, d.units[idx+1:]...)...)
	d.renumber()
	return nil
}

// Save writes the surviving lines to path, one unit per line.
func (d *MemoryDocument) Save(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	for _, u := range d.units {
		if u.deleted {
			continue
		}
		b.WriteString(u.text)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Text returns the current document content as lines. Test helper.
func (d *MemoryDocument) Text() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []string
	for _, u := range d.units {
		if u.deleted {
			continue
		}
		out = append(out, u.text)
	}
	return out
}

func (d *MemoryDocument) find(unitID string) *memUnit {
	for _, u := range d.units {
		if u.id == unitID {
			return u
		}
	}
	return nil
}

func (d *MemoryDocument) renumber() {
	ord := 0
	for _, u := range d.units {
		if u.deleted {
			continue
		}
		u.ordinal = ord
		ord++
	}
}
