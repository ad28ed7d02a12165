// Package docx edits Word documents in place by rewriting the
// WordprocessingML body. Paragraphs, including those inside table cells,
// are the editable units. Formatting is preserved by mutating run text
// rather than rebuilding paragraph structure.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/match"
)

const documentEntry = "word/document.xml"

// zipEntry keeps an archive member so Save can reproduce the package with
// only the document body changed.
type zipEntry struct {
	name string
	data []byte
}

// Document is a dest.Document over a .docx file.
type Document struct {
	entries []zipEntry
	xml     *etree.Document
	ids     map[*etree.Element]string
	appends int
}

var _ dest.Document = (*Document)(nil)

// Open reads a .docx package and parses its main document part.
func Open(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open docx package: %w", err)
	}

	d := &Document{ids: make(map[*etree.Element]string)}
	var body []byte
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		d.entries = append(d.entries, zipEntry{name: f.Name, data: data})
		if f.Name == documentEntry {
			body = data
		}
	}
	if body == nil {
		return nil, fmt.Errorf("docx package has no %s", documentEntry)
	}

	d.xml = etree.NewDocument()
	if err := d.xml.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentEntry, err)
	}

	for i, p := range d.paragraphs() {
		d.ids[p] = fmt.Sprintf("p%04d", i)
	}
	return d, nil
}

// Units returns the non-empty paragraphs in document order. Paragraphs
// emptied by a delete drop out of the pool but stay addressable by ID.
func (d *Document) Units() ([]match.Unit, error) {
	var units []match.Unit
	ord := 0
	for _, p := range d.paragraphs() {
		text := paragraphText(p)
		if strings.TrimSpace(text) == "" {
			continue
		}
		id, ok := d.ids[p]
		if !ok {
			continue
		}
		units = append(units, match.Unit{ID: id, Ordinal: ord, Text: text})
		ord++
	}
	return units, nil
}

// Replace sets the paragraph text to the new value. The first text run
// receives the full replacement and keeps its formatting; remaining text
// runs are blanked so no stale fragments survive.
func (d *Document) Replace(unitID, text string) error {
	p := d.lookup(unitID)
	if p == nil {
		return fmt.Errorf("replace %q: %w", unitID, dest.ErrUnitNotFound)
	}
	ts := textElements(p)
	if len(ts) == 0 {
		// Paragraph was stripped of runs; rebuild a minimal one.
		r := p.CreateElement("w:r")
		t := r.CreateElement("w:t")
		setText(t, text)
		return nil
	}
	setText(ts[0], text)
	for _, t := range ts[1:] {
		t.SetText("")
	}
	return nil
}

// Delete blanks every text run in the paragraph. The paragraph element is
// kept so page layout and numbering stay intact and so a repeated delete
// is a no-op.
func (d *Document) Delete(unitID string) error {
	p := d.lookup(unitID)
	if p == nil {
		return fmt.Errorf("delete %q: %w", unitID, dest.ErrUnitNotFound)
	}
	for _, t := range textElements(p) {
		t.SetText("")
	}
	return nil
}

// Append clones the anchor paragraph, replaces the clone's content with
// the new text, and inserts it immediately after the anchor. Cloning
// carries over the paragraph style and the first run's character
// formatting.
func (d *Document) Append(unitID, text string) error {
	p := d.lookup(unitID)
	if p == nil {
		return fmt.Errorf("append after %q: %w", unitID, dest.ErrUnitNotFound)
	}
	parent := p.Parent()
	if parent == nil {
		return fmt.Errorf("append after %q: paragraph has no parent", unitID)
	}

	clone := p.Copy()
	pruneToSingleRun(clone)
	ts := textElements(clone)
	if len(ts) == 0 {
		r := clone.CreateElement("w:r")
		ts = append(ts, r.CreateElement("w:t"))
	}
	setText(ts[0], text)

	parent.InsertChildAt(p.Index()+1, clone)

	d.appends++
	d.ids[clone] = fmt.Sprintf("%s.a%d", unitID, d.appends)
	return nil
}

// Save writes the modified package to path. Every archive member other
// than the document body is copied through untouched.
func (d *Document) Save(path string) error {
	body, err := d.xml.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize document body: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range d.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", e.name, err)
		}
		data := e.data
		if e.name == documentEntry {
			data = body
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize package: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (d *Document) lookup(unitID string) *etree.Element {
	for p, id := range d.ids {
		if id == unitID {
			return p
		}
	}
	return nil
}

// paragraphs walks the body in document order collecting every w:p,
// including paragraphs nested in table cells.
func (d *Document) paragraphs() []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Space == "w" && c.Tag == "p" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	if root := d.xml.Root(); root != nil {
		walk(root)
	}
	return out
}

func paragraphText(p *etree.Element) string {
	var b strings.Builder
	for _, t := range textElements(p) {
		b.WriteString(t.Text())
	}
	return b.String()
}

func textElements(p *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Space == "w" && c.Tag == "t" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(p)
	return out
}

// setText assigns run text, marking significant whitespace so Word does
// not trim it on load.
func setText(t *etree.Element, text string) {
	t.SetText(text)
	if text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}

// pruneToSingleRun strips a cloned paragraph down to its properties and
// one run, so appended text does not inherit the anchor's full content
// structure.
func pruneToSingleRun(p *etree.Element) {
	var firstRun *etree.Element
	for _, c := range p.ChildElements() {
		if c.Space != "w" {
			continue
		}
		switch c.Tag {
		case "pPr":
			// keep
		case "r":
			if firstRun == nil {
				firstRun = c
				continue
			}
			p.RemoveChild(c)
		default:
			p.RemoveChild(c)
		}
	}
	if firstRun == nil {
		return
	}
	// Inside the kept run, keep formatting and the first text node only.
	sawText := false
	for _, c := range firstRun.ChildElements() {
		if c.Space == "w" && c.Tag == "rPr" {
			continue
		}
		if c.Space == "w" && c.Tag == "t" && !sawText {
			sawText = true
			continue
		}
		firstRun.RemoveChild(c)
	}
}
