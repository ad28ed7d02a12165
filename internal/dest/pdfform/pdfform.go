// Package pdfform edits AcroForm text fields in PDF documents. The form is
// round-tripped through pdfcpu's JSON form representation: export, mutate
// field values, fill back. Only text fields are editable units; checkboxes,
// radio groups, and the rest of the form pass through untouched.
package pdfform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/match"
)

// textField is one mutable entry in the exported form JSON. The underlying
// map is shared with the parsed document so value writes survive
// re-encoding.
type textField struct {
	name string
	m    map[string]any
}

// Document is a dest.Document over a PDF with an interactive form.
type Document struct {
	srcPath string
	form    map[string]any
	fields  []*textField
}

var _ dest.Document = (*Document)(nil)

// Open exports the PDF's form to JSON and indexes its text fields.
func Open(path string) (*Document, error) {
	tmp, err := os.MkdirTemp("", "redline-pdfform-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	jsonPath := filepath.Join(tmp, "form.json")
	if err := api.ExportFormFile(path, jsonPath, nil); err != nil {
		return nil, fmt.Errorf("export form: %w", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read exported form: %w", err)
	}

	d := &Document{srcPath: path}
	if err := d.parseForm(data); err != nil {
		return nil, err
	}
	return d, nil
}

// parseForm decodes the exported form JSON and indexes text fields in
// export order. Everything else in the JSON is kept as-is for the fill
// round-trip.
func (d *Document) parseForm(data []byte) error {
	var form map[string]any
	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("parse form json: %w", err)
	}
	d.form = form
	d.fields = nil

	forms, _ := form["forms"].([]any)
	for _, f := range forms {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}
		tfs, _ := fm["textfield"].([]any)
		for _, tf := range tfs {
			m, ok := tf.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if name == "" {
				continue
			}
			d.fields = append(d.fields, &textField{name: name, m: m})
		}
	}
	return nil
}

func (d *Document) encodeForm() ([]byte, error) {
	return json.MarshalIndent(d.form, "", "  ")
}

// Units returns the text fields with non-empty values, in form order.
// The field name doubles as the unit ID.
func (d *Document) Units() ([]match.Unit, error) {
	var units []match.Unit
	ord := 0
	for _, f := range d.fields {
		val, _ := f.m["value"].(string)
		if val == "" {
			continue
		}
		units = append(units, match.Unit{ID: f.name, Ordinal: ord, Text: val})
		ord++
	}
	return units, nil
}

func (d *Document) Replace(unitID, text string) error {
	f := d.lookup(unitID)
	if f == nil {
		return fmt.Errorf("replace %q: %w", unitID, dest.ErrUnitNotFound)
	}
	f.m["value"] = text
	return nil
}

func (d *Document) Delete(unitID string) error {
	f := d.lookup(unitID)
	if f == nil {
		return fmt.Errorf("delete %q: %w", unitID, dest.ErrUnitNotFound)
	}
	f.m["value"] = ""
	return nil
}

// Append concatenates onto the field value. Form fields have no notion of
// a following paragraph, so appended text joins the anchor field.
func (d *Document) Append(unitID, text string) error {
	f := d.lookup(unitID)
	if f == nil {
		return fmt.Errorf("append after %q: %w", unitID, dest.ErrUnitNotFound)
	}
	val, _ := f.m["value"].(string)
	if val == "" {
		f.m["value"] = text
	} else {
		f.m["value"] = val + " " + text
	}
	return nil
}

// Save fills the source PDF with the mutated form values and writes the
// result to path.
func (d *Document) Save(path string) error {
	data, err := d.encodeForm()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	tmp, err := os.MkdirTemp("", "redline-pdfform-*")
	if err != nil {
		return fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	jsonPath := filepath.Join(tmp, "form.json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write form json: %w", err)
	}
	if err := api.FillFormFile(d.srcPath, jsonPath, path, nil); err != nil {
		return fmt.Errorf("fill form: %w", err)
	}
	return nil
}

func (d *Document) lookup(unitID string) *textField {
	for _, f := range d.fields {
		if f.name == unitID {
			return f
		}
	}
	return nil
}
