package pdfform

import (
	"encoding/json"
	"testing"
)

const exportedForm = `{
  "header": {"source": "client-report.pdf", "version": "pdfcpu v0.11.1"},
  "forms": [
    {
      "textfield": [
        {"pages": [1], "name": "total_fee", "value": "Total fee: 500", "multiline": false, "locked": false},
        {"pages": [1], "name": "adviser", "value": "Adviser: Smith", "multiline": false, "locked": false},
        {"pages": [2], "name": "notes", "value": "", "multiline": true, "locked": false}
      ],
      "checkbox": [
        {"pages": [1], "name": "agreed", "value": true}
      ]
    }
  ]
}`

func parsedDoc(t *testing.T) *Document {
	t.Helper()
	d := &Document{srcPath: "client-report.pdf"}
	if err := d.parseForm([]byte(exportedForm)); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return d
}

func TestParseFormUnits(t *testing.T) {
	d := parsedDoc(t)

	units, err := d.Units()
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	// The empty notes field is addressable but not matchable.
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].ID != "total_fee" || units[1].ID != "adviser" {
		t.Errorf("unexpected unit order: %v", units)
	}
}

func TestOperationsMutateFormJSON(t *testing.T) {
	d := parsedDoc(t)

	if err := d.Replace("total_fee", "Total fee: 450"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := d.Delete("adviser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := d.Append("notes", "Client confirmed by phone"); err != nil {
		t.Fatalf("append into empty field: %v", err)
	}
	if err := d.Append("notes", "14/03/2026"); err != nil {
		t.Fatalf("append onto value: %v", err)
	}

	data, err := d.encodeForm()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var round map[string]any
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	forms := round["forms"].([]any)
	tfs := forms[0].(map[string]any)["textfield"].([]any)
	got := map[string]string{}
	for _, tf := range tfs {
		m := tf.(map[string]any)
		got[m["name"].(string)], _ = m["value"].(string)
	}
	if got["total_fee"] != "Total fee: 450" {
		t.Errorf("total_fee = %q", got["total_fee"])
	}
	if got["adviser"] != "" {
		t.Errorf("adviser not cleared: %q", got["adviser"])
	}
	if got["notes"] != "Client confirmed by phone 14/03/2026" {
		t.Errorf("notes = %q", got["notes"])
	}

	// Non-text parts of the form survive the round-trip.
	cbs := forms[0].(map[string]any)["checkbox"].([]any)
	if v := cbs[0].(map[string]any)["value"]; v != true {
		t.Errorf("checkbox value mutated: %v", v)
	}
}

func TestUnknownField(t *testing.T) {
	d := parsedDoc(t)
	if err := d.Replace("missing", "x"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
