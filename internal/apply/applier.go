// Package apply mutates the destination document from accepted matches.
// Every applied mutation produces one ChangeRecord; adapter failures are
// recorded per change and never abort the run.
package apply

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/types"
)

// Applier applies change operations to a single destination document.
// It is not safe for concurrent use; the orchestrator serializes all
// match and apply work for a run.
type Applier struct {
	doc     dest.Document
	logger  *slog.Logger
	applied map[string]types.ChangeRecord
}

// New creates an applier over an open destination document.
func New(doc dest.Document, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		doc:     doc,
		logger:  logger,
		applied: make(map[string]types.ChangeRecord),
	}
}

// InferOperation decides which mutation a region's content calls for.
// An empty extraction over a struck region means the reviewer crossed the
// text out with no replacement. A bullet list under a matched unit is
// accumulated content rather than a correction. Everything else replaces
// the unit's text.
func InferOperation(hasDiagonal, noText bool, text string) types.Operation {
	if hasDiagonal && (noText || strings.TrimSpace(text) == "") {
		return types.OpDelete
	}
	if isBulletList(text) {
		return types.OpAppend
	}
	return types.OpReplace
}

// AppendDelta drops the lines of text that already appear in the anchor
// unit. Extractions of accumulated lists re-report the existing items
// alongside the new ones; only the new lines should land in the document.
// Returns "" when the anchor already contains every line.
func AppendDelta(anchor, text string) string {
	existing := make(map[string]bool)
	for _, line := range strings.Split(anchor, "\n") {
		existing[normalizeLine(line)] = true
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if existing[normalizeLine(line)] {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func normalizeLine(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isBulletList reports whether every non-empty line starts with a list
// marker.
func isBulletList(text string) bool {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	seen := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") &&
			!strings.HasPrefix(line, "*") &&
			!strings.HasPrefix(line, "•") {
			return false
		}
		seen = true
	}
	return seen
}

// Apply performs one mutation and returns its record. Replays of the same
// unit and operation are no-ops returning the original record; appends are
// keyed by content so a list can accumulate distinct items.
func (a *Applier) Apply(m types.MatchResult, op types.Operation, before, after string) types.ChangeRecord {
	key := idempotencyKey(m.UnitID, op, after)
	if prior, ok := a.applied[key]; ok {
		return prior
	}

	rec := types.ChangeRecord{
		RegionID: m.RegionID,
		UnitID:   m.UnitID,
		Op:       op,
		Before:   before,
		After:    after,
		Strategy: m.Strategy,
	}

	var err error
	switch op {
	case types.OpReplace:
		err = a.doc.Replace(m.UnitID, after)
	case types.OpDelete:
		rec.After = ""
		err = a.doc.Delete(m.UnitID)
	case types.OpAppend:
		err = a.doc.Append(m.UnitID, after)
	default:
		err = fmt.Errorf("unknown operation: %s", op)
	}

	if err != nil {
		rec.Failed = true
		rec.Err = err.Error()
		a.logger.Warn("failed to apply change",
			"unit", m.UnitID,
			"op", op,
			"error", err)
	} else {
		a.logger.Debug("applied change",
			"unit", m.UnitID,
			"op", op,
			"strategy", m.Strategy)
	}

	a.applied[key] = rec
	return rec
}

// Records returns every change record produced so far, applied and failed
// alike, in no particular order.
func (a *Applier) Records() []types.ChangeRecord {
	out := make([]types.ChangeRecord, 0, len(a.applied))
	for _, rec := range a.applied {
		out = append(out, rec)
	}
	return out
}

func idempotencyKey(unitID string, op types.Operation, after string) string {
	if op == types.OpAppend {
		return unitID + "|" + string(op) + "|" + after
	}
	return unitID + "|" + string(op)
}
