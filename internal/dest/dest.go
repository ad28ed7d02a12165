// Package dest defines the destination document abstraction the change
// applier writes into. A destination exposes its editable units in
// document order and supports the three change operations. Concrete
// adapters live in the docx and pdfform subpackages; an in-memory adapter
// backs tests and dry runs.
package dest

import (
	"errors"

	"github.com/jackzampolin/redline/internal/match"
)

// ErrUnitNotFound is returned when an operation names a unit the document
// does not contain.
var ErrUnitNotFound = errors.New("dest: unit not found")

// Document is a mutable destination document.
type Document interface {
	// Units returns the editable units in document order. Unit IDs are
	// stable for the lifetime of the open document.
	Units() ([]match.Unit, error)

	// Replace overwrites the text of the identified unit.
	Replace(unitID, text string) error

	// Delete removes the content of the identified unit. The unit itself
	// remains addressable so repeated deletes are harmless.
	Delete(unitID string) error

	// Append inserts new content immediately after the identified unit,
	// inheriting its formatting where the format supports it.
	Append(unitID, text string) error

	// Save writes the document, with all applied changes, to path.
	Save(path string) error
}
