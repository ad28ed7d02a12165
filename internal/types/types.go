// Package types provides shared types used across multiple packages.
// This package has no dependencies on other redline packages to avoid import cycles.
package types

import "image"

// DocumentMode indicates how a source document should be read.
type DocumentMode string

const (
	// ModeHandwritingOnly indicates a document that is pure handwriting on a blank form.
	ModeHandwritingOnly DocumentMode = "handwriting_only"
	// ModeHybrid indicates printed text with handwritten corrections.
	ModeHybrid DocumentMode = "hybrid"
)

// ParseDocumentMode converts a string to a DocumentMode.
// Returns ModeHybrid if the string is not recognized - assuming printed text
// is absent risks losing legitimate corrections, so hybrid is the safe default.
func ParseDocumentMode(s string) DocumentMode {
	switch s {
	case "handwriting_only":
		return ModeHandwritingOnly
	case "hybrid":
		return ModeHybrid
	default:
		return ModeHybrid
	}
}

// ConfidenceLevel indicates the confidence of a classification.
type ConfidenceLevel string

const (
	// ConfidenceHigh indicates high confidence in the classification.
	ConfidenceHigh ConfidenceLevel = "high"
	// ConfidenceMedium indicates medium confidence in the classification.
	ConfidenceMedium ConfidenceLevel = "medium"
	// ConfidenceLow indicates low confidence in the classification.
	ConfidenceLow ConfidenceLevel = "low"
)

// ParseConfidenceLevel converts a string to a ConfidenceLevel.
// Returns ConfidenceLow if the string is not recognized.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch s {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceLow
	}
}

// DocumentModeResult is the classifier output for a whole document.
// Confidence low always forces ModeHybrid regardless of the raw mode string.
type DocumentModeResult struct {
	Mode       DocumentMode    `json:"mode"`
	Confidence ConfidenceLevel `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
}

// SourceRegion is one rectangular region of an annotated page (a "section").
type SourceRegion struct {
	ID     string          // Stable region identifier
	Name   string          // Human-readable section name (e.g., "goals_q1")
	Page   int             // Zero-based page index
	Bounds image.Rectangle // Bounding box in page pixel coordinates
	Image  []byte          // Encoded region image (PNG)
}

// LineSegment is one detected line, kept for diagnostics.
type LineSegment struct {
	X1, Y1, X2, Y2 int
	Length         float64
	AngleDeg       float64
}

// StrikeSignal is the geometric detector output for one region.
// Computed independently of document mode; advisory only inside hybrid mode.
type StrikeSignal struct {
	HasDiagonal bool
	Lines       []LineSegment // Accepted segments, for debugging
}

// ExtractionPath identifies which prompt contract produced an extraction.
type ExtractionPath string

const (
	// PathHandwriting extracts handwriting only, ignoring any printed baseline.
	PathHandwriting ExtractionPath = "handwriting"
	// PathHybrid merges the printed baseline with handwritten edits.
	PathHybrid ExtractionPath = "hybrid"
)

// NoTextSentinel is returned by the oracle when a region contains no text.
// It means "this region contributes nothing", not an error.
const NoTextSentinel = "NO_TEXT_FOUND"

// ExtractionResult is the oracle output for one region.
type ExtractionResult struct {
	RegionID string
	Path     ExtractionPath
	Strike   StrikeSignal // Detector output for the region
	Text     string       // Raw extracted text; empty when NoText is set
	NoText   bool         // Oracle returned the sentinel
	Failed   bool         // Oracle error or timeout; region counted as failed
	Err      string       // Error message when Failed
}
