// Package strikes detects diagonal strike-through marks in scanned region
// images using a pure-geometry pipeline: grayscale, Gaussian blur, Canny
// edge detection, then a Hough line search restricted to diagonal
// orientations. No text model is involved, so the detector works the same
// on handwriting, print, and mixed content.
package strikes

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/jackzampolin/redline/internal/types"
)

// Pass holds the tunables for one Hough sweep. The detector runs a strict
// pass first and only falls back to a relaxed pass when the strict one
// finds nothing, which keeps faint or broken pen strokes detectable without
// loosening the common case.
type Pass struct {
	// VoteThreshold is the minimum Hough accumulator count for a line to
	// be considered at all.
	VoteThreshold int

	// MinLengthRatio scales the region diagonal to produce the minimum
	// accepted segment length.
	MinLengthRatio float64

	// MaxGap is the largest break, in pixels along the line, bridged when
	// assembling a segment from edge runs.
	MaxGap int
}

// Config controls the full detection pipeline.
type Config struct {
	CannyLow  int
	CannyHigh int

	// CenterMargin is the fraction of each dimension excluded at the
	// borders when testing a segment midpoint. 0.15 keeps midpoints in
	// the central 70% of the region.
	CenterMargin float64

	Passes []Pass
}

// DefaultConfig returns the tuned production parameters.
func DefaultConfig() Config {
	return Config{
		CannyLow:     28,
		CannyHigh:    95,
		CenterMargin: 0.15,
		Passes: []Pass{
			{VoteThreshold: 42, MinLengthRatio: 0.16, MaxGap: 22},
			{VoteThreshold: 30, MinLengthRatio: 0.10, MaxGap: 30},
		},
	}
}

// Detect runs the strike-through pipeline over a decoded region image.
// The first segment that survives every filter decides the outcome. A nil
// or degenerate image yields the conservative no-diagonal answer.
func Detect(img image.Image, cfg Config) types.StrikeSignal {
	if img == nil {
		return types.StrikeSignal{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return types.StrikeSignal{}
	}

	gray := grayscale(img)
	blurred := gaussianBlur(gray)
	edges := cannyEdges(blurred, float64(cfg.CannyLow), float64(cfg.CannyHigh))

	diag := math.Hypot(float64(w), float64(h))
	for _, pass := range cfg.Passes {
		minLen := math.Max(8, pass.MinLengthRatio*diag)
		if seg, ok := findSegment(edges, w, h, pass, minLen, cfg.CenterMargin); ok {
			return types.StrikeSignal{HasDiagonal: true, Lines: []types.LineSegment{seg}}
		}
	}

	return types.StrikeSignal{}
}

// DetectBytes decodes an encoded region image and runs Detect. Malformed
// image data is treated as no diagonal found rather than an error: a region
// that cannot be analyzed falls through to the hybrid extraction path,
// which handles arbitrary content.
func DetectBytes(data []byte, cfg Config) types.StrikeSignal {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return types.StrikeSignal{}
	}
	return Detect(img, cfg)
}
