// Package classify decides how a scanned document should be processed:
// as pure handwriting on a blank form, or as printed text with handwritten
// markup. One vision call covers the whole document, using up to two
// downscaled page images as evidence.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	classifyprompt "github.com/jackzampolin/redline/internal/prompts/classify"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/types"
)

// maxEvidencePages bounds how many page images go into the classification
// call. Two pages of a form are enough to tell the modes apart.
const maxEvidencePages = 2

// defaultMaxEdge is the longest allowed image edge after downscaling.
// Classification reads layout, not letterforms, so resolution beyond this
// only costs tokens.
const defaultMaxEdge = 1600

// Classifier runs the document mode decision.
type Classifier struct {
	client  providers.VisionClient
	logger  *slog.Logger
	maxEdge int
}

// New creates a classifier over the given vision client.
func New(client providers.VisionClient, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		client:  client,
		logger:  logger,
		maxEdge: defaultMaxEdge,
	}
}

// Classify decides the processing mode for a document from its page
// images. Any failure, an unparseable answer included, yields the
// conservative result: hybrid with low confidence. Low reported confidence
// also forces hybrid, whatever mode the model named.
func (c *Classifier) Classify(ctx context.Context, pages [][]byte) types.DocumentModeResult {
	fallback := types.DocumentModeResult{
		Mode:       types.ModeHybrid,
		Confidence: types.ConfidenceLow,
		Reason:     "classification unavailable",
	}

	if len(pages) == 0 {
		return fallback
	}
	if len(pages) > maxEvidencePages {
		pages = pages[:maxEvidencePages]
	}

	evidence := make([][]byte, 0, len(pages))
	for i, page := range pages {
		scaled, err := downscale(page, c.maxEdge)
		if err != nil {
			c.logger.Warn("failed to prepare page for classification", "page", i, "error", err)
			continue
		}
		evidence = append(evidence, scaled)
	}
	if len(evidence) == 0 {
		return fallback
	}

	result, err := c.client.Extract(ctx, &providers.ExtractRequest{
		System:      classifyprompt.SystemPrompt(),
		Prompt:      classifyprompt.UserPrompt(),
		Images:      evidence,
		Temperature: 0,
		MaxTokens:   300,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: classifyprompt.ResultSchemaJSON(),
		},
	})
	if err != nil || result == nil || !result.Success {
		c.logger.Warn("mode classification failed, defaulting to hybrid", "error", err)
		return fallback
	}

	var raw struct {
		Mode       string `json:"mode"`
		Confidence string `json:"confidence"`
		Reason     string `json:"reason"`
	}
	if uerr := json.Unmarshal(result.ParsedJSON, &raw); uerr != nil {
		c.logger.Warn("mode classification returned unusable JSON", "error", uerr)
		return fallback
	}

	out := types.DocumentModeResult{
		Mode:       types.ParseDocumentMode(raw.Mode),
		Confidence: types.ParseConfidenceLevel(raw.Confidence),
		Reason:     raw.Reason,
	}

	// A shaky handwriting_only call would route the whole document away
	// from the markup-aware path, so low confidence always means hybrid.
	if out.Confidence == types.ConfidenceLow {
		out.Mode = types.ModeHybrid
	}

	c.logger.Info("classified document",
		"mode", out.Mode,
		"confidence", out.Confidence,
		"pages", len(evidence))
	return out
}

// downscale re-encodes a page image so its longest edge is at most
// maxEdge pixels. Images already small enough pass through unchanged.
func downscale(data []byte, maxEdge int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return data, nil
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode scaled page: %w", err)
	}
	return buf.Bytes(), nil
}
