// Package extract turns annotated page regions into text. Each region is
// routed down one of two paths: pure handwriting transcription, or hybrid
// reading of printed text with handwritten markup applied. The route is
// decided per region from the document mode and the geometric
// strike-through signal.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/prompts/handwriting"
	"github.com/jackzampolin/redline/internal/prompts/hybrid"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/strikes"
	"github.com/jackzampolin/redline/internal/types"
)

// Config controls extraction behavior.
type Config struct {
	// Detector parameters for the strike-through signal.
	Detector strikes.Config

	// MaxAttempts per region before recording a regional failure.
	MaxAttempts int

	// RetryDelay is the base backoff delay between attempts.
	RetryDelay time.Duration

	// MaxTokens for the vision response.
	MaxTokens int
}

// DefaultConfig returns the tuned extraction parameters.
func DefaultConfig() Config {
	return Config{
		Detector:    strikes.DefaultConfig(),
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
		MaxTokens:   500,
	}
}

// Router extracts text from regions through the vision client.
type Router struct {
	client   providers.VisionClient
	resolver *prompts.Resolver
	cfg      Config
	logger   *slog.Logger
}

// NewRouter creates an extraction router. The resolver may be nil, in
// which case embedded prompt defaults are used directly.
func NewRouter(client providers.VisionClient, resolver *prompts.Resolver, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &Router{
		client:   client,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Route decides the extraction path for a region. Handwriting-only
// documents always take the handwriting path. In hybrid documents a
// diagonal strike-through in the region routes it to the handwriting path,
// because the printed text there is being replaced by the pen.
func (r *Router) Route(mode types.DocumentMode, region types.SourceRegion) (types.ExtractionPath, types.StrikeSignal) {
	if mode == types.ModeHandwritingOnly {
		return types.PathHandwriting, types.StrikeSignal{}
	}
	signal := strikes.DetectBytes(region.Image, r.cfg.Detector)
	if signal.HasDiagonal {
		return types.PathHandwriting, signal
	}
	return types.PathHybrid, signal
}

// ExtractRegion runs the full per-region flow: route, prompt, call with
// retries, interpret the sentinel. A region that fails all attempts yields
// a failed result rather than an error; one bad region must not sink the
// document.
func (r *Router) ExtractRegion(ctx context.Context, jobID string, mode types.DocumentMode, region types.SourceRegion) types.ExtractionResult {
	path, signal := r.Route(mode, region)

	out := types.ExtractionResult{
		RegionID: region.ID,
		Path:     path,
		Strike:   signal,
	}

	system, user, err := r.buildPrompts(ctx, jobID, path, region.Name)
	if err != nil {
		out.Failed = true
		out.Err = err.Error()
		return out
	}

	var result *providers.ExtractResult
	err = retry.Do(
		func() error {
			res, callErr := r.client.Extract(ctx, &providers.ExtractRequest{
				System:      system,
				Prompt:      user,
				Images:      [][]byte{region.Image},
				Temperature: 0,
				MaxTokens:   r.cfg.MaxTokens,
			})
			if callErr != nil {
				return callErr
			}
			if res == nil || !res.Success {
				msg := "extraction call unsuccessful"
				if res != nil && res.ErrorMessage != "" {
					msg = res.ErrorMessage
				}
				return errors.New(msg)
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.cfg.MaxAttempts)),
		retry.Delay(r.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
	)
	if err != nil {
		r.logger.Warn("region extraction failed",
			"region", region.ID,
			"path", path,
			"error", err)
		out.Failed = true
		out.Err = err.Error()
		return out
	}

	text := strings.TrimSpace(result.Content)
	if text == "" || text == types.NoTextSentinel {
		out.NoText = true
		return out
	}

	out.Text = text
	r.logger.Debug("extracted region",
		"region", region.ID,
		"path", path,
		"chars", len(text),
		"diagonal", signal.HasDiagonal)
	return out
}

// buildPrompts assembles the system and user prompts for a path, honoring
// job-level overrides when a resolver is configured.
func (r *Router) buildPrompts(ctx context.Context, jobID string, path types.ExtractionPath, sectionName string) (system, user string, err error) {
	switch path {
	case types.PathHandwriting:
		system = handwriting.SystemPrompt()
		user = handwriting.UserPrompt(handwriting.UserPromptData{SectionName: sectionName})
		if r.resolver != nil {
			system = r.resolveText(ctx, jobID, handwriting.SystemPromptKey, system)
			user = r.resolveTemplate(ctx, jobID, handwriting.UserPromptKey, user,
				handwriting.UserPromptData{SectionName: sectionName})
		}
	case types.PathHybrid:
		system = hybrid.SystemPrompt()
		user = hybrid.UserPrompt(hybrid.UserPromptData{SectionName: sectionName})
		if r.resolver != nil {
			system = r.resolveText(ctx, jobID, hybrid.SystemPromptKey, system)
			user = r.resolveTemplate(ctx, jobID, hybrid.UserPromptKey, user,
				hybrid.UserPromptData{SectionName: sectionName})
		}
	default:
		return "", "", fmt.Errorf("unknown extraction path: %s", path)
	}
	return system, user, nil
}

func (r *Router) resolveText(ctx context.Context, jobID, key, fallback string) string {
	p, err := r.resolver.Resolve(ctx, key, jobID)
	if err != nil || p == nil {
		return fallback
	}
	return p.Text
}

// resolveTemplate resolves a prompt and renders it as a template. A
// malformed override falls back to the already rendered default.
func (r *Router) resolveTemplate(ctx context.Context, jobID, key, fallback string, data any) string {
	p, err := r.resolver.Resolve(ctx, key, jobID)
	if err != nil || p == nil || !p.IsOverride {
		return fallback
	}
	tmpl, err := template.New(key).Parse(p.Text)
	if err != nil {
		r.logger.Warn("invalid prompt override", "key", key, "job_id", jobID, "error", err)
		return fallback
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		r.logger.Warn("prompt override failed to render", "key", key, "job_id", jobID, "error", err)
		return fallback
	}
	return buf.String()
}
