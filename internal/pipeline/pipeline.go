// Package pipeline sequences a full processing run: classify the document,
// extract every marked-up region through the vision oracle, then match and
// apply the resulting changes to the destination document.
//
// Region extraction is I/O-bound and independent per region, so it runs on a
// bounded worker pool sized from the oracle's rate limit, with a shared token
// bucket pacing the calls under that limit. Matching and
// applying share the destination unit pool and run serialized in region
// order - concurrent application would make earliest-wins tie-breaking and
// unit consumption non-deterministic.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/redline/internal/apply"
	"github.com/jackzampolin/redline/internal/classify"
	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/extract"
	"github.com/jackzampolin/redline/internal/match"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/types"
)

// maxExtractWorkers caps the pool regardless of the advertised rate limit.
const maxExtractWorkers = 8

// Config holds the orchestrator configuration.
type Config struct {
	Extract extract.Config
	Matcher match.Config
	// Workers bounds the concurrent extraction pool. Zero derives the
	// bound from the vision client's requests-per-second.
	Workers int
}

// DefaultConfig returns the standard orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Extract: extract.DefaultConfig(),
		Matcher: match.DefaultConfig(),
	}
}

// Input describes one processing run.
type Input struct {
	RunID string
	// JobID scopes prompt override resolution. Empty falls back to RunID.
	JobID string
	// Pages holds full-page images used as classification evidence.
	Pages [][]byte
	// Regions are the marked-up source regions in document order.
	Regions []types.SourceRegion
	// Destination is the opened document changes are applied to.
	Destination dest.Document
	// OutputPath is where the corrected document is saved.
	OutputPath string
}

// Result is the outcome of one run. Stats are always populated, even when
// the run fails partway through.
type Result struct {
	Stats   types.RunStats
	Changes []types.ChangeRecord
}

// Orchestrator runs the end-to-end change detection and application flow.
type Orchestrator struct {
	client     providers.VisionClient
	classifier *classify.Classifier
	router     *extract.Router
	limiter    *providers.RateLimiter
	cfg        Config
	logger     *slog.Logger
}

// New creates an orchestrator around a vision client. The resolver may be
// nil, in which case embedded prompt defaults are used everywhere.
func New(client providers.VisionClient, resolver *prompts.Resolver, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Extract.MaxAttempts == 0 {
		cfg.Extract = extract.DefaultConfig()
	}
	return &Orchestrator{
		client:     client,
		classifier: classify.New(client, logger),
		router:     extract.NewRouter(client, resolver, cfg.Extract, logger),
		limiter:    providers.NewRateLimiter(int(client.RequestsPerSecond() * 60)),
		cfg:        cfg,
		logger:     logger.With("component", "pipeline"),
	}
}

// Run processes one document pair. It returns the partial result alongside
// the error when the run fails: cancellation and save failures still report
// whatever was counted before the run stopped. Per-region extraction
// failures are not errors; they are recorded in the stats and the run
// continues.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	res := &Result{Stats: types.RunStats{RunID: in.RunID}}
	defer func() { res.Stats.Elapsed = time.Since(start) }()

	if in.Destination == nil {
		return res, fmt.Errorf("run %s: no destination document", in.RunID)
	}
	units, err := in.Destination.Units()
	if err != nil {
		return res, fmt.Errorf("run %s: load destination units: %w", in.RunID, err)
	}

	modeResult := o.classifier.Classify(ctx, in.Pages)
	res.Stats.Mode = modeResult.Mode
	o.logger.Info("classified document",
		"run", in.RunID,
		"mode", modeResult.Mode,
		"confidence", modeResult.Confidence,
		"regions", len(in.Regions))

	overrideID := in.JobID
	if overrideID == "" {
		overrideID = in.RunID
	}
	extractions := o.extractAll(ctx, overrideID, modeResult.Mode, in.Regions)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run %s: cancelled during extraction: %w", in.RunID, err)
	}

	matcher := match.New(units, o.cfg.Matcher)
	applier := apply.New(in.Destination, o.logger)
	unitText := make(map[string]string, len(units))
	for _, u := range units {
		unitText[u.ID] = u.Text
	}

	for i, region := range in.Regions {
		if err := ctx.Err(); err != nil {
			res.Changes = applier.Records()
			return res, fmt.Errorf("run %s: cancelled after %d regions: %w", in.RunID, i, err)
		}
		res.Stats.ChunksProcessed++
		o.applyRegion(&res.Stats, matcher, applier, unitText, region, extractions[i])
	}
	res.Changes = applier.Records()

	if err := in.Destination.Save(in.OutputPath); err != nil {
		return res, fmt.Errorf("run %s: save output: %w", in.RunID, err)
	}
	res.Stats.OutputPath = in.OutputPath

	o.logger.Info("run complete",
		"run", in.RunID,
		"chunks", res.Stats.ChunksProcessed,
		"changes", res.Stats.Changes.TotalChangesApplied,
		"unmatched", res.Stats.Unmatched,
		"output", in.OutputPath)
	return res, nil
}

// extractAll runs region extraction on a bounded worker pool and returns
// the results indexed by region position. Each worker takes a token from
// the shared limiter before calling the oracle.
func (o *Orchestrator) extractAll(ctx context.Context, runID string, mode types.DocumentMode, regions []types.SourceRegion) []types.ExtractionResult {
	results := make([]types.ExtractionResult, len(regions))
	if len(regions) == 0 {
		return results
	}

	workers := o.workerCount(len(regions))
	o.logger.Debug("starting extraction pool", "run", runID, "workers", workers)

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				err := ctx.Err()
				if err == nil {
					err = o.limiter.Wait(ctx)
				}
				if err != nil {
					results[i] = types.ExtractionResult{
						RegionID: regions[i].ID,
						Failed:   true,
						Err:      err.Error(),
					}
					continue
				}
				results[i] = o.router.ExtractRegion(ctx, runID, mode, regions[i])
			}
		}()
	}
	for i := range regions {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}

func (o *Orchestrator) workerCount(regions int) int {
	workers := o.cfg.Workers
	if workers <= 0 {
		workers = int(o.client.RequestsPerSecond())
	}
	if workers < 1 {
		workers = 1
	}
	if workers > maxExtractWorkers {
		workers = maxExtractWorkers
	}
	if workers > regions {
		workers = regions
	}
	return workers
}

// applyRegion runs the serialized match-and-apply step for one region.
// A struck-through region with no handwriting is a pure deletion: the
// section name is the only text available to locate the target unit.
func (o *Orchestrator) applyRegion(stats *types.RunStats, matcher *match.Matcher, applier *apply.Applier, unitText map[string]string, region types.SourceRegion, ex types.ExtractionResult) {
	if ex.Failed {
		stats.Sections.FailedSections++
		o.logger.Warn("region failed", "region", region.ID, "error", ex.Err)
		return
	}

	candidate := ex.Text
	if ex.NoText {
		if !ex.Strike.HasDiagonal {
			stats.Sections.EmptySections++
			return
		}
		candidate = region.Name
	}
	stats.Sections.SuccessfulSections++

	m := matcher.Match(region.ID, candidate)
	stats.RecordMatch(m.Strategy)
	if !m.Accepted {
		o.logger.Debug("no destination unit matched", "region", region.ID)
		return
	}

	op := apply.InferOperation(ex.Strike.HasDiagonal, ex.NoText, ex.Text)
	after := ex.Text
	if op == types.OpAppend {
		after = apply.AppendDelta(unitText[m.UnitID], ex.Text)
		if after == "" {
			// The anchor already carries every extracted line.
			return
		}
	}
	rec := applier.Apply(m, op, unitText[m.UnitID], after)
	if rec.Failed {
		stats.Changes.FailedApplications++
		return
	}
	stats.RecordChange(op)
	if op != types.OpAppend {
		matcher.Consume(m.UnitID)
	}
}
