package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/redline/internal/dest"
	"github.com/jackzampolin/redline/internal/dest/docx"
	"github.com/jackzampolin/redline/internal/dest/pdfform"
	"github.com/jackzampolin/redline/internal/pipeline"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/types"
)

// TypeProcessDocument identifies the document processing job.
const TypeProcessDocument = "process_document"

// ProcessDocumentJob runs the full change detection and application
// pipeline for one source/destination document pair.
//
// Metadata keys:
//
//	regions_dir - directory of cropped region images, named NN_section.png
//	pages_dir   - optional directory of full-page images for classification
//	destination - destination document path (.docx, .pdf, or plain text)
//	output      - path the corrected document is written to
//	provider    - vision provider name in the registry
type ProcessDocumentJob struct {
	jobID       string
	regionsDir  string
	pagesDir    string
	destination string
	output      string
	provider    string
}

// NewProcessDocumentJob builds the job from its stored record. Factory for
// the runner.
func NewProcessDocumentJob(rec *store.Job) (Job, error) {
	j := &ProcessDocumentJob{
		jobID:       rec.ID,
		regionsDir:  metaString(rec.Metadata, "regions_dir"),
		pagesDir:    metaString(rec.Metadata, "pages_dir"),
		destination: metaString(rec.Metadata, "destination"),
		output:      metaString(rec.Metadata, "output"),
		provider:    metaString(rec.Metadata, "provider"),
	}
	if j.regionsDir == "" || j.destination == "" || j.output == "" {
		return nil, fmt.Errorf("process job %s: regions_dir, destination and output are required", rec.ID)
	}
	return j, nil
}

func (j *ProcessDocumentJob) Type() string { return TypeProcessDocument }

// Execute loads the inputs, runs the pipeline, and persists the run record
// and result payload. The run record is written even when the run fails so
// partial stats survive.
func (j *ProcessDocumentJob) Execute(ctx context.Context) error {
	deps := DepsFromContext(ctx)
	if deps.Providers == nil {
		return fmt.Errorf("process job %s: no provider registry", j.jobID)
	}

	client, err := deps.Providers.Get(j.providerName())
	if err != nil {
		return fmt.Errorf("process job %s: %w", j.jobID, err)
	}

	regions, err := loadRegions(j.regionsDir)
	if err != nil {
		return fmt.Errorf("process job %s: %w", j.jobID, err)
	}
	if len(regions) == 0 {
		return fmt.Errorf("process job %s: no region images in %s", j.jobID, j.regionsDir)
	}

	pages, err := j.classificationPages(regions)
	if err != nil {
		return fmt.Errorf("process job %s: %w", j.jobID, err)
	}

	doc, err := openDestination(j.destination)
	if err != nil {
		return fmt.Errorf("process job %s: open destination: %w", j.jobID, err)
	}

	pipeCfg := pipeline.DefaultConfig()
	if deps.Pipeline != nil {
		pipeCfg = *deps.Pipeline
	}
	o := pipeline.New(client, deps.Resolver, pipeCfg, deps.Logger)
	res, runErr := o.Run(ctx, pipeline.Input{
		RunID:       uuid.NewString(),
		JobID:       j.jobID,
		Pages:       pages,
		Regions:     regions,
		Destination: doc,
		OutputPath:  j.output,
	})

	j.persist(deps, res)
	return runErr
}

// persist writes the run record and result payload on a fresh context so
// they land even when the job context was cancelled.
func (j *ProcessDocumentJob) persist(deps Dependencies, res *pipeline.Result) {
	if deps.Store == nil || res == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := deps.Store.SaveRun(ctx, j.jobID, res.Stats, res.Changes); err != nil && deps.Logger != nil {
		deps.Logger.Error("failed to save run", "job", j.jobID, "error", err)
	}
	if err := deps.Store.SetJobResult(ctx, j.jobID, ResultPayload(res.Stats)); err != nil && deps.Logger != nil {
		deps.Logger.Error("failed to save job result", "job", j.jobID, "error", err)
	}
}

func (j *ProcessDocumentJob) providerName() string {
	if j.provider != "" {
		return j.provider
	}
	return "openai"
}

func (j *ProcessDocumentJob) classificationPages(regions []types.SourceRegion) ([][]byte, error) {
	if j.pagesDir != "" {
		return loadImages(j.pagesDir)
	}
	// No page scans supplied; the first region crops are the best
	// available classification evidence.
	pages := make([][]byte, 0, 2)
	for _, r := range regions {
		pages = append(pages, r.Image)
		if len(pages) == 2 {
			break
		}
	}
	return pages, nil
}

// ResultPayload converts run stats into the completion payload surfaced by
// the job status API.
func ResultPayload(s types.RunStats) map[string]any {
	return map[string]any{
		"run_id":           s.RunID,
		"mode":             string(s.Mode),
		"chunks_processed": s.ChunksProcessed,
		"sections": map[string]any{
			"successful_sections": s.Sections.SuccessfulSections,
			"failed_sections":     s.Sections.FailedSections,
			"empty_sections":      s.Sections.EmptySections,
		},
		"changes": map[string]any{
			"total_changes_applied": s.Changes.TotalChangesApplied,
			"strategy_breakdown": map[string]any{
				"exact_matches":      s.Changes.StrategyBreakdown.ExactMatches,
				"similarity_matches": s.Changes.StrategyBreakdown.SimilarityMatches,
				"keyword_matches":    s.Changes.StrategyBreakdown.KeywordMatches,
				"failed_matches":     s.Changes.StrategyBreakdown.FailedMatches,
			},
			"operation_breakdown": map[string]any{
				"replacements": s.Changes.OperationBreakdown.Replacements,
				"deletions":    s.Changes.OperationBreakdown.Deletions,
				"appends":      s.Changes.OperationBreakdown.Appends,
			},
			"failed_applications": s.Changes.FailedApplications,
		},
		"unmatched":       s.Unmatched,
		"output_path":     s.OutputPath,
		"elapsed_seconds": s.Elapsed.Seconds(),
	}
}

// loadRegions reads region images from a directory. Files are taken in
// name order; an NN_ prefix orders them and is stripped from the section
// name, so "03_review_date.png" becomes section "review_date".
func loadRegions(dir string) ([]types.SourceRegion, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading regions dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	regions := make([]types.SourceRegion, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading region %s: %w", name, err)
		}
		regions = append(regions, types.SourceRegion{
			ID:    fmt.Sprintf("r%03d", i+1),
			Name:  sectionName(name),
			Image: data,
		})
	}
	return regions, nil
}

func loadImages(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pages dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	images := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading page %s: %w", name, err)
		}
		images = append(images, data)
	}
	return images, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func sectionName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if idx := strings.IndexByte(base, '_'); idx > 0 && isDigits(base[:idx]) {
		base = base[idx+1:]
	}
	return base
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// openDestination picks the adapter from the file extension. Anything that
// is not a .docx or .pdf is treated as plain text, one unit per line.
func openDestination(path string) (dest.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return docx.Open(path)
	case ".pdf":
		return pdfform.Open(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return dest.NewMemoryDocument(strings.Split(string(data), "\n")), nil
	}
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
