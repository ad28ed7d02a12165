// Package ingest renders scanned marked-up PDFs into per-page images
// under the home data directory. The rendered pages feed document mode
// classification and are the source material for region cropping.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/redline/internal/home"
)

// Request contains the parameters for ingesting a scanned document.
type Request struct {
	// PDFPaths are the scan files, sorted by numeric suffix before
	// rendering so multi-part scans keep page order.
	PDFPaths []string
	// DocID identifies the document. Empty generates a new ID.
	DocID string
	// DPI is the render resolution (default 300).
	DPI int
	// Logger for progress updates.
	Logger *slog.Logger
}

// Result describes a completed ingest.
type Result struct {
	DocID     string
	PageCount int
	PagesDir  string
}

// Ingest renders all pages of the given PDFs into the document's pages
// directory. Page numbering is continuous across multi-part scans.
func Ingest(ctx context.Context, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.PDFPaths) == 0 {
		return nil, fmt.Errorf("no PDF paths provided")
	}
	for _, p := range req.PDFPaths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("PDF not found: %s", p)
		}
	}

	docID := req.DocID
	if docID == "" {
		docID = uuid.NewString()
	}
	dpi := req.DPI
	if dpi <= 0 {
		dpi = 300
	}

	sortedPaths := sortPDFsByNumber(req.PDFPaths)
	log.Info("starting ingest", "pdfs", len(sortedPaths), "doc", docID)

	if err := homeDir.EnsureDocumentDirs(docID); err != nil {
		return nil, fmt.Errorf("failed to create document directories: %w", err)
	}
	outDir := homeDir.PagesDir(docID)

	pageCount := 0
	for i, pdfPath := range sortedPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug("rendering PDF", "file", filepath.Base(pdfPath), "part", i+1, "of", len(sortedPaths))
		count, err := renderPDF(pdfPath, outDir, pageCount, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", pdfPath, err)
		}
		pageCount += count
	}

	if pageCount == 0 {
		return nil, fmt.Errorf("no pages rendered from PDFs")
	}

	log.Info("ingest complete", "doc", docID, "pages", pageCount)
	return &Result{DocID: docID, PageCount: pageCount, PagesDir: outDir}, nil
}

// renderPDF renders every page of one PDF into outDir. pageOffset keeps
// numbering continuous across multi-part scans. Returns the page count.
func renderPDF(pdfPath, outDir string, pageOffset, dpi int) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}

	maxWorkers := runtime.NumCPU()

	type result struct {
		pageNum int
		err     error
	}

	results := make(chan result, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{}
		go func(pageInPDF int) {
			defer func() { <-sem }()
			err := renderPage(pdfPath, outDir, pageInPDF, pageOffset+pageInPDF, dpi)
			results <- result{pageNum: pageInPDF, err: err}
		}(page)
	}

	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			return 0, fmt.Errorf("failed to render page %d: %w", r.pageNum, r.err)
		}
	}

	return pageCount, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils).
func renderPage(pdfPath, outDir string, pageInPDF, outputPageNum, dpi int) error {
	tmpDir, err := os.MkdirTemp("", "redline-page-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(pageInPDF)
	cmd := exec.Command("pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read rendered image: %w", err)
	}

	dstPath := filepath.Join(outDir, fmt.Sprintf("page_%04d.png", outputPageNum))
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write page image: %w", err)
	}

	return nil
}

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["scan-2.pdf", "scan-1.pdf", "scan-10.pdf"] -> ["scan-1.pdf", "scan-2.pdf", "scan-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	re := regexp.MustCompile(`-(\d+)\.pdf$`)

	sort.Slice(sorted, func(i, j int) bool {
		mi := re.FindStringSubmatch(sorted[i])
		mj := re.FindStringSubmatch(sorted[j])

		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}
