package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/home"
	"github.com/jackzampolin/redline/internal/ingest"
)

var (
	ingestDocID string
	ingestDPI   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <pdf> [pdf...]",
	Short: "Render scanned PDFs into page images",
	Long: `Render scanned marked-up PDFs into per-page PNG images under the home
data directory. Multi-part scans (scan-1.pdf, scan-2.pdf, ...) are sorted
by numeric suffix and numbered continuously.

Requires pdftoppm (poppler-utils) on the PATH.

Examples:
  redline ingest review-scan.pdf
  redline ingest scan-1.pdf scan-2.pdf --doc client-review`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		res, err := ingest.Ingest(cmd.Context(), h, ingest.Request{
			PDFPaths: args,
			DocID:    ingestDocID,
			DPI:      ingestDPI,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		return api.Output(map[string]any{
			"doc_id":     res.DocID,
			"page_count": res.PageCount,
			"pages_dir":  res.PagesDir,
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "doc", "", "Document ID (default: generated)")
	ingestCmd.Flags().IntVar(&ingestDPI, "dpi", 300, "Render resolution in DPI")

	rootCmd.AddCommand(ingestCmd)
}
