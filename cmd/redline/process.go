package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/home"
	"github.com/jackzampolin/redline/internal/jobs"
	"github.com/jackzampolin/redline/internal/pipeline"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/store"
)

var (
	processRegions     string
	processPages       string
	processDestination string
	processOutput      string
	processProvider    string
	processVerbose     bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a marked-up document locally",
	Long: `Process a marked-up document without a running server.

This runs the full pipeline in-process: classify the document mode,
extract corrections from the region images, match them against the
destination document, apply them, and save the corrected output. The run
is recorded in the local database so it shows up in job history.

Examples:
  redline process --regions ./regions --destination review.docx --out corrected.docx
  redline process --regions ./regions --pages ./pages --destination form.pdf --out filled.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelWarn
		if processVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		registry := providers.NewRegistryFromConfig(cfg.ToRegistryConfig())
		registry.SetLogger(logger)

		st, err := store.Open(h.DatabasePath(), logger)
		if err != nil {
			return err
		}
		defer st.Close()

		resolver := prompts.NewResolver(st, logger)
		prompts.RegisterDefaults(resolver)

		pipeCfg := pipeline.DefaultConfig()
		pipeCfg.Extract.Detector = cfg.ToDetectorConfig()
		pipeCfg.Matcher = cfg.ToMatcherConfig()

		metadata := map[string]any{
			"regions_dir": processRegions,
			"destination": processDestination,
			"output":      processOutput,
		}
		if processPages != "" {
			metadata["pages_dir"] = processPages
		}
		if processProvider != "" {
			metadata["provider"] = processProvider
		}

		mgr := jobs.NewManager(st, logger)
		id, err := mgr.Create(ctx, jobs.TypeProcessDocument, metadata)
		if err != nil {
			return err
		}
		rec, err := mgr.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := mgr.UpdateStatus(ctx, id, store.StatusRunning, ""); err != nil {
			return err
		}

		job, err := jobs.NewProcessDocumentJob(rec)
		if err != nil {
			_ = mgr.UpdateStatus(ctx, id, store.StatusFailed, err.Error())
			return err
		}

		deps := jobs.Dependencies{
			Store:     st,
			Providers: registry,
			Resolver:  resolver,
			Logger:    logger,
			Pipeline:  &pipeCfg,
		}
		runErr := job.Execute(jobs.ContextWithDeps(ctx, deps))
		if runErr != nil {
			_ = mgr.UpdateStatus(ctx, id, store.StatusFailed, runErr.Error())
		} else {
			_ = mgr.UpdateStatus(ctx, id, store.StatusCompleted, "")
		}

		// The result payload is persisted even for failed runs; show
		// whatever stats were collected before reporting the error.
		if rec, err = mgr.Get(ctx, id); err == nil && rec.Result != nil {
			if outErr := api.Output(rec.Result); outErr != nil {
				return outErr
			}
		}
		if runErr != nil {
			return fmt.Errorf("processing failed: %w", runErr)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processRegions, "regions", "", "Directory of marked-up region images (required)")
	processCmd.Flags().StringVar(&processPages, "pages", "", "Directory of full-page images for classification")
	processCmd.Flags().StringVar(&processDestination, "destination", "", "Destination document to apply changes to (required)")
	processCmd.Flags().StringVar(&processOutput, "out", "", "Path for the corrected output document (required)")
	processCmd.Flags().StringVar(&processProvider, "provider", "", "Vision provider name (default: openai)")
	processCmd.Flags().BoolVar(&processVerbose, "verbose", false, "Enable debug logging")
	_ = processCmd.MarkFlagRequired("regions")
	_ = processCmd.MarkFlagRequired("destination")
	_ = processCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(processCmd)
}
