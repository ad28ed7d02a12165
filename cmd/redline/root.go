package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "Change detection and application engine for marked-up documents",
	Long: `Redline turns human-marked-up scanned documents into corrected output
documents. It extracts handwritten corrections from region images with a
vision model, matches each correction to the destination document, and
applies it as a replacement, deletion, or append.

The pipeline includes:
  - Document mode classification (handwriting vs hybrid markup)
  - Strike-through detection on region images
  - Vision-model extraction with retry and rate limiting
  - Exact, similarity, and keyword matching against the destination
  - Word, PDF form, and plain text output adapters`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.redline/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "redline home directory (default: ~/.redline)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
