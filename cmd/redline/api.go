package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Redline server via HTTP.

These commands require a running server (redline serve).
Use --server to specify a custom server URL.

Examples:
  redline api health                  # Check server health
  redline api jobs list               # List all jobs
  redline api jobs status <id>        # Poll a job's status
  redline api runs get <run-id>       # Inspect a run's change log`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job management commands",
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run inspection commands",
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Prompt and override commands",
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configuration settings commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	for _, ep := range endpoints.JobCommands() {
		jobsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.RunCommands() {
		runsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.PromptCommands() {
		promptsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.SettingsCommands() {
		settingsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(jobsCmd)
	apiCmd.AddCommand(runsCmd)
	apiCmd.AddCommand(promptsCmd)
	apiCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(apiCmd)
}
