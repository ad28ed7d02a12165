package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/home"
	"github.com/jackzampolin/redline/internal/server"
)

var (
	serveHost        string
	servePort        string
	serveConcurrency int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Redline server",
	Long: `Start the Redline HTTP server.

The server opens the embedded database under the home directory and runs
the background job runner. Document processing jobs submitted through the
API execute asynchronously; when the server shuts down (via Ctrl+C or
SIGTERM), running jobs record their final status before exit.

Examples:
  redline serve                  # Start on default port 8080
  redline serve --port 3000      # Start on custom port
  redline serve --host 0.0.0.0   # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: cfgMgr,
			Concurrency:   serveConcurrency,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().IntVar(&serveConcurrency, "concurrency", 0, "Concurrent jobs (0 = from config)")

	rootCmd.AddCommand(serveCmd)
}
