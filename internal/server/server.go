package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/home"
	"github.com/jackzampolin/redline/internal/jobs"
	"github.com/jackzampolin/redline/internal/pipeline"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/server/endpoints"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/svcctx"
)

// Server is the main Redline HTTP server. It owns the embedded database
// and the background job runner: both come up on Start and are torn down
// on shutdown.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	concurrency int

	store      *store.Store
	jobManager *jobs.Manager
	runner     *jobs.Runner

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the redline home directory holding the database and data
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Concurrency bounds how many jobs run at once (default from config)
	Concurrency int
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = h
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	concurrency := cfg.Concurrency
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToRegistryConfig())
		if concurrency <= 0 {
			concurrency = cfg.ConfigManager.Get().Defaults.MaxWorkers
		}

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		home:        cfg.Home,
		registry:    registry,
		configMgr:   cfg.ConfigManager,
		concurrency: concurrency,
		logger:      cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the database, starts the job runner, and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	st, err := store.Open(s.home.DatabasePath(), s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.store = st
	s.logger.Info("database ready", "path", s.home.DatabasePath())

	// Seed runtime settings so the settings API always has entries.
	configStore := config.NewStore(st)
	if err := config.SeedDefaults(ctx, configStore, s.logger); err != nil {
		s.logger.Warn("failed to seed default settings", "error", err)
	}

	// Prompt resolver with job overrides backed by the store.
	resolver := prompts.NewResolver(st, s.logger)
	prompts.RegisterDefaults(resolver)

	var pipeCfg *pipeline.Config
	if s.configMgr != nil {
		c := s.configMgr.Get()
		pc := pipeline.DefaultConfig()
		pc.Extract.Detector = c.ToDetectorConfig()
		pc.Matcher = c.ToMatcherConfig()
		pipeCfg = &pc
	}

	s.jobManager = jobs.NewManager(st, s.logger)
	s.runner = jobs.NewRunner(s.jobManager, jobs.Dependencies{
		Store:     st,
		Providers: s.registry,
		Resolver:  resolver,
		Logger:    s.logger,
		Pipeline:  pipeCfg,
	}, jobs.RunnerConfig{
		Concurrency: s.concurrency,
		Logger:      s.logger,
	})
	s.runner.RegisterFactory(jobs.TypeProcessDocument, jobs.NewProcessDocumentJob)

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		s.runner.Start(runnerCtx)
	}()

	// Create services struct for context enrichment
	s.mu.Lock()
	s.services = &svcctx.Services{
		Store:       st,
		JobManager:  s.jobManager,
		Runner:      s.runner,
		Registry:    s.registry,
		Resolver:    resolver,
		ConfigStore: configStore,
		Logger:      s.logger,
		Home:        s.home,
	}
	s.mu.Unlock()

	if s.configMgr != nil {
		s.configMgr.WatchConfig()
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	var httpErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		httpErr = err
	}

	shutdownErr := s.shutdown(stopRunner, runnerDone)
	if httpErr != nil {
		return fmt.Errorf("HTTP server error: %w", httpErr)
	}
	return shutdownErr
}

// shutdown performs graceful shutdown of the HTTP server, job runner, and
// database.
func (s *Server) shutdown(stopRunner context.CancelFunc, runnerDone <-chan struct{}) error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the runner and wait for in-flight jobs to record their status.
	stopRunner()
	select {
	case <-runnerDone:
	case <-shutdownCtx.Done():
		s.logger.Warn("timed out waiting for job runner to stop")
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.services = nil
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// JobManager returns the job manager.
// Returns nil if the server hasn't started yet.
func (s *Server) JobManager() *jobs.Manager {
	return s.jobManager
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the store or job runner aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.services != nil
		s.mu.RUnlock()
		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
