package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/redline/internal/store"
)

// RunnerConfig configures the job runner.
type RunnerConfig struct {
	// Concurrency bounds how many jobs execute at once (default 2).
	Concurrency int
	// PollInterval is how often the queue is checked (default 1s).
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Runner polls for queued jobs and executes them. Each running job gets
// its own cancellable context so individual jobs can be cancelled without
// stopping the runner.
type Runner struct {
	mgr       *Manager
	deps      Dependencies
	factories map[string]Factory
	logger    *slog.Logger

	concurrency  int
	pollInterval time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
	sem     chan struct{}
}

// NewRunner creates a runner over the manager.
func NewRunner(mgr *Manager, deps Dependencies, cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	return &Runner{
		mgr:          mgr,
		deps:         deps,
		factories:    make(map[string]Factory),
		logger:       logger.With("component", "runner"),
		concurrency:  concurrency,
		pollInterval: poll,
		cancels:      make(map[string]context.CancelFunc),
		sem:          make(chan struct{}, concurrency),
	}
}

// RegisterFactory registers a job factory for a job type. Must be called
// before Start.
func (r *Runner) RegisterFactory(jobType string, f Factory) {
	r.factories[jobType] = f
}

// Start polls for queued jobs until ctx is cancelled, then waits for
// running jobs to finish.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.Info("runner started", "concurrency", r.concurrency)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping")
			r.wg.Wait()
			return
		case <-ticker.C:
			r.dispatch(ctx)
		}
	}
}

// Cancel stops a job. Running jobs get their context cancelled; queued
// jobs are marked cancelled directly.
func (r *Runner) Cancel(ctx context.Context, jobID string) error {
	r.mu.Lock()
	cancel, running := r.cancels[jobID]
	r.mu.Unlock()
	if running {
		cancel()
		return nil
	}

	rec, err := r.mgr.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if rec.Status != store.StatusQueued {
		return fmt.Errorf("job %s is %s, cannot cancel", jobID, rec.Status)
	}
	return r.mgr.UpdateStatus(ctx, jobID, store.StatusCancelled, "")
}

func (r *Runner) dispatch(ctx context.Context) {
	queued, err := r.mgr.List(ctx, store.JobFilter{Status: store.StatusQueued})
	if err != nil {
		r.logger.Warn("failed to list queued jobs", "error", err)
		return
	}
	// Oldest first; List returns newest first.
	for i := len(queued) - 1; i >= 0; i-- {
		rec := queued[i]
		select {
		case r.sem <- struct{}{}:
		default:
			return // All slots busy; next poll picks the rest up.
		}

		if err := r.mgr.UpdateStatus(ctx, rec.ID, store.StatusRunning, ""); err != nil {
			r.logger.Warn("failed to claim job", "id", rec.ID, "error", err)
			<-r.sem
			continue
		}

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer func() { <-r.sem }()
			r.execute(ctx, rec)
		}()
	}
}

func (r *Runner) execute(ctx context.Context, rec *store.Job) {
	factory, ok := r.factories[rec.JobType]
	if !ok {
		r.finish(rec.ID, store.StatusFailed, fmt.Sprintf("unknown job type %q", rec.JobType))
		return
	}
	job, err := factory(rec)
	if err != nil {
		r.finish(rec.ID, store.StatusFailed, err.Error())
		return
	}

	jctx, cancel := context.WithCancel(ContextWithDeps(ctx, r.deps))
	r.mu.Lock()
	r.cancels[rec.ID] = cancel
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.cancels, rec.ID)
		r.mu.Unlock()
	}()

	r.logger.Info("job started", "id", rec.ID, "type", rec.JobType)
	err = job.Execute(jctx)
	switch {
	case err == nil:
		r.finish(rec.ID, store.StatusCompleted, "")
	case errors.Is(err, context.Canceled) || errors.Is(jctx.Err(), context.Canceled):
		r.finish(rec.ID, store.StatusCancelled, err.Error())
	default:
		r.finish(rec.ID, store.StatusFailed, err.Error())
	}
}

// finish records the terminal status using a fresh context: the runner's
// context may already be cancelled and the final status must still land.
func (r *Runner) finish(jobID string, status store.JobStatus, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.mgr.UpdateStatus(ctx, jobID, status, errMsg); err != nil {
		r.logger.Error("failed to record job status", "id", jobID, "status", status, "error", err)
		return
	}
	r.logger.Info("job finished", "id", jobID, "status", status)
}
