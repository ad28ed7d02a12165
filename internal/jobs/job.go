// Package jobs manages background job records and their execution. The
// manager handles record CRUD against the store; the runner picks up
// queued jobs and executes them with cancellation support.
package jobs

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/redline/internal/pipeline"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/store"
)

// Job is the interface all job types implement.
type Job interface {
	// Type returns the job type identifier.
	Type() string

	// Execute runs the job. It should respect context cancellation.
	// Dependencies are retrieved via DepsFromContext(ctx).
	//
	// Execute must be idempotent: jobs may be retried after failures,
	// so implementations must tolerate partially-applied prior work.
	Execute(ctx context.Context) error
}

// Factory builds a job instance from its stored record.
type Factory func(rec *store.Job) (Job, error)

// Dependencies provides shared resources to executing jobs.
type Dependencies struct {
	Store     *store.Store
	Providers *providers.Registry
	Resolver  *prompts.Resolver
	Logger    *slog.Logger
	// Pipeline overrides the orchestrator configuration. Nil means the
	// tuned defaults.
	Pipeline *pipeline.Config
}

type depsKey struct{}

// ContextWithDeps returns a new context with Dependencies attached.
func ContextWithDeps(ctx context.Context, deps Dependencies) context.Context {
	return context.WithValue(ctx, depsKey{}, deps)
}

// DepsFromContext retrieves Dependencies from the context. Returns zero
// Dependencies if none are attached.
func DepsFromContext(ctx context.Context) Dependencies {
	deps, ok := ctx.Value(depsKey{}).(Dependencies)
	if !ok {
		return Dependencies{}
	}
	return deps
}
