package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jackzampolin/redline/internal/store"
)

// Manager handles job record CRUD against the store. It does not execute
// jobs; the Runner does that and reports status through the manager.
type Manager struct {
	store  *store.Store
	logger *slog.Logger
}

// NewManager creates a job manager.
func NewManager(s *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: s, logger: logger}
}

// Create inserts a new queued job and returns its ID.
func (m *Manager) Create(ctx context.Context, jobType string, metadata map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.store.CreateJob(ctx, id, jobType, metadata); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	m.logger.Info("job created", "id", id, "type", jobType)
	return id, nil
}

// Get returns a job record by ID.
func (m *Manager) Get(ctx context.Context, jobID string) (*store.Job, error) {
	return m.store.GetJob(ctx, jobID)
}

// List returns jobs matching the filter.
func (m *Manager) List(ctx context.Context, filter store.JobFilter) ([]*store.Job, error) {
	return m.store.ListJobs(ctx, filter)
}

// UpdateStatus updates a job's status.
func (m *Manager) UpdateStatus(ctx context.Context, jobID string, status store.JobStatus, errMsg string) error {
	return m.store.UpdateJobStatus(ctx, jobID, status, errMsg)
}

// UpdateMetadata updates a job's metadata, for progress tracking.
func (m *Manager) UpdateMetadata(ctx context.Context, jobID string, metadata map[string]any) error {
	return m.store.UpdateJobMetadata(ctx, jobID, metadata)
}

// SetResult stores the completion payload surfaced by the status API.
func (m *Manager) SetResult(ctx context.Context, jobID string, result map[string]any) error {
	return m.store.SetJobResult(ctx, jobID, result)
}
