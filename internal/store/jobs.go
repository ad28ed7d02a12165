package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job record.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job is a persisted job record.
type Job struct {
	ID          string         `json:"id"`
	JobType     string         `json:"job_type"`
	Status      JobStatus      `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Status  JobStatus // Empty matches all
	JobType string    // Empty matches all
	Limit   int       // Zero defaults to 100
}

// CreateJob inserts a new queued job record.
func (s *Store) CreateJob(ctx context.Context, id, jobType string, metadata map[string]any) error {
	meta, err := encodeMap(metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, job_type, status, created_at, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		id, jobType, string(StatusQueued), time.Now().UTC(), meta)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	s.logger.Info("job created", "id", id, "type", jobType)
	return nil
}

// GetJob returns a job record by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_type, status, created_at, started_at, completed_at, error, metadata, result
		FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// ListJobs returns jobs matching the filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := `
		SELECT id, job_type, status, created_at, started_at, completed_at, error, metadata, result
		FROM jobs WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.JobType != "" {
		query += " AND job_type = ?"
		args = append(args, filter.JobType)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus transitions a job's status. Moving to running stamps
// started_at; reaching a terminal status stamps completed_at.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	now := time.Now().UTC()
	var res sql.Result
	var err error
	switch {
	case status == StatusRunning:
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, started_at = ?, error = ? WHERE id = ?`,
			string(status), now, errMsg, id)
	case status.Terminal():
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
			string(status), now, errMsg, id)
	default:
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error = ? WHERE id = ?`,
			string(status), errMsg, id)
	}
	if err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}
	return requireRow(res, id)
}

// UpdateJobMetadata replaces a job's metadata, for progress tracking.
func (s *Store) UpdateJobMetadata(ctx context.Context, id string, metadata map[string]any) error {
	meta, err := encodeMap(metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET metadata = ? WHERE id = ?`, meta, id)
	if err != nil {
		return fmt.Errorf("updating job metadata: %w", err)
	}
	return requireRow(res, id)
}

// SetJobResult stores the completion payload reported to API clients.
func (s *Store) SetJobResult(ctx context.Context, id string, result map[string]any) error {
	enc, err := encodeMap(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET result = ? WHERE id = ?`, enc, id)
	if err != nil {
		return fmt.Errorf("updating job result: %w", err)
	}
	return requireRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job       Job
		status    string
		started   sql.NullTime
		completed sql.NullTime
		meta      string
		result    string
	)
	err := row.Scan(&job.ID, &job.JobType, &status, &job.CreatedAt,
		&started, &completed, &job.Error, &meta, &result)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	job.Status = JobStatus(status)
	if started.Valid {
		job.StartedAt = &started.Time
	}
	if completed.Valid {
		job.CompletedAt = &completed.Time
	}
	if err := json.Unmarshal([]byte(meta), &job.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &job.Result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &job, nil
}

func encodeMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}
