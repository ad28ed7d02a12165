package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackzampolin/redline/internal/types"
)

// Run is a persisted processing run with its aggregate stats.
type Run struct {
	ID        string         `json:"id"`
	JobID     string         `json:"job_id"`
	Stats     types.RunStats `json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
}

// SaveRun persists a run's stats together with its change log in one
// transaction, keeping the audit trail consistent with the counters.
func (s *Store) SaveRun(ctx context.Context, jobID string, stats types.RunStats, changes []types.ChangeRecord) error {
	encStats, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, job_id, stats, created_at)
		VALUES (?, ?, ?, ?)`,
		stats.RunID, jobID, string(encStats), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM changes WHERE run_id = ?`, stats.RunID); err != nil {
		return fmt.Errorf("clearing prior change log: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (run_id, region_id, unit_id, operation, before_text, after_text, strategy, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing change insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		failed := 0
		if c.Failed {
			failed = 1
		}
		_, err := stmt.ExecContext(ctx, stats.RunID, c.RegionID, c.UnitID,
			string(c.Op), c.Before, c.After, string(c.Strategy), failed, c.Err)
		if err != nil {
			return fmt.Errorf("inserting change record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	s.logger.Info("run saved", "run", stats.RunID, "job", jobID, "changes", len(changes))
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run      Run
		encStats string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, job_id, stats, created_at FROM runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.JobID, &encStats, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	if err := json.Unmarshal([]byte(encStats), &run.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	return &run, nil
}

// ListRuns returns all runs for a job, newest first.
func (s *Store) ListRuns(ctx context.Context, jobID string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, stats, created_at FROM runs
		WHERE job_id = ? ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run      Run
			encStats string
		)
		if err := rows.Scan(&run.ID, &run.JobID, &encStats, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal([]byte(encStats), &run.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// GetChanges returns a run's change log in application order.
func (s *Store) GetChanges(ctx context.Context, runID string) ([]types.ChangeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region_id, unit_id, operation, before_text, after_text, strategy, failed, error
		FROM changes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying change log: %w", err)
	}
	defer rows.Close()

	var changes []types.ChangeRecord
	for rows.Next() {
		var (
			c        types.ChangeRecord
			op       string
			strategy string
			failed   int
		)
		if err := rows.Scan(&c.RegionID, &c.UnitID, &op, &c.Before, &c.After, &strategy, &failed, &c.Err); err != nil {
			return nil, fmt.Errorf("scanning change record: %w", err)
		}
		c.Op = types.Operation(op)
		c.Strategy = types.MatchStrategy(strategy)
		c.Failed = failed != 0
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
