package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SetPromptOverride stores (or replaces) a per-job prompt override.
func (s *Store) SetPromptOverride(ctx context.Context, jobID, key, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_overrides (job_id, key, text) VALUES (?, ?, ?)
		ON CONFLICT (job_id, key) DO UPDATE SET text = excluded.text`,
		jobID, key, text)
	if err != nil {
		return fmt.Errorf("setting prompt override: %w", err)
	}
	return nil
}

// GetPromptOverride returns the override text for a job and prompt key, or
// "" when none exists. Implements prompts.OverrideSource.
func (s *Store) GetPromptOverride(ctx context.Context, jobID, key string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `
		SELECT text FROM prompt_overrides WHERE job_id = ? AND key = ?`,
		jobID, key).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying prompt override: %w", err)
	}
	return text, nil
}

// DeletePromptOverride removes an override; missing rows are not an error.
func (s *Store) DeletePromptOverride(ctx context.Context, jobID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM prompt_overrides WHERE job_id = ? AND key = ?`, jobID, key)
	if err != nil {
		return fmt.Errorf("deleting prompt override: %w", err)
	}
	return nil
}
