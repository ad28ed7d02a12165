package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ConfigEntry is one persisted runtime configuration entry. Values are
// stored as JSON so numbers and booleans round-trip.
type ConfigEntry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// SetConfigEntry creates or replaces a config entry.
func (s *Store) SetConfigEntry(ctx context.Context, entry ConfigEntry) error {
	value, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("encoding config value: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO config_entries (key, value, description) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, description = excluded.description`,
		entry.Key, string(value), entry.Description)
	if err != nil {
		return fmt.Errorf("setting config entry: %w", err)
	}
	return nil
}

// GetConfigEntry returns a config entry by key.
func (s *Store) GetConfigEntry(ctx context.Context, key string) (*ConfigEntry, error) {
	var (
		entry ConfigEntry
		value string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, description FROM config_entries WHERE key = ?`, key).
		Scan(&entry.Key, &value, &entry.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying config entry: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &entry.Value); err != nil {
		return nil, fmt.Errorf("decoding config value: %w", err)
	}
	return &entry, nil
}

// ListConfigEntries returns entries whose key starts with prefix; an empty
// prefix returns everything.
func (s *Store) ListConfigEntries(ctx context.Context, prefix string) ([]ConfigEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, description FROM config_entries
		WHERE key LIKE ? ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing config entries: %w", err)
	}
	defer rows.Close()

	var entries []ConfigEntry
	for rows.Next() {
		var (
			entry ConfigEntry
			value string
		)
		if err := rows.Scan(&entry.Key, &value, &entry.Description); err != nil {
			return nil, fmt.Errorf("scanning config entry: %w", err)
		}
		if err := json.Unmarshal([]byte(value), &entry.Value); err != nil {
			return nil, fmt.Errorf("decoding config value: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteConfigEntry removes a config entry; missing keys are not an error.
func (s *Store) DeleteConfigEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM config_entries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting config entry: %w", err)
	}
	return nil
}
