package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackzampolin/redline/internal/store"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
// This protects against typos and malformed keys.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Entry represents a single configuration entry.
type Entry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// Store provides access to runtime configuration overrides. No caching -
// reads fresh from the database each time.
type Store interface {
	// Get returns a single config entry by key.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set creates or updates a config entry.
	Set(ctx context.Context, key string, value any, description string) error

	// GetAll returns all config entries.
	GetAll(ctx context.Context) (map[string]Entry, error)

	// GetByPrefix returns config entries matching the prefix.
	GetByPrefix(ctx context.Context, prefix string) (map[string]Entry, error)

	// Delete removes a config entry.
	Delete(ctx context.Context, key string) error
}

// SQLiteStore implements Store over the embedded database.
type SQLiteStore struct {
	db *store.Store
}

// NewStore creates a SQLite-backed config store.
func NewStore(db *store.Store) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns a single config entry by key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	entry, err := s.db.GetConfigEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Entry{Key: entry.Key, Value: entry.Value, Description: entry.Description}, nil
}

// Set creates or updates a config entry.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any, description string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.db.SetConfigEntry(ctx, store.ConfigEntry{
		Key:         key,
		Value:       value,
		Description: description,
	})
}

// GetAll returns all config entries.
func (s *SQLiteStore) GetAll(ctx context.Context) (map[string]Entry, error) {
	return s.GetByPrefix(ctx, "")
}

// GetByPrefix returns config entries matching the prefix.
func (s *SQLiteStore) GetByPrefix(ctx context.Context, prefix string) (map[string]Entry, error) {
	entries, err := s.db.ListConfigEntries(ctx, prefix)
	if err != nil {
		return nil, err
	}
	result := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if prefix != "" && !strings.HasPrefix(e.Key, prefix) {
			continue
		}
		result[e.Key] = Entry{Key: e.Key, Value: e.Value, Description: e.Description}
	}
	return result, nil
}

// Delete removes a config entry.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.db.DeleteConfigEntry(ctx, key)
}

var _ Store = (*SQLiteStore)(nil)
