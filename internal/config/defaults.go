package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// DefaultEntries returns the default runtime configuration entries.
// These are seeded into the store on first run.
func DefaultEntries() []Entry {
	return []Entry{
		// Providers
		{
			Key:         "providers.openai.type",
			Value:       "openai",
			Description: "Provider type for OpenAI",
		},
		{
			Key:         "providers.openai.model",
			Value:       "gpt-4o",
			Description: "Vision model used for extraction and classification",
		},
		{
			Key:         "providers.openai.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "providers.openai.rate_limit",
			Value:       3.0,
			Description: "Rate limit in requests per second for OpenAI",
		},
		{
			Key:         "providers.openai.enabled",
			Value:       true,
			Description: "Whether the OpenAI provider is enabled",
		},
		{
			Key:         "providers.openrouter.type",
			Value:       "openrouter",
			Description: "Provider type for OpenRouter",
		},
		{
			Key:         "providers.openrouter.model",
			Value:       "openai/gpt-4o",
			Description: "Model routed through OpenRouter",
		},
		{
			Key:         "providers.openrouter.api_key",
			Value:       "${OPENROUTER_API_KEY}",
			Description: "OpenRouter API key (uses environment variable)",
		},
		{
			Key:         "providers.openrouter.rate_limit",
			Value:       10.0,
			Description: "Rate limit in requests per second for OpenRouter",
		},
		{
			Key:         "providers.openrouter.enabled",
			Value:       false,
			Description: "Whether the OpenRouter provider is enabled",
		},

		// Strike-through detector
		{
			Key:         "detector.canny_low",
			Value:       28,
			Description: "Lower Canny hysteresis threshold",
		},
		{
			Key:         "detector.canny_high",
			Value:       95,
			Description: "Upper Canny hysteresis threshold",
		},
		{
			Key:         "detector.center_margin",
			Value:       0.15,
			Description: "Fraction of each edge excluded when requiring segment midpoints near the region center",
		},

		// Matcher
		{
			Key:         "matcher.similarity_threshold",
			Value:       0.6,
			Description: "Minimum Jaccard ratio for the similarity strategy",
		},
		{
			Key:         "matcher.keyword_min_overlap",
			Value:       2,
			Description: "Minimum salient-token overlap for the keyword strategy",
		},

		// Pipeline
		{
			Key:         "pipeline.max_workers",
			Value:       4,
			Description: "Maximum concurrent region extraction workers",
		},
		{
			Key:         "pipeline.max_attempts",
			Value:       3,
			Description: "Maximum oracle attempts per region",
		},
	}
}

// SeedDefaults writes any missing default entries to the store. Existing
// entries are left untouched.
func SeedDefaults(ctx context.Context, s Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := s.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("reading existing config: %w", err)
	}

	seeded := 0
	for _, entry := range DefaultEntries() {
		if _, ok := existing[entry.Key]; ok {
			continue
		}
		if err := s.Set(ctx, entry.Key, entry.Value, entry.Description); err != nil {
			return fmt.Errorf("seeding %s: %w", entry.Key, err)
		}
		seeded++
	}
	if seeded > 0 {
		logger.Info("seeded default config entries", "count", seeded)
	}
	return nil
}

// GetDefault returns the default entry for a key, or nil when none exists.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ResetToDefault restores a config entry to its default value.
func ResetToDefault(ctx context.Context, s Store, key string) error {
	def := GetDefault(key)
	if def == nil {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return s.Set(ctx, key, def.Value, def.Description)
}
