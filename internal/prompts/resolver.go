package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// OverrideSource looks up per-job prompt overrides. The job store
// implements this; a nil source means embedded defaults only.
type OverrideSource interface {
	// GetPromptOverride returns the override text for a job and prompt
	// key, or "" when none exists.
	GetPromptOverride(ctx context.Context, jobID, key string) (string, error)
}

// Resolver resolves prompts with job-level overrides.
type Resolver struct {
	overrides OverrideSource
	embedded  map[string]EmbeddedPrompt
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(overrides OverrideSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		overrides: overrides,
		embedded:  make(map[string]EmbeddedPrompt),
		logger:    logger,
	}
}

// Register registers an embedded prompt. Called during initialization by
// each prompt subpackage.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve resolves a prompt for a specific job. Returns the job override
// when one exists, otherwise the embedded default.
func (r *Resolver) Resolve(ctx context.Context, key, jobID string) (*ResolvedPrompt, error) {
	if jobID != "" && r.overrides != nil {
		text, err := r.overrides.GetPromptOverride(ctx, jobID, key)
		if err != nil {
			r.logger.Warn("failed to check prompt override", "key", key, "job_id", jobID, "error", err)
		} else if text != "" {
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				IsOverride: true,
			}, nil
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
	}, nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	return result
}
