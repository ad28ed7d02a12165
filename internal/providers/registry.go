package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to vision clients. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]VisionClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]VisionClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a vision client by name.
func (r *Registry) Register(name string, client VisionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.logger != nil {
		r.logger.Info("registered vision client", "name", name)
	}
}

// Unregister removes a vision client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.logger != nil {
		r.logger.Info("unregistered vision client", "name", name)
	}
}

// Get returns a vision client by name.
func (r *Registry) Get(name string) (VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("vision client not found: %s", name)
	}
	return client, nil
}

// Has checks if a vision client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// List returns all registered client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Clients returns a snapshot of all registered clients.
func (r *Registry) Clients() map[string]VisionClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]VisionClient, len(r.clients))
	for name, client := range r.clients {
		result[name] = client
	}
	return result
}

// ProviderConfig describes one configured vision provider with its API key
// already resolved.
type ProviderConfig struct {
	Type      string  // "openai", "openrouter"
	Model     string  // Model name
	APIKey    string  // Resolved API key
	RateLimit float64 // Requests per second
	Enabled   bool
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	Providers map[string]ProviderConfig
}

// NewRegistryFromConfig creates a registry with clients based on
// configuration. Only enabled providers with API keys are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		if client := createClient(provCfg); client != nil {
			r.clients[name] = client
		}
	}
	return r
}

// Reload updates the registry from new configuration. Clients that are no
// longer configured are unregistered; clients with changed settings are
// recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		want[name] = true

		existing, hasExisting := r.clients[name]
		if hasExisting && !needsUpdate(existing, provCfg) {
			continue
		}
		client := createClient(provCfg)
		if client == nil {
			continue
		}
		r.clients[name] = client
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated vision client", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered vision client", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			if r.logger != nil {
				r.logger.Info("unregistered vision client", "name", name)
			}
		}
	}
}

// createClient creates a vision client based on provider type.
func createClient(cfg ProviderConfig) VisionClient {
	switch cfg.Type {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			RateLimit: cfg.RateLimit,
		})
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			RPS:          cfg.RateLimit,
		})
	default:
		return nil
	}
}

// needsUpdate checks if a client must be recreated for the new settings.
func needsUpdate(client VisionClient, cfg ProviderConfig) bool {
	switch c := client.(type) {
	case *OpenAIClient:
		return c.apiKey != cfg.APIKey ||
			c.model != cfg.Model ||
			c.rateLimit != cfg.RateLimit
	case *OpenRouterClient:
		return c.apiKey != cfg.APIKey ||
			c.defaultModel != cfg.Model ||
			c.rps != cfg.RateLimit
	default:
		return true
	}
}
