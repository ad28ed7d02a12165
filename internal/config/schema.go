package config

// Config holds redline configuration.
// Stored at: ~/.redline/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Detector  DetectorCfg            `mapstructure:"detector" yaml:"detector"`
	Matcher   MatcherCfg             `mapstructure:"matcher" yaml:"matcher"`
}

// ProviderCfg configures a vision provider.
type ProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "openai", "openrouter"
	Model     string  `mapstructure:"model" yaml:"model"`           // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	Provider   string `mapstructure:"provider" yaml:"provider"`       // Default vision provider
	MaxWorkers int    `mapstructure:"max_workers" yaml:"max_workers"` // Max concurrent extraction workers
}

// DetectorCfg holds the strike-through detector thresholds.
type DetectorCfg struct {
	CannyLow     int            `mapstructure:"canny_low" yaml:"canny_low"`
	CannyHigh    int            `mapstructure:"canny_high" yaml:"canny_high"`
	CenterMargin float64        `mapstructure:"center_margin" yaml:"center_margin"`
	Passes       []DetectorPass `mapstructure:"passes" yaml:"passes"`
}

// DetectorPass is one Hough voting pass, strictest first.
type DetectorPass struct {
	VoteThreshold  int     `mapstructure:"vote_threshold" yaml:"vote_threshold"`
	MinLengthRatio float64 `mapstructure:"min_length_ratio" yaml:"min_length_ratio"`
	MaxGap         int     `mapstructure:"max_gap" yaml:"max_gap"`
}

// MatcherCfg holds the text matcher thresholds.
type MatcherCfg struct {
	SimilarityThreshold float64  `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	KeywordMinOverlap   int      `mapstructure:"keyword_min_overlap" yaml:"keyword_min_overlap"`
	DomainKeywords      []string `mapstructure:"domain_keywords" yaml:"domain_keywords"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 3.0,
				Enabled:   true,
			},
			"openrouter": {
				Type:      "openrouter",
				Model:     "openai/gpt-4o",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 10.0,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			Provider:   "openai",
			MaxWorkers: 4,
		},
		Detector: DetectorCfg{
			CannyLow:     28,
			CannyHigh:    95,
			CenterMargin: 0.15,
			Passes: []DetectorPass{
				{VoteThreshold: 42, MinLengthRatio: 0.16, MaxGap: 22},
				{VoteThreshold: 30, MinLengthRatio: 0.10, MaxGap: 30},
			},
		},
		Matcher: MatcherCfg{
			SimilarityThreshold: 0.6,
			KeywordMinOverlap:   2,
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
