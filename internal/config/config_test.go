package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("REDLINE_TEST_KEY", "sk-12345")

	cases := map[string]string{
		"${REDLINE_TEST_KEY}":        "sk-12345",
		"prefix-${REDLINE_TEST_KEY}": "prefix-sk-12345",
		"no-vars":                    "no-vars",
		"":                           "",
		"${UNSET_VAR_XYZ}":           "",
	}
	for in, want := range cases {
		if got := ResolveEnvVars(in); got != want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if _, ok := cfg.GetProvider("openai"); !ok {
		t.Error("default config must include openai provider")
	}
	if cfg.Defaults.Provider != "openai" {
		t.Errorf("default provider = %q", cfg.Defaults.Provider)
	}

	enabled := cfg.EnabledProviders()
	if _, ok := enabled["openai"]; !ok {
		t.Error("openai must be enabled by default")
	}
	if _, ok := enabled["openrouter"]; ok {
		t.Error("openrouter must be disabled by default")
	}

	if len(cfg.Detector.Passes) != 2 {
		t.Fatalf("detector passes = %d, want 2", len(cfg.Detector.Passes))
	}
	if cfg.Detector.Passes[0].VoteThreshold <= cfg.Detector.Passes[1].VoteThreshold {
		t.Error("first detector pass must be the strict one")
	}
}

func TestToDetectorConfig(t *testing.T) {
	cfg := DefaultConfig()
	det := cfg.ToDetectorConfig()
	if det.CannyLow != 28 || det.CannyHigh != 95 {
		t.Errorf("canny thresholds = %d/%d", det.CannyLow, det.CannyHigh)
	}
	if len(det.Passes) != 2 || det.Passes[1].MaxGap != 30 {
		t.Errorf("passes = %+v", det.Passes)
	}

	// Empty detector section falls back to detector defaults.
	empty := &Config{}
	det = empty.ToDetectorConfig()
	if len(det.Passes) == 0 {
		t.Error("empty detector config must fall back to defaults")
	}
}

func TestToRegistryConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := DefaultConfig()
	reg := cfg.ToRegistryConfig()

	p, ok := reg.Providers["openai"]
	if !ok {
		t.Fatal("openai missing from registry config")
	}
	if p.APIKey != "sk-test" {
		t.Errorf("api key = %q, want resolved env value", p.APIKey)
	}
}

func TestToMatcherConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matcher.DomainKeywords = []string{"pension", "premium"}
	m := cfg.ToMatcherConfig()
	if m.SimilarityThreshold != 0.6 || m.KeywordMinOverlap != 2 {
		t.Errorf("matcher config = %+v", m)
	}
	if len(m.DomainKeywords) != 2 {
		t.Errorf("domain keywords = %v", m.DomainKeywords)
	}
}

func TestWriteDefaultAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty config file")
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	cfg := cm.Get()
	if cfg.Defaults.Provider != "openai" {
		t.Errorf("loaded provider = %q", cfg.Defaults.Provider)
	}
	if cfg.Detector.CannyHigh != 95 {
		t.Errorf("loaded canny high = %d", cfg.Detector.CannyHigh)
	}
}
