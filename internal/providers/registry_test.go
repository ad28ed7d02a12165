package providers

import (
	"testing"
)

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry()
	mock := &MockClient{}

	r.Register("mock", mock)
	if !r.Has("mock") {
		t.Fatal("expected mock to be registered")
	}

	got, err := r.Get("mock")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != mock {
		t.Fatal("got different client back")
	}

	if _, err := r.Get("missing"); err == nil {
		t.Fatal("expected error for unknown client")
	}

	r.Unregister("mock")
	if r.Has("mock") {
		t.Fatal("expected mock to be unregistered")
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o",
				APIKey:  "sk-test",
				Enabled: true,
			},
			"openrouter": {
				Type:    "openrouter",
				Model:   "openai/gpt-4o",
				APIKey:  "",
				Enabled: true,
			},
			"disabled": {
				Type:    "openai",
				APIKey:  "sk-test",
				Enabled: false,
			},
		},
	})

	if !r.Has("openai") {
		t.Error("openai should be registered")
	}
	if r.Has("openrouter") {
		t.Error("provider without API key should be skipped")
	}
	if r.Has("disabled") {
		t.Error("disabled provider should be skipped")
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai", Model: "gpt-4o", APIKey: "sk-1", Enabled: true},
		},
	})
	before, _ := r.Get("openai")

	t.Run("unchanged settings keep the client", func(t *testing.T) {
		r.Reload(RegistryConfig{
			Providers: map[string]ProviderConfig{
				"openai": {Type: "openai", Model: "gpt-4o", APIKey: "sk-1", Enabled: true},
			},
		})
		after, _ := r.Get("openai")
		if after != before {
			t.Error("client recreated without config change")
		}
	})

	t.Run("changed key recreates the client", func(t *testing.T) {
		r.Reload(RegistryConfig{
			Providers: map[string]ProviderConfig{
				"openai": {Type: "openai", Model: "gpt-4o", APIKey: "sk-2", Enabled: true},
			},
		})
		after, _ := r.Get("openai")
		if after == before {
			t.Error("client not recreated after key change")
		}
	})

	t.Run("removed provider is unregistered", func(t *testing.T) {
		r.Reload(RegistryConfig{})
		if r.Has("openai") {
			t.Error("openai should be gone after reload")
		}
	})
}
