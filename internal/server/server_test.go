package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackzampolin/redline/internal/home"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/prompts/classify"
	"github.com/jackzampolin/redline/internal/prompts/hybrid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaults(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}

	srv, err := New(Config{Home: h, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if srv.Addr() != "127.0.0.1:8080" {
		t.Errorf("expected default addr 127.0.0.1:8080, got %s", srv.Addr())
	}
	if srv.IsRunning() {
		t.Error("server should not report running before Start")
	}
	if srv.Registry() == nil {
		t.Error("expected a provider registry")
	}
}

func TestRequireInitBeforeStart(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	srv, err := New(Config{Home: h, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	called := false
	handler := srv.requireInit(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before initialization, got %d", rec.Code)
	}
	if called {
		t.Error("handler should not run before initialization")
	}
}

func TestHealthRouteWithoutInit(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	srv, err := New(Config{Home: h, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Health does not require init, so it works before Start.
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", rec.Code)
	}
}

func TestRegisterDefaultPrompts(t *testing.T) {
	r := prompts.NewResolver(nil, testLogger())
	prompts.RegisterDefaults(r)

	keys := []string{
		classify.SystemPromptKey,
		classify.UserPromptKey,
		hybrid.SystemPromptKey,
		hybrid.UserPromptKey,
		"extract.handwriting.system",
		"extract.handwriting.user",
	}
	for _, key := range keys {
		p, ok := r.GetEmbedded(key)
		if !ok {
			t.Errorf("expected embedded prompt %q", key)
			continue
		}
		if p.Text == "" {
			t.Errorf("prompt %q has empty text", key)
		}
		if p.Hash == "" {
			t.Errorf("prompt %q missing hash", key)
		}
	}

	if got := len(r.AllEmbedded()); got != len(keys) {
		t.Errorf("expected %d embedded prompts, got %d", len(keys), got)
	}
}
