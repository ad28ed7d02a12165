package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":    "gen-123",
		"model": "openai/gpt-4o",
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{
			"prompt_tokens":     120,
			"completion_tokens": 30,
			"total_tokens":      150,
		},
	})
	return string(b)
}

func TestOpenRouterExtract(t *testing.T) {
	var gotBody openRouterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, chatResponse("The marked text reads: Total fee: 450"))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	res, err := client.Extract(context.Background(), &ExtractRequest{
		Prompt: "Transcribe the handwriting in this section.",
		Images: [][]byte{{0x89, 0x50, 0x4e, 0x47}},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Content != "The marked text reads: Total fee: 450" {
		t.Errorf("content %q", res.Content)
	}
	if res.PromptTokens != 120 || res.TotalTokens != 150 {
		t.Errorf("usage not captured: %+v", res)
	}

	// The request carried a multipart user message with the image.
	if len(gotBody.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(gotBody.Messages))
	}
	parts, ok := gotBody.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected text+image parts, got %#v", gotBody.Messages[0].Content)
	}
}

func TestOpenRouterStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse("```json\n{\"mode\":\"hybrid\",\"confidence\":\"medium\"}\n```"))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL})

	res, err := client.Extract(context.Background(), &ExtractRequest{
		Prompt: "Classify this document.",
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: json.RawMessage(`{
				"type": "object",
				"required": ["mode"],
				"properties": {"mode": {"type": "string"}}
			}`),
		},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	var parsed struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(res.ParsedJSON, &parsed); err != nil {
		t.Fatalf("parsed json: %v", err)
	}
	if parsed.Mode != "hybrid" {
		t.Errorf("mode %q", parsed.Mode)
	}
}

func TestOpenRouterSchemaMismatchIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"unexpected":"shape"}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL})

	res, err := client.Extract(context.Background(), &ExtractRequest{
		Prompt: "Classify this document.",
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: json.RawMessage(`{
				"type": "object",
				"required": ["mode"],
				"properties": {"mode": {"type": "string"}}
			}`),
		},
	})
	if err != nil {
		t.Fatalf("transport succeeded, want nil error: %v", err)
	}
	if res.Success {
		t.Fatal("expected structured output failure")
	}
	if res.ErrorType != "structured_output" {
		t.Errorf("error type %q", res.ErrorType)
	}
}

func TestOpenRouterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatResponse("ok"))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "k",
		BaseURL:    srv.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	res, err := client.Extract(context.Background(), &ExtractRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("extract after retries: %v", err)
	}
	if res.Content != "ok" {
		t.Errorf("content %q", res.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestOpenRouterNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "bad",
		BaseURL:    srv.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	_, err := client.Extract(context.Background(), &ExtractRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if calls.Load() != 1 {
		t.Errorf("401 must not be retried, got %d calls", calls.Load())
	}
}
