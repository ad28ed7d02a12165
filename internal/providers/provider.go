package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VisionClient is the boundary to a vision-capable model. Everything the
// pipeline learns from an image, mode classification and section text
// alike, goes through this interface.
type VisionClient interface {
	// Extract sends one or more images with a prompt and returns the
	// model's answer.
	Extract(ctx context.Context, req *ExtractRequest) (*ExtractResult, error)

	// Name returns the client identifier (e.g. "openai", "openrouter").
	Name() string

	// Rate limiting properties, consumed by the worker pool.
	RequestsPerSecond() float64
	MaxRetries() int
	RetryDelayBase() time.Duration
}

// ResponseFormat requests structured output. When set, the result carries
// ParsedJSON validated against the embedded schema.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ExtractRequest is one vision call.
type ExtractRequest struct {
	// Prompt is the user instruction accompanying the images.
	Prompt string `json:"prompt"`

	// System is an optional system message.
	System string `json:"system,omitempty"`

	// Images are encoded image bytes, sent in order.
	Images [][]byte `json:"-"`

	// Model selection (client default if empty).
	Model string `json:"model,omitempty"`

	// Generation parameters.
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Structured output.
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking.
	RequestID string `json:"-"`
}

// ExtractResult is the complete response from a vision call.
type ExtractResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"`

	// Token counts.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Cost and timing.
	CostUSD       float64       `json:"cost_usd"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info.
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking.
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error.
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	RetryAfter   time.Duration
}

// RateLimitError signals a 429 with an optional server-provided delay.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// parseRetryAfter interprets a Retry-After header value as either seconds
// or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
