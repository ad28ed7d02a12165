package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a VisionClient for testing. Behavior can be scripted as a
// queue of canned responses or driven by a RespondFunc for tests that need
// to inspect the request.
type MockClient struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)

	// Responses are consumed in order; the last one repeats when the
	// queue runs out.
	Responses []string

	// ResponseJSON is returned as ParsedJSON when a response format is
	// requested and no RespondFunc is set.
	ResponseJSON json.RawMessage

	// RespondFunc, when set, overrides all the canned behavior.
	RespondFunc func(ctx context.Context, req *ExtractRequest) (*ExtractResult, error)

	// Rate limiting
	RPS        float64
	Retries    int
	RetryDelay time.Duration

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []*ExtractRequest
}

func (m *MockClient) Name() string { return MockClientName }

func (m *MockClient) RequestsPerSecond() float64 {
	if m.RPS > 0 {
		return m.RPS
	}
	return 1000
}

func (m *MockClient) MaxRetries() int {
	if m.Retries > 0 {
		return m.Retries
	}
	return 1
}

func (m *MockClient) RetryDelayBase() time.Duration {
	if m.RetryDelay > 0 {
		return m.RetryDelay
	}
	return time.Millisecond
}

// RequestCount returns how many Extract calls have been made.
func (m *MockClient) RequestCount() int {
	return int(m.requestCount.Load())
}

// Requests returns a copy of every request seen, in call order.
func (m *MockClient) Requests() []*ExtractRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ExtractRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockClient) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResult, error) {
	n := m.requestCount.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, req)
	}

	if m.ShouldFail || (m.FailAfter > 0 && int(n) > m.FailAfter) {
		err := fmt.Errorf("mock failure on request %d", n)
		return &ExtractResult{
			Provider:     MockClientName,
			RequestID:    req.RequestID,
			Attempts:     1,
			ErrorType:    "mock_error",
			ErrorMessage: err.Error(),
		}, err
	}

	content := "mock response"
	if len(m.Responses) > 0 {
		idx := int(n) - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		content = m.Responses[idx]
	}

	result := &ExtractResult{
		Success:   true,
		Content:   content,
		Provider:  MockClientName,
		ModelUsed: "mock-vision",
		RequestID: req.RequestID,
		Attempts:  1,
	}
	if req.ResponseFormat != nil {
		if m.ResponseJSON != nil {
			result.ParsedJSON = m.ResponseJSON
		} else if parsed, err := parseModelJSON(content); err == nil {
			result.ParsedJSON = parsed
		}
	}
	return result, nil
}

var _ VisionClient = (*MockClient)(nil)
