package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o"

	// USD per 1M tokens, used for cost estimates because billing detail is
	// not returned per call.
	openAIGPT4oInputCostPer1M  = 2.50
	openAIGPT4oOutputCostPer1M = 10.00
)

// OpenAIConfig holds configuration for the OpenAI vision client.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // "gpt-4o" (default)
	RateLimit  float64       // Requests per second
	MaxRetries int           // Retry attempts for SDK transport
	RetryDelay time.Duration // Base retry delay for worker backoff
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient implements VisionClient using the official OpenAI SDK.
type OpenAIClient struct {
	apiKey     string
	model      string
	rateLimit  float64
	maxRetries int
	retryDelay time.Duration
	client     openai.Client
}

// NewOpenAIClient creates a new OpenAI vision client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.RateLimit <= 0 {
		// Default to ~300 RPM.
		cfg.RateLimit = 5.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		rateLimit:  cfg.RateLimit,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// RequestsPerSecond returns the configured rate limit.
func (c *OpenAIClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *OpenAIClient) MaxRetries() int {
	return c.maxRetries
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *OpenAIClient) RetryDelayBase() time.Duration {
	return c.retryDelay
}

// HealthCheck verifies the OpenAI API is reachable and the API key is valid.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("openai models list failed: %w", mapOpenAIError(err))
	}
	if page == nil {
		return fmt.Errorf("openai models list returned nil response")
	}
	return nil
}

// Extract sends images and a prompt through chat completions. Images go
// in as high-detail data URLs. Structured output is requested in JSON
// mode and validated locally against the supplied schema.
func (c *OpenAIClient) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResult, error) {
	start := time.Now()

	result := &ExtractResult{
		RequestID: req.RequestID,
		Provider:  OpenAIName,
		Attempts:  1,
	}

	if strings.TrimSpace(req.Prompt) == "" {
		err := fmt.Errorf("prompt is required")
		result.ErrorType = "invalid_request"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
	}
	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			Detail: "high",
		}))
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = mapOpenAIError(err)
		result.ErrorType = "api_error"
		var rle *RateLimitError
		if errors.As(err, &rle) {
			result.ErrorType = "rate_limited"
			result.RetryAfter = rle.RetryAfter
		}
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices in response")
		result.ErrorType = "empty_response"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	result.Success = true
	result.Content = resp.Choices[0].Message.Content
	result.ModelUsed = resp.Model
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	result.CostUSD = estimateOpenAICostUSD(model, result.PromptTokens, result.CompletionTokens)
	result.ExecutionTime = time.Since(start)

	if req.ResponseFormat != nil {
		parsed, perr := parseModelJSON(result.Content)
		if perr == nil {
			perr = validateModelJSON(req.ResponseFormat.JSONSchema, parsed)
		}
		if perr != nil {
			result.Success = false
			result.ErrorType = "structured_output"
			result.ErrorMessage = perr.Error()
			return result, nil
		}
		result.ParsedJSON = parsed
	}

	return result, nil
}

func estimateOpenAICostUSD(model string, promptTokens, completionTokens int) float64 {
	m := strings.ToLower(strings.TrimSpace(model))
	if !strings.HasPrefix(m, "gpt-4o") {
		return 0
	}
	in := float64(promptTokens) * (openAIGPT4oInputCostPer1M / 1_000_000.0)
	out := float64(completionTokens) * (openAIGPT4oOutputCostPer1M / 1_000_000.0)
	return in + out
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return err
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

var _ VisionClient = (*OpenAIClient)(nil)
