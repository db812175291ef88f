package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1200
	DefaultTimeout   = 30 * time.Second

	// maxErrorBody bounds how much of a failed response ends up in the error message.
	maxErrorBody = 512
)

var (
	ErrNotConfigured   = errors.New("llm: api key not configured")
	ErrEmptyCompletion = errors.New("llm: completion contained no text")
)

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: api error (status %d): %s", e.StatusCode, e.Body)
}

// BreakerConfig controls when the client stops calling a failing provider.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
}

// Client calls an OpenAI-compatible chat completions endpoint. Calls are paced by a token
// bucket and short-circuited while the provider keeps failing.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

var _ ports.LLMClient = (*Client)(nil)

func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(breakerSettings(cfg.Breaker, logger))
	return c, nil
}

func breakerSettings(cfg BreakerConfig, logger *logrus.Logger) gobreaker.Settings {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.6
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	return gobreaker.Settings{
		Name:        "llm",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.Set(float64(to))
			if logger != nil {
				logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("llm circuit breaker state changed")
			}
		},
		// a caller giving up says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req *ports.CompletionRequest) (string, error) {
	started := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		observe("rate_limited", started)
		return "", fmt.Errorf("llm: waiting for rate limiter: %w", err)
	}

	model := c.model
	if req.ModelHint != "" {
		model = req.ModelHint
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	payload := chatRequest{Model: model, MaxTokens: maxTokens, Temperature: req.Temperature}
	if req.SystemPrompt != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	requestID := uuid.NewString()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, requestID, payload)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		observe(outcome, started)
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"request_id": requestID, "model": model, "outcome": outcome}).WithError(err).Warn("llm completion failed")
		}
		return "", err
	}

	resp := out.(*chatResponse)
	observe("ok", started)
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"request_id":        requestID,
			"model":             resp.Model,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"duration":          time.Since(started).String(),
		}).Debug("llm completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, requestID string, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: http request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: httpResp.StatusCode, Body: msg}
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	return &resp, nil
}

// DisabledClient is wired when no API key is configured; every call fails so pages
// degrade to empty insights.
type DisabledClient struct{}

func (DisabledClient) Complete(context.Context, *ports.CompletionRequest) (string, error) {
	return "", ErrNotConfigured
}
