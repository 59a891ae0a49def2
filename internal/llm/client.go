// Package llm is the completion gateway: a thin client for an
// OpenAI-compatible chat-completions endpoint (Groq in production).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
)

// ErrTransport marks failures before an HTTP response was received:
// connection refused, DNS, timeout, context cancellation.
var ErrTransport = errors.New("completion transport failure")

// UpstreamError is a non-2xx answer from the completion endpoint. Status
// and a bounded copy of the body are kept for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion upstream returned %d: %s", e.Status, e.Body)
}

// Defaults matching the production Groq deployment.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
	DefaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of an upstream error body is kept.
	maxErrorBody = 4 << 10

	// maxResponseBody bounds how much of a success body is read.
	maxResponseBody = 1 << 20
)

// Config holds Client construction parameters.
type Config struct {
	BaseURL string // empty selects DefaultBaseURL
	APIKey  string
	Model   string        // empty selects DefaultModel
	Timeout time.Duration // <= 0 selects DefaultTimeout

	// RequestsPerMinute throttles outgoing calls when > 0. Groq's free
	// tier enforces 30 rpm.
	RequestsPerMinute int

	Logger *slog.Logger
}

func (cfg Config) validate() error {
	if cfg.APIKey == "" {
		return errors.New("api key is required")
	}
	return nil
}

// Client calls the chat-completions endpoint. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Wire types for the chat-completions endpoint.
type completionRequest struct {
	Model    string            `json:"model"`
	Messages []compose.Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the message list and returns the assistant's reply text.
// Non-2xx answers surface as *UpstreamError; failures before a response
// wrap ErrTransport.
func (c *Client) Complete(ctx context.Context, messages []compose.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("empty message list")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	payload, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("completion upstream error",
			"status", resp.StatusCode,
			"elapsed", time.Since(start))
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}

	c.logger.Debug("completion succeeded",
		"model", c.model,
		"messages", len(messages),
		"elapsed", time.Since(start))
	return decoded.Choices[0].Message.Content, nil
}
