package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/truthlens/internal/metrics"
	"github.com/zombar/truthlens/internal/tracing"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "deepseek/deepseek-r1:free"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.3
	DefaultReferer     = "http://localhost:8080"
	DefaultTitle       = "TruthLens"
)

var (
	// ErrMissingAPIKey is returned by New when no credential is configured
	ErrMissingAPIKey = errors.New("openrouter: API key is required")
	// ErrNoChoices means the completion envelope carried no choices
	ErrNoChoices = errors.New("no choices in API response")
	// ErrEmptyContent means the first choice had no message content
	ErrEmptyContent = errors.New("no message content in API response")
)

// Config configures the chat completion client
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Referer     string // Sent as HTTP-Referer for OpenRouter attribution
	Title       string // Sent as X-Title
}

// Client sends content to a chat-completions endpoint for credibility analysis
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metrics.BusinessMetrics
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the logger used for request logging
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records upstream request counts and latency
func WithMetrics(m *metrics.BusinessMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a new client, filling unset config fields with defaults
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
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
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL.String(), "/")
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: tracing.Transport(http.DefaultTransport),
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}

	c := &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the remote model identifier requests are sent to
func (c *Client) Model() string {
	return c.model
}

// Analyze asks the model to assess content and returns its reply with any
// markdown code fence removed. The reply is expected, not guaranteed, to be JSON.
func (c *Client) Analyze(ctx context.Context, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracing.Tracer().Start(ctx, "openrouter.chat_completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
			attribute.Int("content.length", len(content)),
		),
	)
	defer span.End()

	c.logger.Debug("sending chat completion request", "model", c.model, "timeout", c.timeout)

	start := time.Now()
	reply, outcome, err := c.complete(ctx, content)
	elapsed := time.Since(start)
	c.metrics.RecordUpstream(ctx, outcome, elapsed.Seconds())

	span.SetAttributes(attribute.String("llm.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Error("chat completion failed",
			"model", c.model,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}

	c.logger.Info("chat completion received",
		"model", c.model,
		"chars", len(reply),
		"duration_ms", elapsed.Milliseconds(),
	)
	return StripCodeFence(reply), nil
}

func (c *Client) complete(ctx context.Context, content string) (string, string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(content)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			return "", "http_error", fmt.Errorf("API returned %d: %w", apiErr.HTTPStatusCode, err)
		case errors.As(err, &reqErr):
			return "", "http_error", fmt.Errorf("API returned %d: %w", reqErr.HTTPStatusCode, err)
		default:
			return "", "transport_error", fmt.Errorf("chat completion request failed: %w", err)
		}
	}

	if len(resp.Choices) == 0 {
		return "", "no_choices", ErrNoChoices
	}

	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", "empty_content", ErrEmptyContent
	}

	c.logger.Debug("raw model reply", "model", resp.Model, "reply", reply)
	return reply, "success", nil
}

// FailureText renders an upstream error the way it is shown to users in a
// fallback assessment
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}

// headerTransport adds fixed headers to every outgoing request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
