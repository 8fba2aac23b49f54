// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/telemetry"
)

// Configuration constants for completion requests.
const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the wait before the first retry. Each further
	// retry doubles it.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// userAgent identifies rigchat to the endpoint.
	userAgent = "rigchat/1.0"
)

// Request is the input to one completion.
type Request struct {
	Settings model.Settings
	Turns    []Turn

	// OnStatus, when set, receives progress text such as retry notices.
	OnStatus func(string)
}

// payload is the JSON body sent to the endpoint.
type payload struct {
	Model       string  `json:"model,omitempty"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client performs completion requests with bounded retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	parsers    []ResponseParser
	sleep      Sleeper
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// NewClient creates a client with the default retry policy and parsers.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultRetryBaseDelay,
		parsers:    DefaultParsers,
		sleep:      sleepContext,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the per-attempt timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the number of retries after the first attempt.
func (c *Client) WithMaxRetries(n int) *Client {
	if n < 0 {
		n = 0
	}
	c.maxRetries = n
	return c
}

// WithRetryBaseDelay sets the wait before the first retry.
func (c *Client) WithRetryBaseDelay(d time.Duration) *Client {
	c.baseDelay = d
	return c
}

// WithParsers replaces the response parser strategies.
func (c *Client) WithParsers(parsers ...ResponseParser) *Client {
	c.parsers = parsers
	return c
}

// WithSleeper replaces the backoff wait, used by tests to record delays.
func (c *Client) WithSleeper(s Sleeper) *Client {
	c.sleep = s
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger.With("component", "cloud")
	return c
}

// WithMetrics records attempts and outcomes into m.
func (c *Client) WithMetrics(m *telemetry.Metrics) *Client {
	c.metrics = m
	return c
}

// MaxRetries returns the configured retry budget.
func (c *Client) MaxRetries() int {
	return c.maxRetries
}

// BackoffSchedule returns the waits before retries 1..maxRetries:
// base, 2*base, 4*base and so on.
func BackoffSchedule(maxRetries int, base time.Duration) []time.Duration {
	out := make([]time.Duration, 0, maxRetries)
	for n := 1; n <= maxRetries; n++ {
		out = append(out, base*time.Duration(1<<(n-1)))
	}
	return out
}

// =============================================================================
// COMPLETE
// =============================================================================

// Complete sends req and returns the reply text.
//
// Missing settings fail with *ConfigError before any I/O. Transport errors
// and non-2xx replies are retried up to MaxRetries times, waiting
// base*2^(n-1) before retry n. A 2xx reply that no parser recognises fails
// with *UnrecognizedResponseError immediately.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	if err := checkSettings(req.Settings); err != nil {
		c.metrics.ObserveCompletion(telemetry.OutcomeConfig, 0)
		return "", err
	}

	body, err := json.Marshal(payload{
		Model:       req.Settings.Model,
		Messages:    req.Turns,
		Temperature: req.Settings.EffectiveTemperature(),
		MaxTokens:   positive(req.Settings.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	schedule := BackoffSchedule(c.maxRetries, c.baseDelay)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := schedule[attempt-1]
			c.status(req, fmt.Sprintf("API error, retrying (attempt %d/%d) in %ss",
				attempt, c.maxRetries, formatSeconds(delay)))
			c.logger.Warn("completion attempt failed, retrying",
				"attempt", attempt, "delay", delay, "error", lastErr)

			if err := c.sleep(ctx, delay); err != nil {
				c.metrics.ObserveCompletion(telemetry.OutcomeCancelled, time.Since(start))
				return "", err
			}
			c.metrics.ObserveRetry()
		}

		c.metrics.ObserveAttempt()
		data, err := c.do(ctx, req.Settings, body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				c.metrics.ObserveCompletion(telemetry.OutcomeCancelled, time.Since(start))
				return "", ctxErr
			}
			lastErr = err
			continue
		}

		text, strategy, err := ParseResponse(data, c.parsers)
		if err != nil {
			c.logger.Error("unrecognized completion response", "bytes", len(data))
			c.metrics.ObserveCompletion(telemetry.OutcomeUnrecognized, time.Since(start))
			return "", err
		}
		c.logger.Debug("completion received",
			"attempts", attempt+1, "parser", strategy, "chars", len(text), "elapsed", time.Since(start))
		c.metrics.ObserveCompletion(telemetry.OutcomeSuccess, time.Since(start))
		return text, nil
	}

	c.logger.Error("completion failed", "attempts", c.maxRetries+1, "error", lastErr)
	c.metrics.ObserveCompletion(telemetry.OutcomeTransient, time.Since(start))
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxRetries+1, lastErr)
}

// do performs one HTTP attempt and returns the body of a 2xx reply.
func (c *Client) do(ctx context.Context, s model.Settings, body []byte) ([]byte, error) {
	endpoint := strings.TrimSpace(s.EndpointURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(s.APIKey))
	httpReq.Header.Set("User-Agent", userAgent)

	began := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	c.logger.Debug("completion response", "status", resp.StatusCode, "elapsed", time.Since(began))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Body:       string(data[:min(len(data), bodyLimit)]),
		}
	}
	return data, nil
}

func (c *Client) status(req Request, text string) {
	if req.OnStatus != nil {
		req.OnStatus(text)
	}
}

func checkSettings(s model.Settings) error {
	var missing []string
	if strings.TrimSpace(s.EndpointURL) == "" {
		missing = append(missing, "API URL")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		missing = append(missing, "API key")
	}
	if len(missing) > 0 {
		return &ConfigError{Fields: missing}
	}
	return nil
}

func positive(n int) int {
	if n > 0 {
		return n
	}
	return 0
}

// formatSeconds renders 500ms as "0.5" and 2s as "2".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
