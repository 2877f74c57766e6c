// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jeranaias/proofread/internal/thinkfilter"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL uses the IPv4 loopback address to avoid IPv6 resolution
	// issues with localhost.
	DefaultBaseURL = "http://127.0.0.1:11434"

	// DefaultModel is used when a call does not name a model.
	DefaultModel = "gemma3:4b"

	// DefaultTimeout bounds requests and the wait for streaming headers.
	DefaultTimeout = 10 * time.Second
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	BaseURL string

	// Timeout for non-streaming requests (default: 10s)
	Timeout time.Duration

	// StreamTimeout bounds connecting, waiting for headers and the silence
	// between two stream lines (default: 10s)
	StreamTimeout time.Duration

	// DefaultModel to use if none specified (default: "gemma3:4b")
	DefaultModel string

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		StreamTimeout: DefaultTimeout,
		DefaultModel:  DefaultModel,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
//
// The base URL is the only mutable state. It is swapped atomically, and every
// call reads it once when it starts, so UpdateBaseURL never affects a call in
// flight. The Client is safe for concurrent use.
//
// Example:
//
//	client := ollama.NewClient()
//	models, err := client.ListModels(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := client.Generate(ctx, models[0], prompt)
type Client struct {
	config       ClientConfig
	baseURL      atomic.Pointer[string]
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
// An unusable base URL is kept as given; calls then fail with KindInvalidURL.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Fill in defaults for any zero values
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = DefaultTimeout
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		// Streaming bodies live as long as the context; only connecting and
		// the first response byte are bounded here.
		streamClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: cfg.StreamTimeout}).DialContext,
				ResponseHeaderTimeout: cfg.StreamTimeout,
				MaxIdleConns:          4,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger: logger,
	}
	base := normalizeBaseURL(cfg.BaseURL)
	c.baseURL.Store(&base)
	return c
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string {
	return *c.baseURL.Load()
}

// UpdateBaseURL replaces the endpoint for all subsequent calls. Calls already
// running keep the URL they started with. An invalid URL is rejected and the
// previous one kept.
func (c *Client) UpdateBaseURL(raw string) error {
	base, err := ValidateBaseURL(raw)
	if err != nil {
		return err
	}
	old := c.baseURL.Swap(&base)
	if *old != base {
		c.logger.Debug("ollama base url updated", "old", *old, "new", base)
	}
	return nil
}

// DefaultModel returns the model used when a call does not name one.
func (c *Client) DefaultModel() string {
	return c.config.DefaultModel
}

// ValidateBaseURL checks that raw is an absolute http(s) URL and returns it
// without a trailing slash.
func ValidateBaseURL(raw string) (string, error) {
	base := normalizeBaseURL(raw)
	u, err := url.Parse(base)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, URL: raw, Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &Error{Kind: KindInvalidURL, URL: raw, Cause: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return "", &Error{Kind: KindInvalidURL, URL: raw, Cause: fmt.Errorf("missing host")}
	}
	return base, nil
}

// IsLocalURL reports whether raw points at this machine, where installation
// detection is meaningful.
func IsLocalURL(raw string) bool {
	u, err := url.Parse(normalizeBaseURL(raw))
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// endpoint captures the base URL once and joins path onto it.
func (c *Client) endpoint(path string) (base, full string, err error) {
	base = c.BaseURL()
	if _, err := ValidateBaseURL(base); err != nil {
		return base, "", err
	}
	return base, base + path, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// HealthCheck probes the service root. Any 2xx answer is healthy. Transport
// failures are returned classified.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	base, full, err := c.endpoint("/")
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return false, Classify(err, base)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, Classify(err, base)
	}
	drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &Error{
			Kind:  KindInvalidResponse,
			Cause: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return true, nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels returns the names of installed models in the order Ollama
// reports them. An empty list is reported as KindNoModelsAvailable.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	models, err := c.ListModelInfo(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, &Error{Kind: KindNoModelsAvailable}
	}
	return ModelNames(models), nil
}

// ListModelInfo returns the full model descriptors from /api/tags. Unlike
// ListModels it does not treat an empty list as an error.
func (c *Client) ListModelInfo(ctx context.Context) ([]ModelInfo, error) {
	base, full, err := c.endpoint("/api/tags")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, Classify(err, base)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Classify(err, base)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, "list models")
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("decode model list: %w", err)}
	}
	return result.Models, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends a non-streaming request and returns the response text with
// reasoning segments removed. An empty model uses the default model.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	model = c.modelOrDefault(model)
	base, resp, err := c.postGenerate(ctx, c.httpClient, GenerateRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return "", Classify(ctx.Err(), base)
		}
		return "", &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return thinkfilter.Strip(result.Response), nil
}

// Preload loads a model into memory with an empty prompt. It is advisory:
// failures are logged and never returned.
func (c *Client) Preload(ctx context.Context, model string) {
	model = c.modelOrDefault(model)
	start := time.Now()
	if _, err := c.Generate(ctx, model, ""); err != nil {
		c.logger.Debug("preload failed", "model", model, "error", err)
		return
	}
	c.logger.Debug("model preloaded", "model", model, "duration", time.Since(start))
}

// StreamCallback receives visible text in arrival order.
type StreamCallback func(text string)

// GenerateStreamFunc sends a streaming request and calls fn for each visible
// increment. Reasoning segments are removed by a filter owned by this call.
// It returns when the stream reports done, the body ends, ctx is cancelled
// or the transport fails. Malformed lines are skipped.
func (c *Client) GenerateStreamFunc(ctx context.Context, model, prompt string, fn StreamCallback) error {
	model = c.modelOrDefault(model)

	// Stalled streams are cancelled with ErrStalled as the cause.
	streamCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	base, resp, err := c.postGenerate(streamCtx, c.streamClient, GenerateRequest{Model: model, Prompt: prompt, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	watchdog := time.AfterFunc(c.config.StreamTimeout, func() { cancel(ErrStalled) })
	defer watchdog.Stop()

	reader := NewStreamReader(resp.Body)
	filter := thinkfilter.New()
	for {
		line, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if cause := context.Cause(streamCtx); cause != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return Classify(cause, base)
			}
			return Classify(err, base)
		}
		watchdog.Reset(c.config.StreamTimeout)

		// No decoder step may run once cancellation is observed.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if line == nil {
			continue
		}
		for _, text := range filter.Push(line.Response) {
			fn(text)
		}
		if line.Done {
			break
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if rest := filter.Flush(); rest != "" {
		fn(rest)
	}
	c.logger.Debug("stream finished", "model", model, "lines", reader.Lines(), "skipped", reader.Skipped())
	return nil
}

// GenerateStream sends a streaming request and returns a channel of visible
// increments. The last value has Done set, with Err on failure, and the
// channel is then closed. Cancelling ctx stops the stream and closes the
// channel without a final value.
func (c *Client) GenerateStream(ctx context.Context, model, prompt string) <-chan GenerationChunk {
	ch := make(chan GenerationChunk)

	go func() {
		defer close(ch)

		// The producer stops reading as soon as the consumer leaves.
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		err := c.GenerateStreamFunc(streamCtx, model, prompt, func(text string) {
			select {
			case ch <- GenerationChunk{Text: text}:
			case <-streamCtx.Done():
			}
		})
		if ctx.Err() != nil {
			return
		}

		select {
		case ch <- GenerationChunk{Done: true, Err: err}:
		case <-ctx.Done():
		}
	}()

	return ch
}

// postGenerate sends a generate request and checks the status code. On
// success the caller owns the response body.
func (c *Client) postGenerate(ctx context.Context, hc *http.Client, body GenerateRequest) (string, *http.Response, error) {
	base, full, err := c.endpoint("/api/generate")
	if err != nil {
		return base, nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return base, nil, &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, full, bytes.NewReader(payload))
	if err != nil {
		return base, nil, Classify(err, base)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return base, nil, Classify(err, base)
	}

	if resp.StatusCode == http.StatusNotFound {
		drainAndClose(resp.Body)
		return base, nil, &Error{Kind: KindModelNotFound, Model: body.Model}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return base, nil, statusError(resp, "generate")
	}

	c.logger.Debug("generate request accepted", "model", body.Model, "stream", body.Stream, "url", base)
	return base, resp, nil
}

func (c *Client) modelOrDefault(model string) string {
	if model == "" {
		return c.config.DefaultModel
	}
	return model
}

// =============================================================================
// HELPERS
// =============================================================================

// statusError builds a KindInvalidResponse error from a non-2xx response,
// using Ollama's error message when the body carries one.
func statusError(resp *http.Response, op string) error {
	var apiErr apiError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("%s: %s: %s", op, resp.Status, apiErr.Error)}
	}
	return &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("%s: %s", op, resp.Status)}
}

// drainAndClose lets the connection be reused.
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
	_ = r.Close()
}
