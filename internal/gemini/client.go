// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds model selection and generation limits.
type Config struct {
	APIKey    string
	ChatModel string
	HealModel string

	Temperature           float32
	MaxOutputTokens       int32
	ContinuationMaxTokens int32
	HealTemperature       float32
	HealMaxTokens         int32

	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds each one-shot call. Streams are bounded by the caller.
	Timeout time.Duration
}

// DefaultConfig returns the tuned defaults for engineering reports.
func DefaultConfig() Config {
	return Config{
		ChatModel:             "gemini-2.5-flash",
		HealModel:             "gemini-2.5-pro",
		Temperature:           0.2,
		MaxOutputTokens:       8192,
		ContinuationMaxTokens: 4096,
		HealTemperature:       0.02,
		HealMaxTokens:         4096,
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		Timeout:               2 * time.Minute,
	}
}

var (
	// ErrNoCandidates is returned when a one-shot call yields no candidate.
	ErrNoCandidates = errors.New("model returned no candidates")

	// ErrNoUsableSource is returned when a heal reply is not diagram source.
	ErrNoUsableSource = errors.New("heal returned no usable diagram source")

	errNoAPIKey = errors.New("gemini API key required")
)

// =============================================================================
// CLIENT
// =============================================================================

// backend is the slice of the genai Models service the client uses.
type backend interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps the Gemini API.
type Client struct {
	backend backend
	cfg     Config
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newClient(client.Models, cfg, logger), nil
}

func newClient(b backend, cfg Config, logger *zap.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaults.ChatModel
	}
	if cfg.HealModel == "" {
		cfg.HealModel = defaults.HealModel
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if cfg.ContinuationMaxTokens == 0 {
		cfg.ContinuationMaxTokens = defaults.ContinuationMaxTokens
	}
	if cfg.HealMaxTokens == 0 {
		cfg.HealMaxTokens = defaults.HealMaxTokens
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend: b,
		cfg:     cfg,
		logger:  logger.Named("gemini"),
		sleep:   sleepContext,
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// NewChat starts an empty chat. Each chat owns its history.
func (c *Client) NewChat() *Chat {
	return &Chat{client: c}
}

// Stream runs a stateless continuation call with the chat model and the
// report system instruction.
func (c *Client) Stream(ctx context.Context, prompt string, onChunk func(string)) error {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	_, err := c.streamContents(ctx, c.cfg.ChatModel, contents, c.reportConfig(c.cfg.ContinuationMaxTokens), onChunk)
	return err
}

// Generate runs a stateless one-shot call with the chat model.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generateOnce(ctx, c.cfg.ChatModel, prompt, c.reportConfig(c.cfg.MaxOutputTokens))
}

func (c *Client) reportConfig(maxTokens int32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:       ptr(c.cfg.Temperature),
		MaxOutputTokens:   maxTokens,
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	}
}

func (c *Client) healConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     ptr(c.cfg.HealTemperature),
		MaxOutputTokens: c.cfg.HealMaxTokens,
	}
}

// =============================================================================
// CALLS WITH RETRY
// =============================================================================

// streamContents streams one generation, forwarding text chunks in order.
// Retries happen only while nothing has been forwarded.
func (c *Client) streamContents(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig, onChunk func(string)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(c.cfg.RetryDelay, attempt-1, maxRetryDelay)
			c.logger.Info("retrying Gemini stream", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		var sb strings.Builder
		var streamErr error
		for resp, err := range c.backend.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				streamErr = err
				break
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			sb.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
		if streamErr == nil {
			return sb.String(), nil
		}
		if ctx.Err() != nil {
			return sb.String(), ctx.Err()
		}
		if sb.Len() > 0 {
			return sb.String(), fmt.Errorf("stream interrupted after %d bytes: %w", sb.Len(), streamErr)
		}
		if !isRetryable(streamErr) {
			return "", fmt.Errorf("gemini stream: %w", streamErr)
		}
		lastErr = streamErr
		c.logger.Warn("Gemini stream failed, will retry", zap.Int("attempt", attempt), zap.Error(streamErr))
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", c.cfg.MaxRetries, lastErr)
}

// generateOnce runs a non-streaming call.
func (c *Client) generateOnce(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(c.cfg.RetryDelay, attempt-1, maxRetryDelay)
			c.logger.Info("retrying Gemini request", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		resp, err := c.backend.GenerateContent(ctx, model, contents, config)
		if err == nil {
			if resp == nil || len(resp.Candidates) == 0 {
				return "", ErrNoCandidates
			}
			return responseText(resp), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", fmt.Errorf("gemini request: %w", err)
		}
		lastErr = err
		c.logger.Warn("Gemini request failed, will retry", zap.Int("attempt", attempt), zap.Error(err))
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", c.cfg.MaxRetries, lastErr)
}

// responseText concatenates the text parts of the first candidate,
// skipping thought parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func ptr[T any](v T) *T {
	return &v
}
