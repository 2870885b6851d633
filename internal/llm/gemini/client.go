package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
)

// Config for the Gemini API backend.
type Config struct {
	APIKey          string
	Model           string // e.g., "gemini-2.0-flash-lite"
	Temperature     float32
	Timeout         time.Duration
	MaxOutputTokens int
	MaxRetries      int
	BaseDelay       time.Duration
}

// Client implements llm.Oracle with the genai SDK.
type Client struct {
	cfg    Config
	models *genai.Models
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: api key not set")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-lite"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{cfg: cfg, models: client.Models, logger: logger.With("component", "gemini")}, nil
}

// Complete sends one generate call. Rate-limit and server errors are retried
// up to MaxRetries times with exponential backoff inside the configured timeout.
func (c *Client) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	maxTokens := p.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxOutputTokens
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}
	if s := strings.TrimSpace(p.System); s != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.BaseDelay * time.Duration(1<<(attempt-1))
			c.logger.Warn("llm.complete.retry", "req_id", rid, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("gemini: %w", ctx.Err())
			}
		}

		resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(p.User), genConfig)
		if err == nil {
			text := ""
			if resp != nil {
				text = resp.Text()
			}
			c.logger.Info("llm.complete.ok",
				"req_id", rid,
				"model", c.cfg.Model,
				"attempts", attempt+1,
				"content_len", len(text),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	c.logger.Error("llm.complete.error", "req_id", rid, "error", lastErr, "elapsed_ms", time.Since(start).Milliseconds())
	return "", fmt.Errorf("gemini generate content: %w", lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	msg := err.Error()
	if strings.Contains(msg, "context canceled") || strings.Contains(msg, "context deadline exceeded") {
		return false
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}
