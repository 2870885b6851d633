package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
)

// Complete implements llm.Oracle over chat/completions. A reply with no
// choices or no content yields "" so the caller can classify it.
func (c *Client) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	messages := make([]map[string]any, 0, 2)
	if s := strings.TrimSpace(p.System); s != "" {
		messages = append(messages, map[string]any{"role": "system", "content": s})
	}
	messages = append(messages, map[string]any{"role": "user", "content": p.User})

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"n":           1,
		"messages":    messages,
	}
	maxTokens := p.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxOutputTokens
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}
	if c.cfg.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		var se *llm.HTTPStatusError
		c.logger.Error("llm.complete.http_error",
			"req_id", rid, "status", status, "error", err,
			"retryable", errors.As(err, &se) && se.Retryable(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		c.logger.Error("llm.complete.decode_error",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat completion: response is not json")
	}

	parsed := gjson.ParseBytes(raw)
	content := parsed.Get("choices.0.message.content").String()
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"finish_reason", parsed.Get("choices.0.finish_reason").String(),
		"total_tokens", parsed.Get("usage.total_tokens").Int(),
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
