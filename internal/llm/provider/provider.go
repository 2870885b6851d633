// Package provider picks the oracle backend named in configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/llm/gemini"
	"github.com/joseph-ayodele/jobfit/internal/llm/openai"
)

const (
	OpenAI = "openai"
	Gemini = "gemini"
)

// New builds the configured oracle and wraps it with the request rate limit.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Oracle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		oracle llm.Oracle
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case OpenAI, "":
		oracle = openai.NewClient(openai.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			MaxOutputTokens: cfg.MaxOutputTokens,
			JSONMode:        true,
		}, logger)
	case Gemini:
		oracle, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.APIKey,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			MaxOutputTokens: cfg.MaxOutputTokens,
			MaxRetries:      cfg.MaxRetries,
			BaseDelay:       time.Second,
		}, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "gemini client", err)
		}
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM provider %q", cfg.Provider), common.ErrInvalidInput)
	}

	logger.Info("llm.provider.ready",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"rps", cfg.RequestsPerSecond,
	)
	return llm.NewRateLimited(oracle, cfg.RequestsPerSecond, cfg.Burst), nil
}
