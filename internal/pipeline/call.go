package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
)

// oracleCall is the template -> oracle -> normalize shape every stage shares.
type oracleCall struct {
	logger     *slog.Logger
	oracle     llm.Oracle
	normalizer *llm.Normalizer
	timeout    time.Duration
	maxTokens  int
}

// run makes exactly one oracle call. It returns the normalized result and the
// raw completion, or a typed error: ErrOracleUnavailable, ErrEmptyCompletion or
// ErrUnparsableResponse.
func (c *oracleCall) run(ctx context.Context, op string, p llm.Prompt) (llm.Result, string, error) {
	rid := common.RequestIDFromContext(ctx)
	if p.MaxOutputTokens <= 0 {
		p.MaxOutputTokens = c.maxTokens
	}
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.oracle.Complete(callCtx, p)
	if err != nil {
		c.logger.Error("pipeline."+op+".oracle_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Result{}, "", common.NewAppError(common.CodeOracleUnavailable, op+" oracle call failed", errors.Join(common.ErrOracleUnavailable, err))
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("pipeline."+op+".empty_completion", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Result{}, text, common.NewAppError(common.CodeEmptyCompletion, op+" oracle returned no text", common.ErrEmptyCompletion)
	}

	res, err := c.normalizer.Normalize(text)
	if err != nil {
		return llm.Result{}, text, unparsable(text, err)
	}
	c.logger.Debug("pipeline."+op+".completion",
		"req_id", rid,
		"completion_len", len(text),
		"repairs", res.Repairs,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, text, nil
}

// decode validates doc against schema and unmarshals it into out.
func decode(doc []byte, schema map[string]any, raw string, out any) error {
	if err := llm.ValidateJSONAgainstSchema(schema, doc); err != nil {
		return unparsable(raw, err)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return unparsable(raw, err)
	}
	return nil
}

func unparsable(raw string, cause error) error {
	return common.NewAppError(common.CodeUnparsableResponse, common.Excerpt(raw, llm.ExcerptLen),
		errors.Join(common.ErrUnparsableResponse, cause))
}

// requireObject rejects completions that parse but are not a JSON object.
func requireObject(res llm.Result, raw string) error {
	if _, ok := res.Value.(map[string]any); !ok {
		return unparsable(raw, errors.New("top-level value is not an object"))
	}
	return nil
}
