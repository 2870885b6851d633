package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/reducer"
)

// StageConfig carries what every stage needs besides the oracle.
type StageConfig struct {
	Templates       llm.Templates
	MinBlockChars   int
	MaxOutputTokens int
	OracleTimeout   time.Duration
}

// ExtractStage turns posting HTML into a JobRecord.
type ExtractStage struct {
	Logger  *slog.Logger
	Reducer *reducer.Reducer
	call    oracleCall
	tpl     llm.Templates
	schema  map[string]any
}

func NewExtractStage(logger *slog.Logger, oracle llm.Oracle, cfg StageConfig) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{
		Logger:  logger,
		Reducer: reducer.New(cfg.MinBlockChars),
		call: oracleCall{
			logger:     logger,
			oracle:     oracle,
			normalizer: llm.NewNormalizer(logger),
			timeout:    cfg.OracleTimeout,
			maxTokens:  cfg.MaxOutputTokens,
		},
		tpl:    cfg.Templates,
		schema: llm.BuildJobRecordJSONSchema(),
	}
}

// Extract reduces html, asks the oracle once, and decodes the answer. The
// returned bytes are the normalizer's canonical form of the completion, kept
// as the audit payload. A record without company or skills is not an error here.
func (s *ExtractStage) Extract(ctx context.Context, html string) (llm.JobRecord, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	reduced := s.Reducer.Reduce(html)
	s.Logger.Info("llm.extract.start",
		"req_id", rid,
		"key", common.IdempotencyKeyFromContext(ctx),
		"html_len", len(html),
		"reduced_len", len(reduced),
	)
	if reduced == "" {
		return llm.JobRecord{}, nil, common.NewAppError(common.CodeNoContent, "posting has no readable text", common.ErrNoContent)
	}

	res, raw, err := s.call.run(ctx, "extract", llm.BuildExtractionPrompt(s.tpl, reduced))
	if err != nil {
		return llm.JobRecord{}, nil, err
	}
	if err := requireObject(res, raw); err != nil {
		return llm.JobRecord{}, nil, err
	}

	cleaned, _, err := llm.SanitizeJobRecordJSON(res.Canonical, s.Logger)
	if err != nil {
		return llm.JobRecord{}, nil, unparsable(raw, err)
	}
	var rec llm.JobRecord
	if err := decode(cleaned, s.schema, raw, &rec); err != nil {
		s.Logger.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", err)
		return llm.JobRecord{}, nil, err
	}

	s.Logger.Info("llm.extract.ok",
		"req_id", rid,
		"company", rec.Company,
		"position", rec.Position.Name,
		"skills", len(rec.Skills),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, res.Canonical, nil
}
