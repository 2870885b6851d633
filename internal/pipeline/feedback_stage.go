package pipeline

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
)

// Resume is anything that renders to prompt text.
type Resume interface {
	Text() string
}

// FeedbackStage scores a resume against a job and rewrites bullets.
type FeedbackStage struct {
	Logger         *slog.Logger
	call           oracleCall
	tpl            llm.Templates
	feedbackSchema map[string]any
	tailorSchema   map[string]any
}

func NewFeedbackStage(logger *slog.Logger, oracle llm.Oracle, cfg StageConfig) *FeedbackStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackStage{
		Logger: logger,
		call: oracleCall{
			logger:     logger,
			oracle:     oracle,
			normalizer: llm.NewNormalizer(logger),
			timeout:    cfg.OracleTimeout,
			maxTokens:  cfg.MaxOutputTokens,
		},
		tpl:            cfg.Templates,
		feedbackSchema: llm.BuildFeedbackJSONSchema(),
		tailorSchema:   llm.BuildTailoredJSONSchema(),
	}
}

func (s *FeedbackStage) Evaluate(ctx context.Context, job llm.JobRecord, resume Resume) (llm.FeedbackRecord, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	p, err := llm.BuildFeedbackPrompt(s.tpl, job, resume.Text())
	if err != nil {
		return llm.FeedbackRecord{}, nil, common.WrapError(err, "build feedback prompt")
	}
	res, raw, err := s.call.run(ctx, "feedback", p)
	if err != nil {
		return llm.FeedbackRecord{}, nil, err
	}
	var fb llm.FeedbackRecord
	if err := decode(res.Canonical, s.feedbackSchema, raw, &fb); err != nil {
		s.Logger.Error("llm.feedback.schema_validation_failed", "req_id", rid, "error", err)
		return llm.FeedbackRecord{}, nil, err
	}

	s.Logger.Info("llm.feedback.ok",
		"req_id", rid,
		"overall_score", fb.OverallScore,
		"sections", len(fb.Sections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fb, res.Canonical, nil
}

// Tailor rewrites resume bullets for job. fb may be nil. Character counts are
// recomputed from the text rather than trusted from the model.
func (s *FeedbackStage) Tailor(ctx context.Context, job llm.JobRecord, fb *llm.FeedbackRecord, resume Resume) (llm.TailoredBullets, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	p, err := llm.BuildTailorPrompt(s.tpl, job, fb, resume.Text())
	if err != nil {
		return llm.TailoredBullets{}, nil, common.WrapError(err, "build tailor prompt")
	}
	res, raw, err := s.call.run(ctx, "tailor", p)
	if err != nil {
		return llm.TailoredBullets{}, nil, err
	}
	var out llm.TailoredBullets
	if err := decode(res.Canonical, s.tailorSchema, raw, &out); err != nil {
		s.Logger.Error("llm.tailor.schema_validation_failed", "req_id", rid, "error", err)
		return llm.TailoredBullets{}, nil, err
	}
	for i := range out.Items {
		it := &out.Items[i]
		it.CharCountOriginal = utf8.RuneCountInString(it.OriginalText)
		it.CharCountNew = utf8.RuneCountInString(it.TransformedText)
	}

	s.Logger.Info("llm.tailor.ok",
		"req_id", rid,
		"items", len(out.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, res.Canonical, nil
}
