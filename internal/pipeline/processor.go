package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/repository"
)

// Outcome is what one posting produced.
type Outcome struct {
	Key      string                     `json:"key"`
	Status   constants.SubmissionStatus `json:"status"`
	Record   *llm.JobRecord             `json:"record,omitempty"`
	Feedback *llm.FeedbackRecord        `json:"feedback,omitempty"`
	Tailored *llm.TailoredBullets       `json:"tailored,omitempty"`
	Skipped  bool                       `json:"skipped"`
	// Warnings lists optional stages that failed without failing the posting.
	Warnings []string `json:"warnings,omitempty"`
}

// Options toggles the optional stages.
type Options struct {
	Evaluate bool
	Tailor   bool
}

// Processor runs one posting through extract, optional feedback/tailoring and commit.
type Processor struct {
	Logger   *slog.Logger
	Extract  *ExtractStage
	Feedback *FeedbackStage
	Repo     repository.ApplicationRepository
	Resume   Resume
	Opts     Options
}

func NewProcessor(logger *slog.Logger, extract *ExtractStage, feedback *FeedbackStage, repo repository.ApplicationRepository, resume Resume, opts Options) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:   logger,
		Extract:  extract,
		Feedback: feedback,
		Repo:     repo,
		Resume:   resume,
		Opts:     opts,
	}
}

// Process checks the idempotency key before any oracle work, then extracts and
// commits. A key that is already stored, or that loses a concurrent commit
// race, returns an Outcome with Skipped set and a nil error.
func (p *Processor) Process(ctx context.Context, key, html string) (*Outcome, error) {
	if common.RequestIDFromContext(ctx) == "" {
		ctx = common.WithRequestID(ctx, uuid.New().String())
	}
	ctx = common.WithIdempotencyKey(ctx, key)
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	out := &Outcome{Key: key, Status: constants.SubmissionRunning}

	done, err := p.Repo.IsProcessed(ctx, key)
	if err != nil {
		out.Status = constants.SubmissionFailed
		return out, err
	}
	if done {
		p.Logger.Info("pipeline.process.already_processed", "req_id", rid, "key", key)
		out.Status, out.Skipped = constants.SubmissionSkipped, true
		return out, nil
	}

	rec, raw, err := p.Extract.Extract(ctx, html)
	if err != nil {
		p.Logger.Error("pipeline.process.extract_failed", "req_id", rid, "key", key, "code", common.CodeOf(err), "error", err)
		out.Status = constants.SubmissionFailed
		return out, err
	}
	out.Record = &rec

	if p.Feedback != nil && p.Resume != nil {
		if p.Opts.Evaluate {
			fb, _, err := p.Feedback.Evaluate(ctx, rec, p.Resume)
			if err != nil {
				p.Logger.Warn("pipeline.process.feedback_failed", "req_id", rid, "key", key, "code", common.CodeOf(err), "error", err)
				out.Warnings = append(out.Warnings, "feedback: "+err.Error())
			} else {
				out.Feedback = &fb
			}
		}
		if p.Opts.Tailor {
			tb, _, err := p.Feedback.Tailor(ctx, rec, out.Feedback, p.Resume)
			if err != nil {
				p.Logger.Warn("pipeline.process.tailor_failed", "req_id", rid, "key", key, "code", common.CodeOf(err), "error", err)
				out.Warnings = append(out.Warnings, "tailor: "+err.Error())
			} else {
				out.Tailored = &tb
			}
		}
	}

	err = p.Repo.Commit(ctx, &repository.CommitRequest{
		Key:       key,
		Record:    rec,
		RawRecord: raw,
		Feedback:  out.Feedback,
		Tailored:  out.Tailored,
	})
	if errors.Is(err, common.ErrAlreadyProcessed) {
		p.Logger.Info("pipeline.commit.already_processed", "req_id", rid, "key", key)
		out.Status, out.Skipped = constants.SubmissionSkipped, true
		return out, nil
	}
	if err != nil {
		p.Logger.Error("pipeline.commit.failed", "req_id", rid, "key", key, "error", err)
		out.Status = constants.SubmissionFailed
		return out, err
	}

	out.Status = constants.SubmissionCommitted
	p.Logger.Info("pipeline.process.ok",
		"req_id", rid,
		"key", key,
		"company", rec.Company,
		"skills", len(rec.Skills),
		"feedback", out.Feedback != nil,
		"tailored", out.Tailored != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
