// Package app wires configuration into the database, oracle and pipeline that
// every binary shares.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/export"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/llm/provider"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
	"github.com/joseph-ayodele/jobfit/internal/profile"
	"github.com/joseph-ayodele/jobfit/internal/repository"
)

// App holds the wired components. Close releases the database.
type App struct {
	Config    *common.Config
	DB        *repository.DB
	Repo      repository.ApplicationRepository
	Oracle    llm.Oracle
	Extract   *pipeline.ExtractStage
	Feedback  *pipeline.FeedbackStage
	Processor *pipeline.Processor
	Exporter  *export.Service
	Resume    *profile.Resume
}

// OpenDB opens and migrates the configured database.
func OpenDB(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Stages builds the oracle and both pipeline stages; no database is touched.
func Stages(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Oracle, *pipeline.ExtractStage, *pipeline.FeedbackStage, error) {
	tpl, err := llm.LoadTemplates(cfg.Pipeline.PromptDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load prompts: %w", err)
	}
	oracle, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	sc := pipeline.StageConfig{
		Templates:       tpl,
		MinBlockChars:   cfg.Pipeline.MinBlockChars,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		OracleTimeout:   cfg.LLM.Timeout,
	}
	return oracle, pipeline.NewExtractStage(logger, oracle, sc), pipeline.NewFeedbackStage(logger, oracle, sc), nil
}

// New wires everything from cfg. A missing resume profile only disables the
// feedback and tailoring stages.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	oracle, extract, feedback, err := Stages(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		resume   *profile.Resume
		resumeIf pipeline.Resume
	)
	if cfg.Pipeline.ProfilePath != "" && (cfg.Pipeline.Evaluate || cfg.Pipeline.Tailor) {
		resume, err = profile.Load(cfg.Pipeline.ProfilePath)
		if err != nil {
			logger.Warn("app.profile.unavailable", "path", cfg.Pipeline.ProfilePath, "error", err)
		} else {
			resumeIf = resume
		}
	}

	db, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	repo := repository.NewApplicationRepository(db, logger)

	proc := pipeline.NewProcessor(logger, extract, feedback, repo, resumeIf, pipeline.Options{
		Evaluate: cfg.Pipeline.Evaluate,
		Tailor:   cfg.Pipeline.Tailor,
	})

	return &App{
		Config:    cfg,
		DB:        db,
		Repo:      repo,
		Oracle:    oracle,
		Extract:   extract,
		Feedback:  feedback,
		Processor: proc,
		Exporter:  export.NewService(repo, logger),
		Resume:    resume,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
