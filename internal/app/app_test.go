package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/jobfit/internal/app"
	"github.com/joseph-ayodele/jobfit/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	return &common.Config{
		Database: common.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "jobfit.db")},
		LLM:      common.LLMConfig{Provider: "openai", APIKey: "sk-test"},
		Pipeline: common.PipelineConfig{
			MinBlockChars: 20,
			ProfilePath:   "../../configs/master_cv.yaml",
			Evaluate:      true,
		},
	}
}

func TestNew(t *testing.T) {
	a, err := app.New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Processor == nil || a.Exporter == nil || a.Repo == nil {
		t.Fatal("components not wired")
	}
	if a.Resume == nil || a.Processor.Resume == nil {
		t.Error("sample profile should be loaded when evaluation is on")
	}
	ok, err := a.Repo.IsProcessed(context.Background(), "nothing")
	if err != nil || ok {
		t.Errorf("IsProcessed on fresh db = %v, %v", ok, err)
	}
}

func TestNew_MissingProfileDisablesFeedback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.ProfilePath = filepath.Join(t.TempDir(), "missing.yaml")

	a, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if a.Resume != nil || a.Processor.Resume != nil {
		t.Error("missing profile should leave the resume unset")
	}
}

func TestStages_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "cohere"
	if _, _, _, err := app.Stages(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
