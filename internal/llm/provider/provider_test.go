package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/llm/openai"
	"github.com/joseph-ayodele/jobfit/internal/llm/provider"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	o, err := provider.New(ctx, common.LLMConfig{Provider: "openai", APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := o.(*openai.Client); !ok {
		t.Errorf("without a rate the oracle should be unwrapped, got %T", o)
	}

	o, err = provider.New(ctx, common.LLMConfig{Provider: "OpenAI", APIKey: "k", RequestsPerSecond: 2, Burst: 1}, nil)
	if err != nil {
		t.Fatalf("openai limited: %v", err)
	}
	if _, ok := o.(*llm.RateLimited); !ok {
		t.Errorf("expected *llm.RateLimited, got %T", o)
	}
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  common.LLMConfig
	}{
		{"unknown provider", common.LLMConfig{Provider: "cohere", APIKey: "k"}},
		{"gemini without key", common.LLMConfig{Provider: "gemini"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.New(ctx, tt.cfg, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if common.CodeOf(err) != common.CodeConfig {
				t.Errorf("code = %q, want %q", common.CodeOf(err), common.CodeConfig)
			}
		})
	}
	_, err := provider.New(ctx, common.LLMConfig{Provider: "cohere"}, nil)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("unknown provider should wrap ErrInvalidInput: %v", err)
	}
}
