package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/llm"
)

type countingOracle struct{ calls int }

func (c *countingOracle) Complete(_ context.Context, _ llm.Prompt) (string, error) {
	c.calls++
	return "{}", nil
}

func TestNewRateLimited_Disabled(t *testing.T) {
	next := &countingOracle{}
	if got := llm.NewRateLimited(next, 0, 1); got != llm.Oracle(next) {
		t.Error("perSec <= 0 should return the wrapped oracle unchanged")
	}
}

func TestRateLimited_PassesThrough(t *testing.T) {
	next := &countingOracle{}
	o := llm.NewRateLimited(next, 1000, 5)
	for i := 0; i < 3; i++ {
		if _, err := o.Complete(context.Background(), llm.Prompt{}); err != nil {
			t.Fatalf("Complete returned error: %v", err)
		}
	}
	if next.calls != 3 {
		t.Errorf("calls = %d, want 3", next.calls)
	}
}

func TestRateLimited_RespectsContext(t *testing.T) {
	next := &countingOracle{}
	o := llm.NewRateLimited(next, 0.001, 1)
	if _, err := o.Complete(context.Background(), llm.Prompt{}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Complete(ctx, llm.Prompt{})
	if err == nil {
		t.Fatal("second call should fail waiting for a token")
	}
	if next.calls != 1 {
		t.Errorf("calls = %d, want 1", next.calls)
	}
}
