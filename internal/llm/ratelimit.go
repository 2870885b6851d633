package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Oracle so calls never exceed perSec requests per second.
type RateLimited struct {
	next    Oracle
	limiter *rate.Limiter
}

// NewRateLimited returns next unwrapped when perSec <= 0.
func NewRateLimited(next Oracle, perSec float64, burst int) Oracle {
	if perSec <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (r *RateLimited) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Complete(ctx, p)
}
