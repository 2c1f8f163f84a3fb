// Package ratelimit enforces the outbound request pacing the remote API
// requires. All search requests in a run must flow through one Pacer;
// bypassing it can exceed the external quota.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next outbound request is allowed.
type Pacer interface {
	// Wait blocks until the minimum inter-request spacing has elapsed or the
	// context is cancelled.
	Wait(ctx context.Context) error
}

// limiterPacer paces requests with a token-per-interval limiter.
type limiterPacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer enforcing a minimum interval between requests.
// Burst is 1: requests are evenly spaced, never bunched.
func NewPacer(minInterval time.Duration) Pacer {
	return &limiterPacer{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (p *limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unpaced returns a Pacer that never waits. For tests.
func Unpaced() Pacer {
	return unpaced{}
}

type unpaced struct{}

func (unpaced) Wait(ctx context.Context) error {
	return ctx.Err()
}
