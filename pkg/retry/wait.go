// Package retry provides context-aware waits for the fetcher's backoff
// policy. The policy itself is deterministic per failure kind, so there is
// no exponential strategy here; callers pick the delay, this package makes
// it interruptible.
package retry

import (
	"context"
	"time"
)

// Wait sleeps for delay or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitUntil sleeps until instant or until the context is cancelled. An
// instant in the past returns immediately.
func WaitUntil(ctx context.Context, instant time.Time) error {
	return Wait(ctx, time.Until(instant))
}
