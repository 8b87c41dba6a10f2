// Package retry provides a generic retry-with-exponential-backoff wrapper
// for capability calls.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultMaxRetries is the total number of attempts when the caller
	// passes a non-positive count.
	DefaultMaxRetries = 3
	// DefaultInitialDelay is the wait before the second attempt; each
	// subsequent wait doubles. There is no jitter and no cap.
	DefaultInitialDelay = time.Second
)

// wait is swapped out in tests to observe the delay schedule.
var wait = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op up to maxRetries times, waiting initialDelay * 2^i between
// attempt i and i+1. The first success returns immediately; no delay is
// applied before the first attempt or after the last failure. After all
// attempts fail, the returned error wraps the last one. Context
// cancellation aborts the wait between attempts.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, initialDelay time.Duration) (T, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}

	var zero T
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if i < maxRetries-1 {
			delay := initialDelay << i
			if waitErr := wait(ctx, delay); waitErr != nil {
				return zero, fmt.Errorf("retry abandoned: %w", waitErr)
			}
		}
	}
	return zero, fmt.Errorf("operation failed after %d attempts: %w", maxRetries, lastErr)
}
