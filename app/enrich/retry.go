package enrich

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay before the given retry attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff grows the delay by step per attempt: step, 2*step, 3*step...
func LinearBackoff(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Retry runs fn up to attempts times, sleeping per backoff between failures.
// The budget caps attempts, not wall-clock time. Context cancellation aborts
// between attempts.
func Retry(ctx context.Context, attempts int, backoff BackoffFunc, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if attempt < attempts {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
