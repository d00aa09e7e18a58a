package enrich

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, LinearBackoff(time.Millisecond), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, LinearBackoff(time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	calls := 0
	underlying := errors.New("always fails")

	err := Retry(context.Background(), 3, LinearBackoff(time.Millisecond), func() error {
		calls++
		return underlying
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected wrapped underlying error, got: %v", err)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, LinearBackoff(time.Millisecond), func() error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("Expected context error")
	}
	if calls != 0 {
		t.Errorf("Expected no calls with cancelled context, got %d", calls)
	}
}

func TestLinearBackoffGrowsPerAttempt(t *testing.T) {
	backoff := LinearBackoff(2 * time.Second)

	if backoff(1) != 2*time.Second {
		t.Errorf("Expected 2s for attempt 1, got %v", backoff(1))
	}
	if backoff(3) != 6*time.Second {
		t.Errorf("Expected 6s for attempt 3, got %v", backoff(3))
	}
}
