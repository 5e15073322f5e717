package resilience

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_FirstCallDoesNotWait(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(2500 * time.Millisecond)
	slept := time.Duration(0)
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if slept != 0 {
		t.Fatalf("first call must not sleep, slept=%s", slept)
	}
}

func TestRateLimiter_EnforcesMinimumGap(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(2500 * time.Millisecond)

	current := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	var slept []time.Duration
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		current = current.Add(d)
		return nil
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	// 1s of work elapses, leaving 1.5s of the interval outstanding.
	current = current.Add(1 * time.Second)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	if len(slept) != 1 {
		t.Fatalf("expected exactly one sleep, got=%d", len(slept))
	}
	if slept[0] != 1500*time.Millisecond {
		t.Fatalf("unexpected sleep duration: got=%s want=%s", slept[0], 1500*time.Millisecond)
	}
}

func TestRateLimiter_MeasuresFromRequestEnd(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(2500 * time.Millisecond)

	current := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	var slept []time.Duration
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		current = current.Add(d)
		return nil
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	// A slow upstream holds the response for 2.4s; the next request must
	// still keep the full interval from the response end, not the start.
	current = current.Add(2400 * time.Millisecond)
	limiter.Record()

	current = current.Add(100 * time.Millisecond)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	if len(slept) != 1 {
		t.Fatalf("expected exactly one sleep, got=%d", len(slept))
	}
	if slept[0] != 2400*time.Millisecond {
		t.Fatalf("unexpected sleep duration: got=%s want=%s", slept[0], 2400*time.Millisecond)
	}
}

func TestRateLimiter_NoWaitWhenIntervalElapsed(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(2500 * time.Millisecond)

	current := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		t.Fatalf("unexpected sleep of %s", d)
		return nil
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	current = current.Add(3 * time.Second)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
}

func TestRateLimiter_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(time.Hour)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got=%v", err)
	}
}
