package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiter serializes outbound calls to one destination and enforces a
// minimum interval between them. Construct one per destination host and share
// it by reference across all callers; a per-call limiter would let concurrent
// workers bypass the interval entirely.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval < 0 {
		interval = 0
	}
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until at least the configured interval has passed since the
// end of the previous request, as stamped by Record. The first call never
// waits. Returns early with the context error when ctx is cancelled while
// waiting.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		if remaining := l.interval - now.Sub(l.last); remaining > 0 {
			if err := l.sleep(ctx, remaining); err != nil {
				return err
			}
			now = l.now()
		}
	}

	// Floor for callers that never Record; the request end stamped by
	// Record supersedes it.
	l.last = now
	return nil
}

// Record stamps the end of the request the last Wait admitted. The interval
// is measured from this point, so a slow upstream response pushes the next
// request out by the full interval instead of overlapping it.
func (l *RateLimiter) Record() {
	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
