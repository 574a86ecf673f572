package remote

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket gating every protocol request so a run
// with many concurrent documents stays inside the service's throughput
// limit.
type rateLimiter struct {
	mu sync.Mutex

	requestsPerSecond float64
	tokens            float64
	lastUpdate        time.Time
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 6.0
	}
	return &rateLimiter{
		requestsPerSecond: requestsPerSecond,
		tokens:            requestsPerSecond,
		lastUpdate:        time.Now(),
	}
}

// wait blocks until a token is available or the context is cancelled.
func (r *rateLimiter) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1.0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		needed := 1.0 - r.tokens
		waitTime := time.Duration(needed / r.requestsPerSecond * float64(time.Second))
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// refill adds tokens for elapsed time. Must be called with the lock held.
func (r *rateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	r.lastUpdate = now

	r.tokens += elapsed * r.requestsPerSecond
	if r.tokens > r.requestsPerSecond {
		r.tokens = r.requestsPerSecond
	}
}
