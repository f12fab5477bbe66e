package marketplace

import (
	"context"
	"time"
)

// RateLimiter paces requests to a fixed requests-per-second budget. The
// SP-API orders endpoint allows far less than one request per second, so the
// limiter has to be able to wait for minutes while still honoring ctx.
type RateLimiter struct {
	interval time.Duration
	last     time.Time
}

func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		interval: time.Duration(float64(time.Second) / requestsPerSecond),
	}
}

// Acquire blocks until the next request slot or ctx is done.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	now := time.Now()
	wait := rl.interval - now.Sub(rl.last)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	rl.last = time.Now()
	return nil
}
