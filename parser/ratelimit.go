package parser

import (
	"context"
	"time"
)

// RateLimiter spaces out sequential operations by a fixed interval.
// A zero interval disables waiting entirely.
//
// Example usage:
//
//	limiter := parser.NewRateLimiter(500 * time.Millisecond)
//	defer limiter.Stop()
//
//	for _, url := range urls {
//	    // ... perform rate-limited operation ...
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
type RateLimiter struct {
	ticker *time.Ticker
}

// NewRateLimiter creates a new rate limiter with the specified interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	rl := &RateLimiter{}
	if interval > 0 {
		rl.ticker = time.NewTicker(interval)
	}
	return rl
}

// Wait blocks until the next tick occurs or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.ticker == nil {
		return ctx.Err()
	}

	select {
	case <-rl.ticker.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop releases the ticker. Typically used with defer.
func (rl *RateLimiter) Stop() {
	if rl.ticker != nil {
		rl.ticker.Stop()
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
