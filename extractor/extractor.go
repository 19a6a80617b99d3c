// Package extractor drives the two scraping passes against the membership
// directory: the listing traversal and the per-member detail batch. Both
// run strictly sequentially; the politeness delay between requests is a hard
// constraint of the target host, not a tuning knob.
package extractor

import (
	"context"
	"time"
)

// sleepCtx sleeps for d or until ctx is cancelled. Reports false when the
// sleep was interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoff returns the wait before retry attempt (1-based), growing linearly
// from the base politeness delay
func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(attempt) * base
}
