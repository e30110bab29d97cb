package httputil

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff computes jittered linear retry delays.
type Backoff struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultBackoff waits 200ms per attempt plus up to 100ms of jitter.
func DefaultBackoff() *Backoff {
	return &Backoff{Base: 200 * time.Millisecond, Jitter: 100 * time.Millisecond}
}

// Delay returns the wait before the given retry attempt (1-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	d := time.Duration(attempt) * b.Base
	if b.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(b.Jitter)))
	}
	return d
}

// Wait sleeps for Delay(attempt) or until ctx is done.
func (b *Backoff) Wait(ctx context.Context, attempt int) error {
	return sleep(ctx, b.Delay(attempt))
}
