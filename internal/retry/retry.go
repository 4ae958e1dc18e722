// Package retry is the single bounded-retry/backoff utility shared by the
// market feed (reconnects) and the execution coordinator (fill polling).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Reconnect returns an unbounded exponential backoff for connection
// retry loops: starts at initial, doubles with jitter, capped at max.
// It never gives up; only context cancellation stops the caller.
func Reconnect(initial, max time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0 // retry forever
	return b
}

// Poll returns a fixed-interval schedule that allows exactly attempts
// tries, used for bounded order-fill polling.
func Poll(interval time.Duration, attempts uint64) backoff.BackOff {
	if attempts == 0 {
		attempts = 1
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), attempts-1)
}

// Do runs fn until it succeeds, the schedule is exhausted, or the context
// is cancelled. The last error is returned on exhaustion.
func Do(ctx context.Context, b backoff.BackOff, fn func() error) error {
	return backoff.Retry(fn, backoff.WithContext(b, ctx))
}

// Permanent marks err so Do stops retrying immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
