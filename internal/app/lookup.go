package app

import (
	"context"
	"errors"
	"time"
)

// DefaultLookupTimeout bounds every read against the system of record when no
// timeout is configured.
const DefaultLookupTimeout = 10 * time.Second

// ErrLookup wraps failed or timed-out reads against the system of record.
var ErrLookup = errors.New("record lookup failed")

// ErrNoRecipients is returned when a stream has nobody to notify.
var ErrNoRecipients = errors.New("no recipients configured")

// boundedLookup runs fn with a deadline and returns when the deadline passes
// even if fn ignores its context. The goroutine then finishes on its own.
func boundedLookup[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
