// Package retry provides bounded retry with exponential backoff and jitter.
// No external dependencies - uses only standard library.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps an error to stop further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent checks whether an error was marked permanent.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// Do runs fn up to attempts times, sleeping baseDelay*2^i plus up to 50%
// jitter between attempts. It stops early on context cancellation or a
// permanent error, and returns the last error observed.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			var perm *PermanentError
			errors.As(lastErr, &perm)
			return perm.Err
		}
		if attempt == attempts-1 {
			break
		}

		sleep := delay
		if delay > 0 {
			sleep += time.Duration(rand.Int63n(int64(delay)/2 + 1))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		delay *= 2
	}

	return lastErr
}
