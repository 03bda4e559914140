package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backend that cannot be reached or is busy.
var ErrUnavailable = errors.New("backend unavailable")

// retryableError marks an error as worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err for [Backoff.Retry]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or an error it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Backoff bounds how often fn is attempted and how long Retry waits
// between attempts. The wait doubles after every attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used by the stores for busy databases and dropped
// connections.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Retry calls fn until it succeeds, returns an error not marked with
// [Retryable], or the attempts run out. The last error is returned.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}

// RetryWithBackoff retries fn with [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}
