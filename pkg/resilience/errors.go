// Package resilience provides the retry policy and circuit breaker that node
// strategies wrap around their external calls. The repo-wide composition order
// is retries inside a single breaker-guarded call: the breaker observes one
// logical attempt per retry cycle.
package resilience

import "errors"

// ErrOpen is returned by the circuit breaker when it fails fast without
// invoking the wrapped function.
var ErrOpen = errors.New("circuit breaker is open")

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient classifies an error as retryable. The retry policy only
// retries errors carrying this marker; everything else propagates on the
// first attempt.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}

	return &transientError{err: err}
}

// IsTransient reports whether err (or anything it wraps) was marked transient.
func IsTransient(err error) bool {
	var t *transientError

	return errors.As(err, &t)
}
