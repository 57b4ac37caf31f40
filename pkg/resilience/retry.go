package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry defaults, used when a field is left at its zero value.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 30 * time.Second
	DefaultMultiplier      = 2.0
)

// RetryPolicy invokes a unit of work and retries transient failures with
// exponential backoff plus jitter, up to MaxAttempts total attempts.
// Non-transient failures propagate immediately. Cancellation is respected
// between attempts: once the context is done, no further attempt is made.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// NewRetryPolicy returns a policy with the default backoff schedule.
// maxAttempts <= 0 means a single attempt with no retries.
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

// Do runs op until it succeeds, returns a non-transient error, exhausts the
// attempt budget, or the context is cancelled. The last failure is returned
// on exhaustion; the context error is returned when cancellation interrupts
// the retry loop.
func (p *RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		bo.InitialInterval = p.InitialInterval
	}

	if p.MaxInterval > 0 {
		bo.MaxInterval = p.MaxInterval
	}

	if p.Multiplier > 0 {
		bo.Multiplier = p.Multiplier
	}

	bo.Reset()

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) || attempt == maxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}

	return lastErr
}
