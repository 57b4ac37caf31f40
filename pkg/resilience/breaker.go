package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current position.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultFailureWindow    = 60 * time.Second
	DefaultCooldown         = 30 * time.Second
)

// CircuitBreaker fails fast once the wrapped dependency has failed
// failureThreshold times within a rolling window. While open it rejects calls
// with ErrOpen for the cooldown period, then moves to half-open and admits a
// single trial call: success closes the circuit, failure reopens it.
//
// Cancellation errors from the wrapped call are not counted as dependency
// failures.
type CircuitBreaker struct {
	failureThreshold int
	window           time.Duration
	cooldown         time.Duration

	mu           sync.Mutex
	state        BreakerState
	failures     int
	windowStart  time.Time
	openedAt     time.Time
	halfOpenBusy bool

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Zero or negative parameters
// fall back to the package defaults.
func NewCircuitBreaker(failureThreshold int, window, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}

	if window <= 0 {
		window = DefaultFailureWindow
	}

	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		window:           window,
		cooldown:         cooldown,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the breaker's current state, accounting for an elapsed
// cooldown (an open breaker whose cooldown has passed reports half-open).
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}

	return b.state
}

// Execute routes op through the breaker. When the breaker is open, or
// half-open with the trial slot taken, op is not invoked and ErrOpen is
// returned.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := op(ctx)
	b.record(err)

	return err
}

func (b *CircuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	switch b.state {
	case StateOpen:
		if now.Sub(b.openedAt) < b.cooldown {
			return ErrOpen
		}

		b.state = StateHalfOpen
		b.halfOpenBusy = true

		return nil
	case StateHalfOpen:
		if b.halfOpenBusy {
			return ErrOpen
		}

		b.halfOpenBusy = true

		return nil
	default:
		if b.failures > 0 && now.Sub(b.windowStart) > b.window {
			b.failures = 0
		}

		return nil
	}
}

func (b *CircuitBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)

	if b.state == StateHalfOpen {
		b.halfOpenBusy = false

		switch {
		case err == nil:
			b.state = StateClosed
			b.failures = 0
		case cancelled:
			// A cancelled trial proves nothing; leave the slot free.
		default:
			b.state = StateOpen
			b.openedAt = b.now()
		}

		return
	}

	if err == nil || cancelled {
		return
	}

	if b.failures == 0 {
		b.windowStart = b.now()
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}
