package resilience

import (
	"sync"
	"time"
)

// BreakerGroup hands out one shared circuit breaker per dependency key
// (an HTTP host, a database provider, an SMTP server). Strategy instances
// are per-invocation, so factories own a group to keep breaker state alive
// across invocations.
type BreakerGroup struct {
	failureThreshold int
	window           time.Duration
	cooldown         time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewBreakerGroup(failureThreshold int, window, cooldown time.Duration) *BreakerGroup {
	return &BreakerGroup{
		failureThreshold: failureThreshold,
		window:           window,
		cooldown:         cooldown,
		breakers:         make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *BreakerGroup) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	breaker, ok := g.breakers[key]
	if !ok {
		breaker = NewCircuitBreaker(g.failureThreshold, g.window, g.cooldown)
		g.breakers[key] = breaker
	}

	return breaker
}
