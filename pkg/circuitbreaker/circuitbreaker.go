// Package circuitbreaker keeps a failing Redis cache from dragging the
// read path down: after enough consecutive failures the breaker opens
// and callers fall back to the repository until a probe succeeds.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	// StateClosed allows all requests.
	StateClosed State = iota
	// StateOpen rejects requests until the cool-down passes.
	StateOpen
	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
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

// ErrCircuitOpen is returned while the breaker is rejecting requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type config struct {
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	onStateChange    func(name string, from, to State)
}

// Option configures a breaker.
type Option func(*config)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close the circuit.
func WithSuccessThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.successThreshold = n
		}
	}
}

// WithTimeout sets the open-state cool-down before a probe is allowed.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnStateChange registers a transition callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *config) {
		c.onStateChange = fn
	}
}

// CircuitBreaker tracks consecutive failures around a protected call.
type CircuitBreaker struct {
	name   string
	config config

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	probing      bool
	lastOpenedAt time.Time
}

// New creates a closed breaker. Defaults: 5 failures to open, 2
// successes to close, 30s cool-down.
func New(name string, opts ...Option) *CircuitBreaker {
	cfg := config{
		failureThreshold: 5,
		successThreshold: 2,
		timeout:          30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CircuitBreaker{name: name, config: cfg, state: StateClosed}
}

// Name returns the breaker's identifier.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn when the circuit allows it and records the outcome.
// While open it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.lastOpenedAt) >= cb.config.timeout {
			cb.transition(StateHalfOpen)
			cb.probing = true
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false

	if err != nil {
		cb.failures++
		cb.successes = 0
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.failureThreshold {
				cb.lastOpenedAt = time.Now()
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			cb.lastOpenedAt = time.Now()
			cb.transition(StateOpen)
		}
		return
	}

	cb.successes++
	cb.failures = 0
	if cb.state == StateHalfOpen && cb.successes >= cb.config.successThreshold {
		cb.transition(StateClosed)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if cb.config.onStateChange != nil {
		cb.config.onStateChange(cb.name, from, to)
	}
}
