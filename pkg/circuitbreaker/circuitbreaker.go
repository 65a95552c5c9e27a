// Package circuitbreaker fails calls to a dead database or Redis server fast
// instead of letting every write wait out its retries.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// State is the breaker state.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Counts are the request counters of the current generation.
type Counts = gobreaker.Counts

var (
	// ErrCircuitOpen is returned while the circuit rejects calls.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned when the half-open probe budget is spent.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// Config holds the breaker settings.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32

	// Timeout is the time spent open before probing.
	Timeout time.Duration

	// MaxHalfOpenRequests bounds probes; that many successes close the circuit.
	MaxHalfOpenRequests uint32

	OnStateChange func(name string, from, to State)

	// IsFailure decides whether err counts against the backend. Nil counts
	// every non-nil error.
	IsFailure func(error) bool
}

// Option configures a CircuitBreaker.
type Option func(*Config)

// WithFailureThreshold sets the consecutive failures that open the circuit.
func WithFailureThreshold(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithTimeout sets the open-state cool-down.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithMaxHalfOpenRequests sets the probe budget.
func WithMaxHalfOpenRequests(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxHalfOpenRequests = n
		}
	}
}

// WithOnStateChange registers a transition callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) { c.OnStateChange = fn }
}

// WithIsFailure sets the failure classifier.
func WithIsFailure(fn func(error) bool) Option {
	return func(c *Config) { c.IsFailure = fn }
}

// CircuitBreaker guards calls to one backend.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a CircuitBreaker. Defaults: 5 failures, 10s cool-down, one probe.
func New(name string, opts ...Option) *CircuitBreaker {
	cfg := Config{
		FailureThreshold:    5,
		Timeout:             10 * time.Second,
		MaxHalfOpenRequests: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: cfg.OnStateChange,
	}
	if cfg.IsFailure != nil {
		isFailure := cfg.IsFailure
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn when the circuit allows it and records the outcome.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// State returns the current state.
func (b *CircuitBreaker) State() State { return b.cb.State() }

// Counts returns the counters of the current generation.
func (b *CircuitBreaker) Counts() Counts { return b.cb.Counts() }

// Name returns the breaker name.
func (b *CircuitBreaker) Name() string { return b.cb.Name() }

// IsOpen reports whether calls are currently rejected.
func (b *CircuitBreaker) IsOpen() bool { return b.cb.State() == StateOpen }
