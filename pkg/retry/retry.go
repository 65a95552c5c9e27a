// Package retry runs store calls with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Permanent marks err as not retryable. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// IsPermanent reports whether err carries a Permanent marker.
func IsPermanent(err error) bool {
	var pe *backoff.PermanentError
	return errors.As(err, &pe)
}

// Backoff describes how long to wait between attempts.
type Backoff struct {
	Attempts int           // total calls, first one included
	Base     time.Duration // wait after the first failure
	Max      time.Duration // upper bound of any wait
	Factor   float64       // growth per attempt
	Jitter   float64       // fraction of the wait randomised, 0..1
}

func (b Backoff) exponential() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.Base
	eb.MaxInterval = b.Max
	eb.Multiplier = b.Factor
	eb.RandomizationFactor = b.Jitter
	eb.Reset()
	return eb
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	eb := b.exponential()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = eb.NextBackOff()
	}
	return d
}

// Option tunes a Retrier.
type Option func(*Retrier)

// WithAttempts sets the number of calls.
func WithAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.backoff.Attempts = n
		}
	}
}

// WithBase sets the first wait.
func WithBase(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.backoff.Base = d
		}
	}
}

// WithJitter sets the jitter fraction.
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		if j >= 0 && j <= 1 {
			r.backoff.Jitter = j
		}
	}
}

// WithOnRetry registers a callback run before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// Retrier repeats an operation until it succeeds, fails permanently, runs
// out of attempts or its context ends.
type Retrier struct {
	backoff Backoff
	onRetry func(attempt int, err error, delay time.Duration)
}

// StoreRetrier returns a Retrier for key-value store calls. Every error is
// retried except Permanent ones and context cancellation.
func StoreRetrier(attempts int, opts ...Option) *Retrier {
	r := &Retrier{backoff: Backoff{
		Attempts: 1,
		Base:     50 * time.Millisecond,
		Max:      time.Second,
		Factor:   2,
		Jitter:   0.05,
	}}
	WithAttempts(attempts)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backoff returns the effective schedule.
func (r *Retrier) Backoff() Backoff {
	return r.backoff
}

// Do runs op. The returned error has any Permanent marker removed.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(r.backoff.exponential()),
		backoff.WithMaxTries(uint(r.backoff.Attempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if r.onRetry != nil {
				r.onRetry(attempt, err, delay)
			}
		}),
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, opts...)
	return strip(err)
}

// strip removes a marker left on the last attempt's error.
func strip(err error) error {
	var pe *backoff.PermanentError
	if errors.As(err, &pe) && error(pe) == err {
		return pe.Err
	}
	return err
}
