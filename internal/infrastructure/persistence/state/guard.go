package state

import (
	"context"
	"errors"

	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/circuitbreaker"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/retry"
)

// GuardedStore wraps a remote Store with a circuit breaker. While the circuit
// is open calls fail at once and are not retried by the Committer.
type GuardedStore struct {
	store Store
	cb    *circuitbreaker.CircuitBreaker
}

var _ Store = (*GuardedStore)(nil)

// NewGuardedStore creates a GuardedStore. Missing keys and cancelled contexts
// do not count as backend failures.
func NewGuardedStore(store Store, name string, opts ...circuitbreaker.Option) *GuardedStore {
	base := []circuitbreaker.Option{
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, ErrKeyNotFound) &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}),
	}
	return &GuardedStore{
		store: store,
		cb:    circuitbreaker.New(name, append(base, opts...)...),
	}
}

// Breaker exposes the underlying circuit breaker.
func (g *GuardedStore) Breaker() *circuitbreaker.CircuitBreaker {
	return g.cb
}

// Get implements Store.
func (g *GuardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		value, err = g.store.Get(ctx, key)
		return err
	})
	return value, err
}

// Put implements Store.
func (g *GuardedStore) Put(ctx context.Context, key string, value []byte) error {
	return g.call(ctx, func(ctx context.Context) error {
		return g.store.Put(ctx, key, value)
	})
}

// Delete implements Store.
func (g *GuardedStore) Delete(ctx context.Context, key string) error {
	return g.call(ctx, func(ctx context.Context) error {
		return g.store.Delete(ctx, key)
	})
}

func (g *GuardedStore) call(ctx context.Context, fn func(context.Context) error) error {
	err := g.cb.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return retry.Permanent(err)
	}
	return err
}
