package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

var _ state.Store = (*Store)(nil)

// Store keeps state values as Redis strings without expiry.
type Store struct {
	client *redis.Client
}

// NewStore creates a Store on client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get implements state.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, state.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, nil
}

// Put implements state.Store.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrKeyEmpty
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: put %s: %w", key, err)
	}
	return nil
}

// Delete implements state.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

// Keys returns every key matching pattern. SCAN is used so large databases
// are not blocked.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: scan %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
