// Package memory provides an in-process key-value Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

var _ state.Store = (*Store)(nil)

// Store keeps values in a map. Values are copied on the way in and out.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements state.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, state.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements state.Store.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements state.Store.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Keys returns every stored key, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
