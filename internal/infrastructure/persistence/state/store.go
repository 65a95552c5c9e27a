// Package state adapts a key-value Store into the session commit boundary.
//
// Each state key is stored as one JSON value under "<namespace>:<profile>:<key>".
// The layout matches what the desktop player keeps in localStorage, so a
// snapshot exported from it can be imported unchanged.
package state

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a Store when a key has never been written.
var ErrKeyNotFound = errors.New("state: key not found")

// Store is a last-write-wins key-value store.
type Store interface {
	// Get returns the value of key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// WritePolicy decides when committed keys reach the store.
type WritePolicy string

const (
	// PolicyImmediate writes every commit before returning.
	PolicyImmediate WritePolicy = "immediate"

	// PolicyDeferred buffers commits until Flush.
	PolicyDeferred WritePolicy = "deferred"
)

// IsValid checks if the policy is known.
func (p WritePolicy) IsValid() bool {
	return p == PolicyImmediate || p == PolicyDeferred
}

// DefaultNamespace prefixes every key.
const DefaultNamespace = "lumina"
