package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

var _ state.Store = (*Store)(nil)

// Store keeps state values in the lumina_kv table.
type Store struct {
	conn *Connection
}

// NewStore creates a Store on conn. Run the Migrator first.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Get implements state.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.conn.queryRow(ctx, `SELECT value FROM lumina_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, state.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", key, err)
	}
	return value, nil
}

// Put implements state.Store.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const stmt = `
		INSERT INTO lumina_kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.conn.exec(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("postgres: put %s: %w", key, err)
	}
	return nil
}

// Delete implements state.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.exec(ctx, `DELETE FROM lumina_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete %s: %w", key, err)
	}
	return nil
}

// Keys returns the keys starting with prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.conn.query(ctx, `SELECT key FROM lumina_kv WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("postgres: list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("postgres: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
