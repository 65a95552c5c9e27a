// Package postgres implements the shared key-value Store on PostgreSQL.
// Several players can point at one database; each profile owns its own keys.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrConnectionClosed is returned for work submitted after Close.
	ErrConnectionClosed = errors.New("postgres: connection pool is closed")

	// ErrMigrationFailed wraps a migration that did not apply.
	ErrMigrationFailed = errors.New("postgres: migration failed")
)

// PoolOptions size the pool. Zero values keep the URL's own settings.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// DefaultPoolOptions returns a small pool; a player issues few writes.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{MaxConns: 4, MinConns: 1, MaxConnIdleTime: 30 * time.Minute}
}

// Connection is a pgx pool that refuses work once closed.
type Connection struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// Connect opens a pool for databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string, opts PoolOptions) (*Connection, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Connection{pool: pool}, nil
}

// Close releases the pool. It is safe to call more than once.
func (c *Connection) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.pool.Close()
	}
}

// Ping checks that the database answers.
func (c *Connection) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return c.pool.Ping(ctx)
}

func (c *Connection) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if c.closed.Load() {
		return pgconn.CommandTag{}, ErrConnectionClosed
	}
	return c.pool.Exec(ctx, sql, args...)
}

func (c *Connection) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	return c.pool.Query(ctx, sql, args...)
}

func (c *Connection) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if c.closed.Load() {
		return errRow{ErrConnectionClosed}
	}
	return c.pool.QueryRow(ctx, sql, args...)
}

// inTx runs fn in a transaction committed when fn returns nil.
func (c *Connection) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return pgx.BeginFunc(ctx, c.pool, fn)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
