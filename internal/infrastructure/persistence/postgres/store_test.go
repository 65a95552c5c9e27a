package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

func connect(t *testing.T) *Connection {
	t.Helper()
	url := os.Getenv("LUMINA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LUMINA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := Connect(ctx, url, DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, NewMigrator(conn).Migrate(ctx))
	return conn
}

func TestMigrator_Idempotent(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()

	require.NoError(t, NewMigrator(conn).Migrate(ctx))

	status, err := NewMigrator(conn).Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.True(t, status[0].IsApplied)
}

func TestStore(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()
	s := NewStore(conn)

	prefix := "test-" + uuid.NewString() + ":"
	key := prefix + "watchHistory"
	t.Cleanup(func() { _ = s.Delete(context.Background(), key) })

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, state.ErrKeyNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"2026-02-04":1}`)))
	require.NoError(t, s.Put(ctx, key, []byte(`{"2026-02-04":2}`)))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"2026-02-04":2}`, string(got))

	keys, err := s.Keys(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, state.ErrKeyNotFound)
}

func TestConnection_ClosedRefusesWork(t *testing.T) {
	conn := connect(t)
	conn.Close()

	assert.ErrorIs(t, conn.Ping(context.Background()), ErrConnectionClosed)
	_, err := conn.exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrConnectionClosed)
	_, err = NewStore(conn).Get(context.Background(), "lumina:p:achievements")
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
