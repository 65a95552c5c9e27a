package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

func client(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("LUMINA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LUMINA_TEST_REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	cfg.Addr = addr
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStore(t *testing.T) {
	c := client(t)
	ctx := context.Background()
	s := NewStore(c)

	prefix := "test-" + uuid.NewString()
	key := prefix + ":achievements"
	t.Cleanup(func() { _ = s.Delete(context.Background(), key) })

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, state.ErrKeyNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`["first_blood"]`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `["first_blood"]`, string(got))

	keys, err := s.Keys(ctx, prefix+":*")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, state.ErrKeyNotFound)
}

func TestStore_EmptyKey(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrKeyEmpty)
	assert.ErrorIs(t, s.Put(context.Background(), "", nil), ErrKeyEmpty)
}

func TestEventPublisher_RoundTrip(t *testing.T) {
	c := client(t)
	channel := "test-" + uuid.NewString() + ":events"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan shared.EventEnvelope, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = Subscribe(ctx, c, channel, func(env shared.EventEnvelope) {
			select {
			case received <- env:
			default:
			}
		})
	}()
	<-ready

	event := shared.NewAchievementUnlockedEvent("alice", "first_blood", "First Blood", "🩸", time.Now())
	event.BaseEvent = event.BaseEvent.WithCorrelationID("session-1")

	// The subscriber may not be registered yet; publish until it is.
	pub := NewEventPublisher(c, channel)
	for {
		require.NoError(t, pub.Publish(event))
		select {
		case env := <-received:
			assert.Equal(t, shared.EventAchievementUnlocked, env.Type)
			assert.Equal(t, "alice", env.AggregateID)
			assert.Equal(t, "session-1", env.CorrelationID)
			assert.JSONEq(t, `{"achievement_id":"first_blood","name":"First Blood","icon":"🩸"}`, string(env.Payload))
			return
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			t.Fatal("no event received")
		}
	}
}
