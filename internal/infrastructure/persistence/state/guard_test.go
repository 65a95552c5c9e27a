package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/circuitbreaker"
)

func TestGuardedStore_MissingKeysDoNotTrip(t *testing.T) {
	g := NewGuardedStore(newMapStore(), "test", circuitbreaker.WithFailureThreshold(1))

	for i := 0; i < 3; i++ {
		_, err := g.Get(context.Background(), "absent")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	}
	assert.False(t, g.Breaker().IsOpen())
}

func TestGuardedStore_OpenCircuitStopsRetries(t *testing.T) {
	store := newMapStore()
	store.failPuts = 100
	g := NewGuardedStore(store, "test", circuitbreaker.WithFailureThreshold(2))
	c := NewCommitter(g, Options{Profile: "alice", RetryAttempts: 5})

	st := session.State{Progress: map[string]progress.LessonRecord{"/a.mp4": {Completed: true}}}
	err := c.Commit(context.Background(), st, shared.NewChangeSet(shared.KeyCourseProgress))
	require.Error(t, err)

	assert.True(t, g.Breaker().IsOpen())
	assert.Equal(t, 2, store.puts)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
