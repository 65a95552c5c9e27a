package messaging

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

var at = time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var typed, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewStreakRecomputedEvent("p", "2026-02-04", 1, at)))
	require.NoError(t, bus.Publish(shared.NewAchievementUnlockedEvent("p", "first_blood", "First Blood", "🩸", at)))

	assert.Equal(t, []shared.EventType{shared.EventAchievementUnlocked}, typed)
	assert.Equal(t, []shared.EventType{shared.EventStreakRecomputed, shared.EventAchievementUnlocked}, all)

	m := bus.Metrics()
	assert.Equal(t, int64(2), m.TotalPublished)
	assert.Equal(t, int64(3), m.HandlerSuccesses)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug})
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{Logger: log})
	defer bus.Close()

	called := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("sink down") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { called = true; return nil }))

	require.NoError(t, bus.Publish(shared.NewCourseCompletedEvent("p", "go", 3, at)))

	assert.True(t, called)
	assert.Equal(t, int64(2), bus.Metrics().HandlerFailures)
	assert.Contains(t, buf.String(), "event handler panicked")
	assert.Contains(t, buf.String(), "sink down")
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewStreakRecomputedEvent("p", "2026-02-04", i, at)))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewStreakRecomputedEvent("p", "2026-02-04", 1, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCourseCompleted, nil), ErrNilHandler)
}

type recordingPublisher struct{ events []shared.Event }

func (r *recordingPublisher) Publish(e shared.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestForward(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	dst := &recordingPublisher{}
	require.NoError(t, Forward(bus, dst))

	event := shared.NewLessonCompletedEvent("p", "/c/a.mp4", "c", false, at)
	require.NoError(t, bus.Publish(event))
	require.Len(t, dst.events, 1)
	assert.Equal(t, event, dst.events[0])
}
