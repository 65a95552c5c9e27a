package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/timeutil"
)

type mapStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	puts     int
	failPuts int // remaining Put calls that fail
	failGets int // remaining Get calls that fail
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGets > 0 {
		m.failGets--
		return nil, errors.New("i/o timeout")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (m *mapStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPuts > 0 {
		m.failPuts--
		return errors.New("connection reset")
	}
	m.data[key] = value
	return nil
}

func (m *mapStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

func fullState() session.State {
	return session.State{
		Progress:     map[string]progress.LessonRecord{"/c/a.mp4": {Completed: true, Position: 42.5}},
		History:      map[string]int{"2026-02-04": 5},
		Achievements: []string{"first_blood", "master"},
		Tags:         map[string][]string{"c": {"go"}},
		LastWatched:  map[string]string{"c": "/c/a.mp4"},
	}
}

func TestCommitter_Key(t *testing.T) {
	c := NewCommitter(newMapStore(), Options{Profile: "alice"})
	assert.Equal(t, "lumina:alice:courseProgress", c.Key(shared.KeyCourseProgress))

	c = NewCommitter(newMapStore(), Options{Namespace: "test"})
	assert.Equal(t, "test:default:watchHistory", c.Key(shared.KeyWatchHistory))
}

func TestCommitter_WireLayout(t *testing.T) {
	store := newMapStore()
	c := NewCommitter(store, Options{Profile: "p"})

	require.NoError(t, c.Import(context.Background(), fullState()))

	assert.JSONEq(t, `{"/c/a.mp4":{"completed":true,"timestamp":42.5}}`, store.value("lumina:p:courseProgress"))
	assert.JSONEq(t, `{"2026-02-04":5}`, store.value("lumina:p:watchHistory"))
	assert.JSONEq(t, `["first_blood","master"]`, store.value("lumina:p:achievements"))
	assert.JSONEq(t, `{"c":["go"]}`, store.value("lumina:p:courseTags"))
	assert.JSONEq(t, `{"c":"/c/a.mp4"}`, store.value("lumina:p:lastWatched"))
}

func TestCommitter_EmptyValuesAreNotNull(t *testing.T) {
	store := newMapStore()
	c := NewCommitter(store, Options{})

	require.NoError(t, c.Import(context.Background(), session.State{}))
	assert.Equal(t, `{}`, store.value("lumina:default:courseProgress"))
	assert.Equal(t, `[]`, store.value("lumina:default:achievements"))
}

func TestCommitter_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCommitter(newMapStore(), Options{})

	require.NoError(t, c.Import(ctx, fullState()))
	st, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, fullState(), st)
}

func TestCommitter_LoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data["lumina:default:watchHistory"] = []byte(`{"2026-02-04":`)
	store.data["lumina:default:achievements"] = []byte(`["first_blood"]`)

	st, err := NewCommitter(store, Options{}).Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.History)
	assert.Nil(t, st.Progress)
	assert.Equal(t, []string{"first_blood"}, st.Achievements)
}

func TestCommitter_ImmediateWritesOnlyChangedKeys(t *testing.T) {
	store := newMapStore()
	c := NewCommitter(store, Options{})

	st := session.State{History: map[string]int{"2026-02-04": 1}}
	require.NoError(t, c.Commit(context.Background(), st, shared.NewChangeSet(shared.KeyWatchHistory)))

	assert.Equal(t, 1, store.puts)
	assert.JSONEq(t, `{"2026-02-04":1}`, store.value("lumina:default:watchHistory"))
	assert.Empty(t, c.Pending())
}

func TestCommitter_DeferredWaitsForFlush(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := NewCommitter(store, Options{Policy: PolicyDeferred})

	st := session.State{History: map[string]int{"2026-02-04": 1}}
	require.NoError(t, c.Commit(ctx, st, shared.NewChangeSet(shared.KeyWatchHistory)))
	st.History["2026-02-04"] = 2
	require.NoError(t, c.Commit(ctx, st, shared.NewChangeSet(shared.KeyWatchHistory)))

	assert.Equal(t, 0, store.puts)
	assert.Equal(t, []shared.StateKey{shared.KeyWatchHistory}, c.Pending())

	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-02-04": 2}, loaded.History, "pending writes are visible to Load")

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, 1, store.puts)
	assert.JSONEq(t, `{"2026-02-04":2}`, store.value("lumina:default:watchHistory"))
	assert.Empty(t, c.Pending())

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, 1, store.puts)
}

func TestCommitter_RetriesTransientFailures(t *testing.T) {
	store := newMapStore()
	store.failPuts = 2
	c := NewCommitter(store, Options{RetryAttempts: 3})

	st := session.State{Achievements: []string{"first_blood"}}
	require.NoError(t, c.Commit(context.Background(), st, shared.NewChangeSet(shared.KeyAchievements)))
	assert.Equal(t, 3, store.puts)
}

func TestCommitter_FailedFlushKeepsPending(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.failPuts = 1
	c := NewCommitter(store, Options{Policy: PolicyDeferred})

	st := session.State{Achievements: []string{"first_blood"}}
	require.NoError(t, c.Commit(ctx, st, shared.NewChangeSet(shared.KeyAchievements)))

	err := c.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "achievements")
	assert.Equal(t, []shared.StateKey{shared.KeyAchievements}, c.Pending())

	require.NoError(t, c.Flush(ctx))
	assert.Empty(t, c.Pending())
	assert.JSONEq(t, `["first_blood"]`, store.value("lumina:default:achievements"))
}

func TestCommitter_Reset(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := NewCommitter(store, Options{})

	require.NoError(t, c.Import(ctx, fullState()))
	require.NoError(t, c.Reset(ctx))
	assert.Empty(t, store.data)

	st, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.State{}, st)
}

func TestCommitter_WithSession(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	s := session.New(session.Config{Profile: "bob"}, session.Deps{
		Persister: NewCommitter(store, Options{Profile: "bob"}),
	})
	require.NoError(t, s.AddTag(ctx, "course", "backend"))
	assert.JSONEq(t, `{"course":["backend"]}`, store.value("lumina:bob:courseTags"))

	restored := session.New(session.Config{Profile: "bob"}, session.Deps{
		Persister: NewCommitter(store, Options{Profile: "bob"}),
	})
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, []string{"backend"}, restored.Tags("course"))
}

func TestCommitter_FailedLoadDoesNotOverwriteStore(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	require.NoError(t, NewCommitter(store, Options{Profile: "p"}).Import(ctx, session.State{
		History:      map[string]int{"2026-02-01": 3, "2026-02-02": 4, "2026-02-03": 5},
		Achievements: []string{"first_blood", "master"},
	}))

	store.failGets = 1
	s := session.New(session.Config{Profile: "p", Location: time.UTC}, session.Deps{
		Clock:     timeutil.ClockFunc(func() time.Time { return time.Date(2026, 2, 4, 1, 0, 0, 0, time.UTC) }),
		Persister: NewCommitter(store, Options{Profile: "p"}),
	})
	require.Error(t, s.Load(ctx))

	_, err := s.FinishLesson(ctx, "/c/a.mp4")
	assert.ErrorIs(t, err, session.ErrNotLoaded)

	assert.JSONEq(t, `{"2026-02-01":3,"2026-02-02":4,"2026-02-03":5}`, store.value("lumina:p:watchHistory"))
	assert.JSONEq(t, `["first_blood","master"]`, store.value("lumina:p:achievements"))
}
