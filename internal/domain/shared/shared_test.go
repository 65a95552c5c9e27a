package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError("state", "Commit", ErrPersistence, "write watchHistory", cause)

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsPersistence(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "state.Commit: write watchHistory: disk full", err.Error())
}

func TestSentinelsClassify(t *testing.T) {
	assert.True(t, IsNotFound(ErrCourseNotFound))
	assert.True(t, IsValidation(ErrEmptyTag))
	assert.True(t, IsExternalService(ErrNotificationFailed))
}

func TestChangeSet(t *testing.T) {
	var cs ChangeSet
	assert.True(t, cs.IsEmpty())
	assert.False(t, cs.Has(KeyWatchHistory))

	cs.Mark(KeyWatchHistory, KeyCourseProgress, KeyWatchHistory)
	other := NewChangeSet(KeyAchievements)
	cs.Merge(other)

	assert.False(t, cs.IsEmpty())
	assert.True(t, cs.Has(KeyAchievements))
	assert.Equal(t, []StateKey{KeyAchievements, KeyCourseProgress, KeyWatchHistory}, cs.Keys())
}

func TestStateKey_IsValid(t *testing.T) {
	for _, k := range AllStateKeys() {
		assert.True(t, k.IsValid(), k)
	}
	assert.False(t, StateKey("thumbCache").IsValid())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, Percent(0), NewPercent(0, 0))
	assert.Equal(t, Percent(0), NewPercent(3, 0))
	assert.Equal(t, Percent(100), NewPercent(4, 4))
	assert.Equal(t, 33, NewPercent(1, 3).Rounded())
	assert.Equal(t, "67%", NewPercent(2, 3).String())
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
	ev := NewLessonCompletedEvent("default", "/c/a.mp4", "c", false, at)

	env, err := NewEnvelope(ev, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, EventLessonCompleted, env.Type)
	assert.Equal(t, "default", env.AggregateID)
	assert.Equal(t, at, env.Timestamp)
	assert.JSONEq(t, `{"lesson_path":"/c/a.mp4","course":"c","ended":false}`, string(env.Payload))
}
