package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

func TestTags_AddDeduplicates(t *testing.T) {
	tags := NewTags()

	changed, err := tags.Add("go", "backend")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = tags.Add("go", "  backend ")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = tags.Add("go", "concurrency")
	require.NoError(t, err)

	assert.Equal(t, []string{"backend", "concurrency"}, tags.Of("go"))
	assert.Empty(t, tags.Of("rust"))
}

func TestTags_AddRejectsEmpty(t *testing.T) {
	_, err := NewTags().Add("go", "   ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestTags_Remove(t *testing.T) {
	tags := TagsFrom(map[string][]string{"go": {"a", "b", "a"}})
	assert.Equal(t, []string{"a", "b"}, tags.Of("go"))

	assert.True(t, tags.Remove("go", "a"))
	assert.False(t, tags.Remove("go", "a"))
	assert.True(t, tags.Remove("go", "b"))
	assert.Empty(t, tags.Snapshot())
}

func TestTags_Matches(t *testing.T) {
	tags := NewTags()
	_, _ = tags.Add("Go Basics", "Backend")

	assert.True(t, tags.Matches("Go Basics", ""))
	assert.True(t, tags.Matches("Go Basics", "basics"))
	assert.True(t, tags.Matches("Go Basics", "back"))
	assert.False(t, tags.Matches("Go Basics", "frontend"))
}

func TestFilter(t *testing.T) {
	courses := []content.Folder{{Name: "go"}, {Name: "rust"}, {Name: "python"}}
	tags := NewTags()
	_, _ = tags.Add("python", "systems-ish")
	_, _ = tags.Add("rust", "systems")

	got := Filter(courses, tags, "SYSTEMS")
	require.Len(t, got, 2)
	assert.Equal(t, "rust", got[0].Name)
	assert.Equal(t, "python", got[1].Name)
}

func TestLastWatched(t *testing.T) {
	lw := LastWatchedFrom(map[string]string{"go": "/go/1.mp4", "": "/x"})

	p, ok := lw.Get("go")
	require.True(t, ok)
	assert.Equal(t, "/go/1.mp4", p)

	assert.False(t, lw.Set("go", "/go/1.mp4"))
	assert.True(t, lw.Set("go", "/go/2.mp4"))
	assert.False(t, lw.Set("", "/go/2.mp4"))
	assert.Equal(t, map[string]string{"go": "/go/2.mp4"}, lw.Snapshot())
}

func TestResumeTarget(t *testing.T) {
	lessons := []content.Lesson{{Path: "/go/1"}, {Path: "/go/2"}}
	lw := NewLastWatched()

	l, ok := ResumeTarget(lessons, lw, "go")
	require.True(t, ok)
	assert.Equal(t, "/go/1", l.Path)

	lw.Set("go", "/go/2")
	l, _ = ResumeTarget(lessons, lw, "go")
	assert.Equal(t, "/go/2", l.Path)

	lw.Set("go", "/go/deleted")
	l, _ = ResumeTarget(lessons, lw, "go")
	assert.Equal(t, "/go/1", l.Path)

	_, ok = ResumeTarget(nil, lw, "go")
	assert.False(t, ok)
}
