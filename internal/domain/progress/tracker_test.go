package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/activity"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

const day = activity.DayKey("2026-02-04")

func TestRecordPlaybackPosition_CreatesRecordAndCountsActivity(t *testing.T) {
	ledger := activity.NewLedger()
	tr := NewTracker(ledger)

	res := tr.RecordPlaybackPosition("/c/a.mp4", 10, 100, day)

	assert.Equal(t, LessonRecord{Path: "/c/a.mp4", Position: 10}, res.Record)
	assert.True(t, res.FirstOfDay)
	assert.Equal(t, 1, res.DayCount)
	assert.False(t, res.JustCompleted)
	assert.Equal(t, 1, ledger.Count(day))

	res = tr.RecordPlaybackPosition("/c/a.mp4", 20, 100, day)
	assert.False(t, res.FirstOfDay)
	assert.Equal(t, 2, ledger.Count(day))
}

func TestRecordPlaybackPosition_CompletesExactlyOnce(t *testing.T) {
	tr := NewTracker(nil)

	positions := []float64{10, 79.9, 80, 85, 95, 5}
	transitions := 0
	for _, p := range positions {
		if tr.RecordPlaybackPosition("/c/a.mp4", p, 100, day).JustCompleted {
			transitions++
		}
	}

	assert.Equal(t, 1, transitions)
	rec := tr.Record("/c/a.mp4")
	assert.True(t, rec.Completed)
	assert.Equal(t, 5.0, rec.Position)
}

func TestRecordPlaybackPosition_ThresholdBoundary(t *testing.T) {
	tr := NewTracker(nil)
	assert.False(t, tr.RecordPlaybackPosition("/a", 79.99, 100, day).JustCompleted)
	assert.True(t, tr.RecordPlaybackPosition("/b", 80, 100, day).JustCompleted)
}

func TestRecordPlaybackPosition_InvalidInputs(t *testing.T) {
	tr := NewTracker(nil)

	res := tr.RecordPlaybackPosition("/a", 50, 0, day)
	assert.False(t, res.JustCompleted, "zero duration never completes")

	res = tr.RecordPlaybackPosition("/a", -3, 100, day)
	assert.Equal(t, 0.0, res.Record.Position)

	res = tr.RecordPlaybackPosition("/a", math.NaN(), 100, day)
	assert.Equal(t, 0.0, res.Record.Position)

	res = tr.RecordPlaybackPosition("/a", 90, math.Inf(1), day)
	assert.False(t, res.JustCompleted)
}

func TestMarkCompleted(t *testing.T) {
	tr := NewTracker(nil)

	assert.True(t, tr.MarkCompleted("/a"))
	assert.False(t, tr.MarkCompleted("/a"))
	assert.True(t, tr.IsCompleted("/a"))

	res := tr.RecordPlaybackPosition("/a", 99, 100, day)
	assert.False(t, res.JustCompleted)
}

func TestResolveResumePosition(t *testing.T) {
	tr := NewTracker(nil)
	tr.RecordPlaybackPosition("/watching", 42, 100, day)
	tr.RecordPlaybackPosition("/done", 90, 100, day)

	assert.Equal(t, 42.0, tr.ResolveResumePosition("/watching", true))
	assert.Equal(t, 42.0, tr.ResolveResumePosition("/watching", false))
	assert.Equal(t, 0.0, tr.ResolveResumePosition("/done", true))
	assert.Equal(t, 90.0, tr.ResolveResumePosition("/done", false))
	assert.Equal(t, 0.0, tr.ResolveResumePosition("/never", false))
}

func TestRecord_MissingIsZeroValue(t *testing.T) {
	tr := NewTracker(nil)
	assert.Equal(t, LessonRecord{Path: "/nope"}, tr.Record("/nope"))
}

func lessons(paths ...string) []content.Lesson {
	out := make([]content.Lesson, 0, len(paths))
	for _, p := range paths {
		out = append(out, content.Lesson{Name: p, Path: p})
	}
	return out
}

func TestIsCourseComplete(t *testing.T) {
	tr := NewTracker(nil)
	course := lessons("/c/1", "/c/2")

	assert.False(t, tr.IsCourseComplete(nil), "an empty course is not complete")
	assert.False(t, tr.IsCourseComplete(course))

	tr.MarkCompleted("/c/1")
	assert.False(t, tr.IsCourseComplete(course))

	tr.MarkCompleted("/c/2")
	assert.True(t, tr.IsCourseComplete(course))
}

func TestCourseProgressView(t *testing.T) {
	tr := NewTracker(nil)

	empty := tr.CourseProgressView(nil)
	assert.Equal(t, View{}, empty)
	assert.True(t, empty.IsEmpty())

	course := lessons("/c/1", "/c/2", "/c/3", "/c/4")
	tr.MarkCompleted("/c/1")
	tr.RecordPlaybackPosition("/c/2", 10, 100, day)

	v := tr.CourseProgressView(course)
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, 1, v.CompletedCount)
	assert.Equal(t, shared.Percent(25), v.Percent)
	assert.Equal(t, 3, v.Remaining())
	assert.Equal(t, "1/4 (25%)", v.String())
}

func TestRestoreAndSnapshot(t *testing.T) {
	tr := NewTracker(nil)
	tr.Restore(map[string]LessonRecord{
		"/a": {Completed: true, Position: 300},
		"/b": {Position: -1},
	})

	assert.Equal(t, 1, tr.CompletedCount())
	assert.Equal(t, []string{"/a", "/b"}, tr.Paths())
	assert.Equal(t, 0.0, tr.Record("/b").Position)

	snap := tr.Snapshot()
	require.Contains(t, snap, "/a")
	assert.Equal(t, "/a", snap["/a"].Path)
	assert.True(t, snap["/a"].Completed)
}
