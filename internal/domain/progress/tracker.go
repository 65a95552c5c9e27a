// Package progress tracks per-lesson playback position and completion.
//
// A lesson becomes completed once the learner has watched at least
// CompletionThreshold of it, or when its media plays to the end. Completion
// is a one-way transition: later position updates never clear it.
package progress

import (
	"math"
	"sort"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/activity"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// CompletionThreshold is the watched fraction at which a lesson counts as completed.
const CompletionThreshold = 0.8

// LessonRecord is the stored state of one lesson. Records are created lazily
// on first activity and never deleted.
type LessonRecord struct {
	Path      string  `json:"-"`
	Completed bool    `json:"completed"`
	Position  float64 `json:"timestamp"`
}

// PlaybackResult describes the effect of one position update.
type PlaybackResult struct {
	Record        LessonRecord
	DayCount      int
	FirstOfDay    bool
	JustCompleted bool
}

// Tracker owns the lesson records and feeds every playback update into the
// activity ledger. A Tracker is not safe for concurrent use.
type Tracker struct {
	records map[string]*LessonRecord
	ledger  *activity.Ledger
}

// NewTracker creates a tracker that records activity into ledger.
func NewTracker(ledger *activity.Ledger) *Tracker {
	if ledger == nil {
		ledger = activity.NewLedger()
	}
	return &Tracker{
		records: make(map[string]*LessonRecord),
		ledger:  ledger,
	}
}

// Restore replaces the tracker's records with persisted ones.
func (t *Tracker) Restore(records map[string]LessonRecord) {
	t.records = make(map[string]*LessonRecord, len(records))
	for path, r := range records {
		r.Path = path
		r.Position = sanitizePosition(r.Position)
		rec := r
		t.records[path] = &rec
	}
}

// Ledger returns the activity ledger the tracker writes to.
func (t *Tracker) Ledger() *activity.Ledger {
	return t.ledger
}

// RecordPlaybackPosition stores the current position of path, records one
// unit of activity on day, and completes the lesson once the watched
// fraction reaches CompletionThreshold.
func (t *Tracker) RecordPlaybackPosition(path string, position, duration float64, day activity.DayKey) PlaybackResult {
	rec := t.ensure(path)
	rec.Position = sanitizePosition(position)

	count, first := t.ledger.RecordActivity(day)

	res := PlaybackResult{DayCount: count, FirstOfDay: first}
	if !rec.Completed && duration > 0 && !math.IsInf(duration, 0) && rec.Position/duration >= CompletionThreshold {
		rec.Completed = true
		res.JustCompleted = true
	}
	res.Record = *rec
	return res
}

// MarkCompleted forces path to completed, as when its media reaches the end.
// It reports whether this call performed the transition.
func (t *Tracker) MarkCompleted(path string) bool {
	rec := t.ensure(path)
	if rec.Completed {
		return false
	}
	rec.Completed = true
	return true
}

// ResolveResumePosition returns where playback of path should start.
// A completed lesson picked manually restarts from the beginning.
func (t *Tracker) ResolveResumePosition(path string, isManualSelect bool) float64 {
	rec, ok := t.records[path]
	if !ok {
		return 0
	}
	if rec.Completed && isManualSelect {
		return 0
	}
	return rec.Position
}

// Record returns the record of path, or the zero record when none exists.
func (t *Tracker) Record(path string) LessonRecord {
	if rec, ok := t.records[path]; ok {
		return *rec
	}
	return LessonRecord{Path: path}
}

// IsCompleted reports whether path is completed.
func (t *Tracker) IsCompleted(path string) bool {
	rec, ok := t.records[path]
	return ok && rec.Completed
}

// IsCourseComplete reports whether every lesson is completed. A course with
// no lessons is never complete.
func (t *Tracker) IsCourseComplete(lessons []content.Lesson) bool {
	if len(lessons) == 0 {
		return false
	}
	for _, l := range lessons {
		if !t.IsCompleted(l.Path) {
			return false
		}
	}
	return true
}

// CourseProgressView summarises completion over lessons.
func (t *Tracker) CourseProgressView(lessons []content.Lesson) View {
	done := 0
	for _, l := range lessons {
		if t.IsCompleted(l.Path) {
			done++
		}
	}
	return View{
		Total:          len(lessons),
		CompletedCount: done,
		Percent:        shared.NewPercent(done, len(lessons)),
	}
}

// CompletedCount returns the number of completed lessons across all courses.
func (t *Tracker) CompletedCount() int {
	n := 0
	for _, rec := range t.records {
		if rec.Completed {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every record keyed by path.
func (t *Tracker) Snapshot() map[string]LessonRecord {
	out := make(map[string]LessonRecord, len(t.records))
	for path, rec := range t.records {
		out[path] = *rec
	}
	return out
}

// Paths returns every tracked path in sorted order.
func (t *Tracker) Paths() []string {
	out := make([]string, 0, len(t.records))
	for p := range t.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (t *Tracker) ensure(path string) *LessonRecord {
	rec, ok := t.records[path]
	if !ok {
		rec = &LessonRecord{Path: path}
		t.records[path] = rec
	}
	return rec
}

func sanitizePosition(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}
