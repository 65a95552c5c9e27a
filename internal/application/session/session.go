// Package session implements the progress engine for one learner session.
//
// A Session owns every piece of progress state (lesson records, the activity
// ledger, unlocked achievements, course tags and last-watched lessons). Each
// operation runs atomically under the session mutex: it mutates memory,
// derives streak and achievement effects, and hands the dirtied keys to the
// Persister before returning.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/activity"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/library"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/timeutil"
)

// DefaultProfile is used when no profile name is configured.
const DefaultProfile = "default"

// ErrNotLoaded is returned by mutating operations after a failed Load. Until
// a Load succeeds nothing is written.
var ErrNotLoaded = errors.New("persisted state not loaded")

// Config contains per-session settings.
type Config struct {
	// Profile names the learner; it is the aggregate id of every event.
	Profile string

	// Location is the learner's zone used for day keys and the night-owl rule.
	Location *time.Location

	// Rules overrides the built-in achievement table.
	Rules []achievement.Definition
}

// Deps are the collaborators of a Session. Every field is optional.
type Deps struct {
	Clock     timeutil.Clock
	Persister Persister
	Publisher shared.EventPublisher
	Notifier  achievement.Notifier
	Logger    *logger.Logger
}

// Session is the progress engine of one learner.
type Session struct {
	mu sync.Mutex

	id        string
	profile   string
	loc       *time.Location
	rules     []achievement.Definition
	clock     timeutil.Clock
	persister Persister
	publisher shared.EventPublisher
	notifier  achievement.Notifier
	log       *logger.Logger

	ledger      *activity.Ledger
	tracker     *progress.Tracker
	unlocks     *achievement.Engine
	tags        *library.Tags
	lastWatched *library.LastWatched

	tree           []content.Node
	current        *content.Folder
	currentLessons []content.Lesson

	// unsynced is set when the last Load failed.
	unsynced bool
}

// New creates a session with empty state. Call Load to hydrate it.
func New(cfg Config, deps Deps) *Session {
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.SystemClock{}
	}
	if deps.Persister == nil {
		deps.Persister = NopPersister{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	id := uuid.NewString()
	s := &Session{
		id:        id,
		profile:   cfg.Profile,
		loc:       cfg.Location,
		rules:     cfg.Rules,
		clock:     deps.Clock,
		persister: deps.Persister,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		log: deps.Logger.WithSessionID(id).With(
			logger.Component("session"),
			logger.String("profile", cfg.Profile),
		),
	}
	s.reset(State{})
	return s
}

// ID returns the session id used as event correlation id.
func (s *Session) ID() string {
	return s.id
}

// Profile returns the learner profile name.
func (s *Session) Profile() string {
	return s.profile
}

// Location returns the learner's zone.
func (s *Session) Location() *time.Location {
	return s.loc
}

// Load replaces the in-memory state with the persisted one. On failure the
// session keeps its current state and stops committing until a later Load
// succeeds.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Error("failed to load state", logger.Err(err))
		s.unsynced = true
		return shared.WrapError("session", "Load", shared.ErrPersistence, "load state", err)
	}
	s.reset(st)
	s.unsynced = false

	s.log.Debug("state loaded",
		logger.Int("lessons", len(st.Progress)),
		logger.Int("days", len(st.History)),
		logger.Int("achievements", len(st.Achievements)),
	)
	return nil
}

func (s *Session) reset(st State) {
	s.ledger = activity.LedgerFrom(st.History)
	s.tracker = progress.NewTracker(s.ledger)
	s.tracker.Restore(st.Progress)
	s.unlocks = achievement.NewEngine(achievement.SetFromStrings(st.Achievements), s.notifier, s.rules...)
	s.tags = library.TagsFrom(st.Tags)
	s.lastWatched = library.LastWatchedFrom(st.LastWatched)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIBRARY
// ══════════════════════════════════════════════════════════════════════════════

// SetLibrary installs the content tree of this session.
func (s *Session) SetLibrary(tree []content.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = tree
	s.current = nil
	s.currentLessons = nil
}

// Courses returns the courses of the library.
func (s *Session) Courses() []content.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Courses(s.tree)
}

// OpenCourse makes course current and returns its lessons in playback order.
func (s *Session) OpenCourse(course content.Folder) []content.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := course
	s.current = &c
	s.currentLessons = course.Lessons()
	s.log.Debug("course opened", logger.Course(course.Name), logger.Int("lessons", len(s.currentLessons)))

	out := make([]content.Lesson, len(s.currentLessons))
	copy(out, s.currentLessons)
	return out
}

// OpenCourseByName looks up a course of the library and opens it.
func (s *Session) OpenCourseByName(name string) (content.Folder, []content.Lesson, error) {
	s.mu.Lock()
	course, ok := content.FindCourse(s.tree, name)
	s.mu.Unlock()

	if !ok {
		return content.Folder{}, nil, shared.ErrCourseNotFound
	}
	return course, s.OpenCourse(course), nil
}

// CurrentCourse returns the open course.
func (s *Session) CurrentCourse() (content.Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return content.Folder{}, false
	}
	return *s.current, true
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYBACK
// ══════════════════════════════════════════════════════════════════════════════

// Play starts playback of path. It returns the position to resume from and
// remembers path as the last lesson of its course.
func (s *Session) Play(ctx context.Context, path string, isManual bool) (float64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, shared.ErrEmptyLessonPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resume := s.tracker.ResolveResumePosition(path, isManual)

	var cs shared.ChangeSet
	if course, _ := s.courseFor(path); course != "" && s.lastWatched.Set(course, path) {
		cs.Mark(shared.KeyLastWatched)
	}

	s.log.Debug("playback started",
		logger.LessonPath(path),
		logger.Bool("manual", isManual),
		logger.Float64("resume_at", resume),
	)
	return resume, s.commit(ctx, "Play", cs)
}

// RecordPlayback stores a position update of path. The first activity of a
// day recomputes the streak; crossing the completion threshold completes the
// lesson and checks whether its course is now complete.
func (s *Session) RecordPlayback(ctx context.Context, path string, position, duration float64) (Outcome, error) {
	if strings.TrimSpace(path) == "" {
		return Outcome{}, shared.ErrEmptyLessonPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	day := activity.DayOf(now, s.loc)

	res := s.tracker.RecordPlaybackPosition(path, position, duration, day)
	cs := shared.NewChangeSet(shared.KeyCourseProgress, shared.KeyWatchHistory)

	out := Outcome{
		Path:          path,
		Record:        res.Record,
		DayCount:      res.DayCount,
		JustCompleted: res.JustCompleted,
	}

	if res.FirstOfDay {
		s.recomputeStreak(ctx, now, &out, &cs)
	}
	if res.JustCompleted {
		s.lessonCompleted(ctx, path, now, false, true, &out, &cs)
	}

	return out, s.commit(ctx, "RecordPlayback", cs)
}

// FinishLesson handles the natural end of media: the lesson is forced to
// completed, completion rules run and the next lesson of the course is
// returned for auto-advance.
func (s *Session) FinishLesson(ctx context.Context, path string) (Outcome, error) {
	if strings.TrimSpace(path) == "" {
		return Outcome{}, shared.ErrEmptyLessonPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	just := s.tracker.MarkCompleted(path)

	var cs shared.ChangeSet
	if just {
		cs.Mark(shared.KeyCourseProgress)
	}

	out := Outcome{Path: path, JustCompleted: just}
	s.lessonCompleted(ctx, path, now, true, just, &out, &cs)
	out.Record = s.tracker.Record(path)

	if _, lessons := s.courseFor(path); len(lessons) > 0 {
		if next, ok := content.Next(lessons, path); ok {
			out.Next = &next
		}
	}

	return out, s.commit(ctx, "FinishLesson", cs)
}

// Resume returns the resume position of path without side effects.
func (s *Session) Resume(path string, isManual bool) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.ResolveResumePosition(path, isManual)
}

// Record returns the stored record of path.
func (s *Session) Record(path string) progress.LessonRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Record(path)
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK & PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// Streak recomputes the day streak and evaluates streak achievements.
func (s *Session) Streak(ctx context.Context) (int, []achievement.Unlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		out Outcome
		cs  shared.ChangeSet
	)
	s.recomputeStreak(ctx, s.clock.Now(), &out, &cs)
	return out.Streak, out.Unlocks, s.commit(ctx, "Streak", cs)
}

// CourseProgress returns the completion summary of course.
func (s *Session) CourseProgress(course content.Folder) progress.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.CourseProgressView(course.Lessons())
}

// IsCourseComplete reports whether every lesson of course is completed.
func (s *Session) IsCourseComplete(course content.Folder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.IsCourseComplete(course.Lessons())
}

// Unlocked returns the unlocked achievements in unlock order.
func (s *Session) Unlocked() []achievement.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocks.Unlocked()
}

// Analytics recomputes the streak (evaluating streak achievements) and
// returns the learner's dashboard figures.
func (s *Session) Analytics(ctx context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var (
		out Outcome
		cs  shared.ChangeSet
	)
	s.recomputeStreak(ctx, now, &out, &cs)
	err := s.commit(ctx, "Analytics", cs)

	return s.analytics(now, out), err
}

// ══════════════════════════════════════════════════════════════════════════════
// TAGS & LAST WATCHED
// ══════════════════════════════════════════════════════════════════════════════

// AddTag attaches tag to course. Duplicate tags are ignored.
func (s *Session) AddTag(ctx context.Context, course, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.tags.Add(course, tag)
	if err != nil {
		return err
	}

	var cs shared.ChangeSet
	if changed {
		cs.Mark(shared.KeyCourseTags)
		s.log.Info("course tagged", logger.Course(course), logger.String("tag", tag))
	}
	return s.commit(ctx, "AddTag", cs)
}

// RemoveTag detaches tag from course.
func (s *Session) RemoveTag(ctx context.Context, course, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs shared.ChangeSet
	if s.tags.Remove(course, tag) {
		cs.Mark(shared.KeyCourseTags)
	}
	return s.commit(ctx, "RemoveTag", cs)
}

// Tags returns the tags of course.
func (s *Session) Tags(course string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags.Of(course)
}

// FilterCourses returns the library courses whose name or tags match query.
func (s *Session) FilterCourses(query string) []content.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return library.Filter(content.Courses(s.tree), s.tags, query)
}

// LastWatched returns the last lesson played in course.
func (s *Session) LastWatched(course string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWatched.Get(course)
}

// ResumeTarget returns the lesson to open when entering course.
func (s *Session) ResumeTarget(course content.Folder) (content.Lesson, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return library.ResumeTarget(course.Lessons(), s.lastWatched, course.Name)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE
// ══════════════════════════════════════════════════════════════════════════════

// Flush writes any changes the persister deferred.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Flush(ctx); err != nil {
		s.log.Error("failed to flush state", logger.Err(err))
		return shared.WrapError("session", "Flush", shared.ErrPersistence, "flush state", err)
	}
	return nil
}

// Snapshot returns a copy of the full state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateFor(shared.NewChangeSet(shared.AllStateKeys()...))
}

func (s *Session) stateFor(cs shared.ChangeSet) State {
	var st State
	if cs.Has(shared.KeyCourseProgress) {
		st.Progress = s.tracker.Snapshot()
	}
	if cs.Has(shared.KeyWatchHistory) {
		st.History = s.ledger.Snapshot()
	}
	if cs.Has(shared.KeyAchievements) {
		st.Achievements = s.unlocks.Set().Strings()
	}
	if cs.Has(shared.KeyCourseTags) {
		st.Tags = s.tags.Snapshot()
	}
	if cs.Has(shared.KeyLastWatched) {
		st.LastWatched = s.lastWatched.Snapshot()
	}
	return st
}

// commit hands the dirtied keys to the persister. Memory already reflects the
// mutation, whatever the outcome.
func (s *Session) commit(ctx context.Context, op string, cs shared.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}
	if s.unsynced {
		s.log.Warn("not committing before state is loaded", logger.Operation(op))
		return shared.WrapError("session", op, shared.ErrPersistence, "state not loaded", ErrNotLoaded)
	}

	if err := s.persister.Commit(ctx, s.stateFor(cs), cs); err != nil {
		keys := make([]string, 0, len(cs.Keys()))
		for _, k := range cs.Keys() {
			keys = append(keys, k.String())
		}
		s.log.Error("failed to commit state",
			logger.Operation(op),
			logger.String("keys", strings.Join(keys, ",")),
			logger.Err(err),
		)
		return shared.WrapError("session", op, shared.ErrPersistence, "commit "+strings.Join(keys, ","), err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED EFFECTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Session) recomputeStreak(ctx context.Context, now time.Time, out *Outcome, cs *shared.ChangeSet) {
	today := activity.DayOf(now, s.loc)
	streak := activity.ComputeStreak(s.ledger, today)

	out.StreakRecomputed = true
	out.Streak = streak

	s.log.Debug("streak recomputed", logger.Day(today.String()), logger.Streak(streak))
	event := shared.NewStreakRecomputedEvent(s.profile, today.String(), streak, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(s.id)
	s.publish(event)
	s.evaluate(ctx, achievement.TriggerStreakRecomputed, now, streak, out, cs)
}

// lessonCompleted runs completion rules for path. transition is true when the
// lesson changed to completed in this operation.
func (s *Session) lessonCompleted(ctx context.Context, path string, now time.Time, ended, transition bool, out *Outcome, cs *shared.ChangeSet) {
	course, lessons := s.courseFor(path)
	out.Course = course

	if transition {
		s.log.Info("lesson completed", logger.LessonPath(path), logger.Course(course), logger.Bool("ended", ended))
		event := shared.NewLessonCompletedEvent(s.profile, path, course, ended, now)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(s.id)
		s.publish(event)
	}

	streak := activity.ComputeStreak(s.ledger, activity.DayOf(now, s.loc))
	s.evaluate(ctx, achievement.TriggerLessonCompleted, now, streak, out, cs)

	if len(lessons) == 0 || !s.tracker.IsCourseComplete(lessons) {
		return
	}
	if transition {
		out.CourseCompleted = true
		s.log.Info("course completed", logger.Course(course), logger.Int("lessons", len(lessons)))
		event := shared.NewCourseCompletedEvent(s.profile, course, len(lessons), now)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(s.id)
		s.publish(event)
	}
	s.evaluate(ctx, achievement.TriggerCourseCompleted, now, streak, out, cs)
}

func (s *Session) evaluate(ctx context.Context, trigger achievement.Trigger, now time.Time, streak int, out *Outcome, cs *shared.ChangeSet) {
	unlocks, err := s.unlocks.Evaluate(ctx, trigger, achievement.EvalContext{
		Streak:   streak,
		At:       now,
		Location: s.loc,
	})
	if err != nil {
		// Unlocks stand even when the notification sink fails.
		s.log.Warn("unlock notification failed", logger.String("trigger", string(trigger)), logger.Err(err))
	}

	for _, u := range unlocks {
		cs.Mark(shared.KeyAchievements)
		s.log.Info("achievement unlocked", logger.AchievementID(u.ID.String()), logger.String("name", u.Name))
		event := shared.NewAchievementUnlockedEvent(s.profile, u.ID.String(), u.Name, u.Icon, u.UnlockedAt)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(s.id)
		s.publish(event)
	}
	out.Unlocks = append(out.Unlocks, unlocks...)
}

func (s *Session) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

// courseFor returns the course containing path and its lessons, preferring
// the open course. A path found in neither belongs to no course.
func (s *Session) courseFor(path string) (string, []content.Lesson) {
	if s.current != nil && content.IndexOf(s.currentLessons, path) >= 0 {
		return s.current.Name, s.currentLessons
	}
	if c, ok := content.CourseOf(s.tree, path); ok {
		return c.Name, c.Lessons()
	}
	return "", nil
}
