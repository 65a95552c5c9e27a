// Package jobs contains the scheduled jobs of the player daemon.
package jobs

import (
	"context"
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/scheduler"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// Flusher writes deferred state.
type Flusher interface {
	Flush(ctx context.Context) error
}

// StreakRecomputer derives the day streak again.
type StreakRecomputer interface {
	Streak(ctx context.Context) (int, []achievement.Unlock, error)
}

// LibrarySetter accepts a freshly scanned content tree.
type LibrarySetter interface {
	SetLibrary(tree []content.Node)
}

var (
	_ Flusher          = (*session.Session)(nil)
	_ StreakRecomputer = (*session.Session)(nil)
	_ LibrarySetter    = (*session.Session)(nil)
)

// Default schedules.
const (
	DefaultFlushSpec   = "@every 30s"
	DefaultStreakSpec  = "5 0 * * *"
	DefaultLibrarySpec = "@every 5m"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLUSH
// ══════════════════════════════════════════════════════════════════════════════

// FlushJob writes state held back by the deferred write policy.
type FlushJob struct {
	target  Flusher
	timeout time.Duration
}

// NewFlushJob creates a FlushJob. A zero timeout means no deadline.
func NewFlushJob(target Flusher, timeout time.Duration) *FlushJob {
	return &FlushJob{target: target, timeout: timeout}
}

func (j *FlushJob) Name() string        { return "flush_state" }
func (j *FlushJob) Description() string { return "Writes deferred progress state to the store" }

// Run implements scheduler.Job.
func (j *FlushJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	return j.target.Flush(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// StreakJob recomputes the streak shortly after midnight so a broken streak
// shows up without the learner playing anything.
type StreakJob struct {
	target StreakRecomputer
	log    *logger.Logger
}

// NewStreakJob creates a StreakJob.
func NewStreakJob(target StreakRecomputer, log *logger.Logger) *StreakJob {
	if log == nil {
		log = logger.Nop()
	}
	return &StreakJob{target: target, log: log.With(logger.Component("streak_job"))}
}

func (j *StreakJob) Name() string        { return "recompute_streak" }
func (j *StreakJob) Description() string { return "Recomputes the day streak and streak achievements" }

// Run implements scheduler.Job.
func (j *StreakJob) Run(ctx context.Context) error {
	streak, unlocks, err := j.target.Streak(ctx)
	if err != nil {
		return err
	}
	j.log.Info("streak recomputed", logger.Streak(streak), logger.Int("unlocks", len(unlocks)))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIBRARY
// ══════════════════════════════════════════════════════════════════════════════

// LibraryJob rescans the library root and swaps the session's tree.
type LibraryJob struct {
	target   LibrarySetter
	provider content.Provider
	root     string
}

// NewLibraryJob creates a LibraryJob.
func NewLibraryJob(target LibrarySetter, provider content.Provider, root string) *LibraryJob {
	return &LibraryJob{target: target, provider: provider, root: root}
}

func (j *LibraryJob) Name() string        { return "rescan_library" }
func (j *LibraryJob) Description() string { return "Rescans the video library" }

// Run implements scheduler.Job. A failed scan keeps the current tree.
func (j *LibraryJob) Run(ctx context.Context) error {
	tree, err := j.provider.LoadTree(ctx, j.root)
	if err != nil {
		return err
	}
	j.target.SetLibrary(tree)
	return nil
}

var (
	_ scheduler.Job = (*FlushJob)(nil)
	_ scheduler.Job = (*StreakJob)(nil)
	_ scheduler.Job = (*LibraryJob)(nil)
)
