// Package notification delivers achievement unlocks to the learner.
//
// Sinks are fire and forget from the engine's point of view: an error is
// logged by the session and never rolls an unlock back.
package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG SINK
// ══════════════════════════════════════════════════════════════════════════════

// LogNotifier writes unlocks to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.With(logger.Component("notification"))}
}

// Notify implements achievement.Notifier.
func (n *LogNotifier) Notify(_ context.Context, u achievement.Unlock) error {
	n.log.Info("achievement unlocked",
		logger.AchievementID(u.ID.String()),
		logger.String("name", u.Name),
		logger.String("icon", u.Icon),
		logger.Time("unlocked_at", u.UnlockedAt),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITER SINK
// ══════════════════════════════════════════════════════════════════════════════

// Formatter renders an unlock for a terminal or file.
type Formatter func(achievement.Unlock) string

// PlainFormatter renders "🏆 Achievement Unlocked: <icon> <name>".
func PlainFormatter(u achievement.Unlock) string {
	return fmt.Sprintf("🏆 Achievement Unlocked: %s %s", u.Icon, u.Name)
}

// WriterNotifier prints formatted unlocks to an io.Writer, one per line.
type WriterNotifier struct {
	mu     sync.Mutex
	w      io.Writer
	format Formatter
}

// NewWriterNotifier creates a WriterNotifier. A nil format uses PlainFormatter.
func NewWriterNotifier(w io.Writer, format Formatter) *WriterNotifier {
	if format == nil {
		format = PlainFormatter
	}
	return &WriterNotifier{w: w, format: format}
}

// Notify implements achievement.Notifier.
func (n *WriterNotifier) Notify(_ context.Context, u achievement.Unlock) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintln(n.w, n.format(u)); err != nil {
		return shared.WrapError("notification", "Notify", shared.ErrExternalService, "write unlock", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FAN-OUT
// ══════════════════════════════════════════════════════════════════════════════

// Multi delivers to every notifier and joins their errors.
type Multi []achievement.Notifier

// Notify implements achievement.Notifier.
func (m Multi) Notify(ctx context.Context, u achievement.Unlock) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
