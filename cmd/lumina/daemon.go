package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/scheduler"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/scheduler/jobs"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAEMON COMMAND
// ══════════════════════════════════════════════════════════════════════════════

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Serve playback events as JSON lines on stdin/stdout",
		Long: `Reads one JSON request per line from stdin and answers on stdout.

  {"type":"open","course":"go"}
  {"type":"play","path":"/videos/go/01.mp4","manual":true}
  {"type":"position","path":"/videos/go/01.mp4","position":42.5,"duration":600}
  {"type":"ended","path":"/videos/go/01.mp4"}
  {"type":"streak"}
  {"type":"flush"}

Background jobs flush deferred writes and recompute the streak after
midnight. State is flushed on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				return runDaemon(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func runDaemon(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	log := a.log.With(logger.Component("daemon"))

	// ─────────────────────────────────────────────────────────────────────────
	// 1. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if a.cfg.Scheduler.Enabled {
		sch, err := newScheduler(a)
		if err != nil {
			return err
		}
		if err := sch.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
			defer cancel()
			if err := sch.Stop(stopCtx); err != nil {
				log.Warn("scheduler did not stop cleanly", logger.Err(err))
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. EVENT LOOP
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("daemon started",
		logger.String("profile", a.cfg.App.Profile),
		logger.String("storage", a.cfg.Storage.Driver),
	)
	err := serve(ctx, a.sess, in, out, log)
	log.Info("daemon stopping")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newScheduler(a *app) (*scheduler.Scheduler, error) {
	cfg := a.cfg.Scheduler
	sch := scheduler.New(scheduler.Config{Logger: a.log, Location: a.cfg.App.Location})

	if err := sch.Register(jobs.NewFlushJob(a.sess, cfg.FlushInterval), everySpec(cfg.FlushInterval)); err != nil {
		return nil, err
	}
	if err := sch.Register(jobs.NewStreakJob(a.sess, a.log), cfg.StreakCron); err != nil {
		return nil, err
	}
	if cfg.RescanInterval > 0 && a.cfg.Library.Path != "" {
		job := jobs.NewLibraryJob(a.sess, a.provider(), a.cfg.Library.Path)
		if err := sch.Register(job, everySpec(cfg.RescanInterval)); err != nil {
			return nil, err
		}
	}
	return sch, nil
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// PROTOCOL
// ══════════════════════════════════════════════════════════════════════════════

// request is one line read from the player.
type request struct {
	Type     string  `json:"type"`
	Course   string  `json:"course,omitempty"`
	Path     string  `json:"path,omitempty"`
	Manual   bool    `json:"manual,omitempty"`
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// response is one line written back.
type response struct {
	Type            string               `json:"type"`
	Path            string               `json:"path,omitempty"`
	Course          string               `json:"course,omitempty"`
	Lessons         []string             `json:"lessons,omitempty"`
	Resume          string               `json:"resume,omitempty"`
	Position        *float64             `json:"position,omitempty"`
	Completed       bool                 `json:"completed,omitempty"`
	JustCompleted   bool                 `json:"just_completed,omitempty"`
	CourseCompleted bool                 `json:"course_completed,omitempty"`
	Streak          *int                 `json:"streak,omitempty"`
	Next            string               `json:"next,omitempty"`
	Unlocks         []achievement.Unlock `json:"unlocks,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// serve answers requests until in is exhausted or ctx is cancelled.
func serve(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, log *logger.Logger) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	reply := func(r response) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(r); err != nil {
			log.Warn("failed to write reply", logger.Err(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}
			var req request
			if err := json.Unmarshal(line, &req); err != nil {
				reply(response{Type: "error", Error: fmt.Sprintf("malformed request: %v", err)})
				continue
			}
			reply(handle(ctx, sess, req))
		}
	}
}

func handle(ctx context.Context, sess *session.Session, req request) response {
	switch req.Type {
	case "open":
		course, lessons, err := sess.OpenCourseByName(req.Course)
		if err != nil {
			return errorResponse(err)
		}
		resp := response{Type: "course", Course: course.Name}
		for _, l := range lessons {
			resp.Lessons = append(resp.Lessons, l.Path)
		}
		if target, ok := sess.ResumeTarget(course); ok {
			resp.Resume = target.Path
		}
		return resp

	case "play":
		pos, err := sess.Play(ctx, req.Path, req.Manual)
		if err != nil {
			return errorResponse(err)
		}
		return response{Type: "resume", Path: req.Path, Position: &pos}

	case "position":
		out, err := sess.RecordPlayback(ctx, req.Path, req.Position, req.Duration)
		return outcomeResponse("progress", out, err)

	case "ended":
		out, err := sess.FinishLesson(ctx, req.Path)
		return outcomeResponse("ended", out, err)

	case "streak":
		days, unlocks, err := sess.Streak(ctx)
		if err != nil {
			return errorResponse(err)
		}
		return response{Type: "streak", Streak: &days, Unlocks: unlocks}

	case "flush":
		if err := sess.Flush(ctx); err != nil {
			return errorResponse(err)
		}
		return response{Type: "flushed"}
	}
	return response{Type: "error", Error: fmt.Sprintf("unknown request type %q", req.Type)}
}

// outcomeResponse keeps the outcome on error: a failed write does not undo
// the in-memory update.
func outcomeResponse(typ string, out session.Outcome, err error) response {
	resp := response{
		Type:            typ,
		Path:            out.Path,
		Course:          out.Course,
		Completed:       out.Record.Completed,
		JustCompleted:   out.JustCompleted,
		CourseCompleted: out.CourseCompleted,
		Unlocks:         out.Unlocks,
	}
	if out.StreakRecomputed {
		streak := out.Streak
		resp.Streak = &streak
	}
	if out.Next != nil {
		resp.Next = out.Next.Path
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func errorResponse(err error) response {
	return response{Type: "error", Error: err.Error()}
}
