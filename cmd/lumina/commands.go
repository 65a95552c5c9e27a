package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/interface/cli/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAYBACK
// ══════════════════════════════════════════════════════════════════════════════

func newProgressCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <path> <position> <duration>",
		Short: "Record a playback position in seconds",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := parseSeconds("position", args[1])
			if err != nil {
				return err
			}
			duration, err := parseSeconds("duration", args[2])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, true, func(a *app) error {
				out, err := a.sess.RecordPlayback(cmd.Context(), args[0], position, duration)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatOutcome(out))
				return nil
			})
		},
	}
}

func newCompleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <path>",
		Short: "Mark a lesson as watched to the end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				out, err := a.sess.FinishLesson(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatOutcome(out))
				return nil
			})
		},
	}
}

func newResumeCmd(flags *globalFlags) *cobra.Command {
	var manual bool
	cmd := &cobra.Command{
		Use:   "resume <path>",
		Short: "Print the position to start a lesson from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				pos, err := a.sess.Play(cmd.Context(), args[0], manual)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(pos, 'f', -1, 64))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&manual, "manual", false, "the learner picked the lesson; completed lessons restart from 0")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

func newStreakCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current day streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				days, _, err := a.sess.Streak(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatStreak(days))
				return nil
			})
		},
	}
}

func newAchievementsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List unlocked and locked achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatAchievements(a.sess.Unlocked(), a.lockedRules()))
				return nil
			})
		},
	}
}

func newGraphCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show the activity heatmap and dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				analytics, err := a.sess.Analytics(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatAnalytics(analytics))
				return nil
			})
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIBRARY
// ══════════════════════════════════════════════════════════════════════════════

func newCourseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "course <name>",
		Short: "Show the lessons and progress of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				course, lessons, err := a.sess.OpenCourseByName(args[0])
				if err != nil {
					return err
				}
				target, hasTarget := a.sess.ResumeTarget(course)

				rows := make([]presenter.LessonRow, 0, len(lessons))
				for _, l := range lessons {
					rows = append(rows, presenter.LessonRow{
						Lesson:    l,
						Completed: a.sess.Record(l.Path).Completed,
						Current:   hasTarget && l.Path == target.Path,
					})
				}

				w := cmd.OutOrStdout()
				fmt.Fprintln(w, presenter.FormatCourse(course, a.sess.CourseProgress(course), a.sess.Tags(course.Name)))
				if len(rows) > 0 {
					fmt.Fprintln(w, presenter.FormatLessons(rows))
				}
				return nil
			})
		},
	}
}

func newCoursesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "courses [query]",
		Short: "List courses, optionally filtered by name or tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				courses := a.sess.Courses()
				if len(args) == 1 {
					courses = a.sess.FilterCourses(args[0])
				}
				w := cmd.OutOrStdout()
				if len(courses) == 0 {
					fmt.Fprintln(w, presenter.Muted.Render("no courses"))
					return nil
				}
				for _, c := range courses {
					fmt.Fprintln(w, presenter.FormatCourse(c, a.sess.CourseProgress(c), a.sess.Tags(c.Name)))
				}
				return nil
			})
		},
	}
}

func newTagCmd(flags *globalFlags) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "tag <course> <tag>",
		Short: "Attach a tag to a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				var err error
				if remove {
					err = a.sess.RemoveTag(cmd.Context(), args[0], args[1])
				} else {
					err = a.sess.AddTag(cmd.Context(), args[0], args[1])
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(a.sess.Tags(args[0]), ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "detach the tag instead")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func parseSeconds(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, shared.NewDomainError("cli", "parse", shared.ErrInvalidInput, fmt.Sprintf("%s must be a number of seconds, got %q", name, s))
	}
	return v, nil
}
