// Command lumina tracks lesson progress, streaks and achievements of a local
// video library.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around the given streams.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "lumina",
		Short:         "lumina - progress and analytics for your local video courses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.profile, "profile", "", "learner profile (overrides config)")
	pf.StringVar(&flags.library, "library", "", "library folder or JSON snapshot (overrides config)")
	pf.StringVar(&flags.storage, "storage", "", "storage driver: memory, sqlite, postgres or redis")

	root.AddCommand(
		newProgressCmd(&flags),
		newCompleteCmd(&flags),
		newResumeCmd(&flags),
		newStreakCmd(&flags),
		newCourseCmd(&flags),
		newCoursesCmd(&flags),
		newAchievementsCmd(&flags),
		newGraphCmd(&flags),
		newTagCmd(&flags),
		newDaemonCmd(&flags),
	)
	return root
}

// withApp bootstraps the application for one command and closes it after.
func withApp(cmd *cobra.Command, flags *globalFlags, toasts bool, fn func(a *app) error) (err error) {
	var toastOut io.Writer
	if toasts {
		toastOut = cmd.OutOrStdout()
	}
	a, err := bootstrap(cmd.Context(), *flags, cmd.ErrOrStderr(), toastOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
