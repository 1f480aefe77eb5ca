package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/reminders"
	"github.com/spf13/cobra"
)

func newTimerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timer",
		Aliases: []string{"pomodoro"},
		Short:   "Show the focus timer settings",
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			st, remaining := a.store.PomodoroStatus()
			fmt.Fprintf(cmd.OutOrStdout(), "Work %d min, short break %d min, long break %d min\n",
				st.Durations.Work, st.Durations.Short, st.Durations.Long)
			fmt.Fprintf(cmd.OutOrStdout(), "Next: %s (%s)\n", st.Mode.Name(), formatDuration(remaining))
			return nil
		}),
	}
	cmd.AddCommand(newTimerSettingsCmd(opts), newTimerRunCmd(opts))
	return cmd
}

func newTimerSettingsCmd(opts *rootOptions) *cobra.Command {
	var work, short, long int

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change session lengths in minutes",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			st, _ := a.store.PomodoroStatus()
			d := st.Durations
			if cmd.Flags().Changed("work") {
				d.Work = work
			}
			if cmd.Flags().Changed("short") {
				d.Short = short
			}
			if cmd.Flags().Changed("long") {
				d.Long = long
			}
			if err := a.store.UpdatePomodoroSettings(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Timer set to %d/%d/%d minutes\n", d.Work, d.Short, d.Long)
			return nil
		}),
	}

	cmd.Flags().IntVar(&work, "work", 0, "Work session length")
	cmd.Flags().IntVar(&short, "short", 0, "Short break length")
	cmd.Flags().IntVar(&long, "long", 0, "Long break length")
	return cmd
}

func newTimerRunCmd(opts *rootOptions) *cobra.Command {
	var breakFirst bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one session in the foreground and notify when it ends",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			notifier := reminders.NewTerminalNotifier(cmd.OutOrStdout())
			a.store.OnPomodoroComplete(func(completed pomodoro.Mode, _ pomodoro.State) {
				_ = notifier.Notify(ctx, reminders.TimerNotification(completed))
				cancel()
			})

			if breakFirst {
				a.store.Pomodoro(ctx, pomodoro.EventSwitch)
			}
			st := a.store.Pomodoro(ctx, pomodoro.EventStart)
			fmt.Fprintf(cmd.OutOrStdout(), "%s session started\n", st.Mode.Name())

			go func() {
				ticker := time.NewTicker(time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						_, remaining := a.store.PomodoroStatus()
						fmt.Fprintf(cmd.ErrOrStderr(), "\r%s ", formatDuration(remaining))
					}
				}
			}()
			pomodoro.Run(ctx, time.Second, a.store)
			fmt.Fprintln(cmd.ErrOrStderr())
			return nil
		}),
	}

	cmd.Flags().BoolVar(&breakFirst, "break", false, "Run a break instead of a work session")
	return cmd
}
