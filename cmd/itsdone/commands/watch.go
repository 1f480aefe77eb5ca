package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/itsdone/internal/reminders"
	"github.com/benvon/itsdone/internal/store"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay in the foreground and print task reminders as they come due",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if refresh <= 0 {
				return fmt.Errorf("--refresh must be positive")
			}

			scheduler := reminders.NewScheduler(reminders.Multi{
				reminders.NewTerminalNotifier(cmd.OutOrStdout()),
				reminders.NewLogNotifier(a.logger),
			}, a.logger)
			defer scheduler.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler.Reschedule(a.store.Tasks(store.ListOptions{}))
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d reminders, Ctrl-C to stop\n", len(scheduler.Pending()))

			// Other processes may change the tasks, so reread them now and then
			ticker := time.NewTicker(refresh)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					a.store.Load(ctx)
					scheduler.Reschedule(a.store.Tasks(store.ListOptions{}))
				}
			}
		}),
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 30*time.Second, "How often to reread tasks from storage")
	return cmd
}
