package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Run the background guard",
	Long: `Run the guard daemon. It seeds the default timer state on a fresh
install, consumes navigation events from the channel inbox, redirects
blocked URLs away while no session runs, and raises the notification
when a timer-finished signal arrives.

Stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Guard.EnsureDefaults(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 3)
		go func() { errCh <- NavChannel.Start(ctx) }()
		go func() { errCh <- Signals.Start(ctx) }()
		go func() { errCh <- Guard.Run(ctx, NavChannel, Signals) }()

		fmt.Println("focal guard running (ctrl+c to stop)")

		for i := 0; i < 3; i++ {
			if err := <-errCh; err != nil {
				stop()
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guardCmd)
}
