package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/focal-sh/focal/pkg/models"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [minutes]",
	Short: "Start a focus session",
	Long: `Start a focus session of the given length. The length must be one of
the allowed durations: 1, 25, 35, 45, or 55 minutes. With no argument a
25 minute session is started.

The countdown is shared: every open focal instance shows the same
remaining time, and the guard stops blocking URLs while it runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes := 25
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing session length %q: %w", args[0], err)
			}
			minutes = n
		}

		state, err := Timer.Start(minutes)
		if err != nil {
			return err
		}

		fmt.Printf("Session %s started: %d minutes, ends at %s\n",
			state.SessionID, state.Duration, state.EndTime.Local().Format("15:04:05"))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the timer to the idle start phase",
	Long: `Reset the shared timer back to the start phase, abandoning any running
countdown or pending summary. The exclusion list is not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Timer.Reset(); err != nil {
			return err
		}
		fmt.Println("Timer reset.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(resetCmd)
}

// formatRemaining renders a countdown as MM:SS, clamping at zero.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// phaseLabel is the human name of a timer phase.
func phaseLabel(p models.Phase) string {
	switch p {
	case models.PhaseRunning:
		return "running"
	case models.PhaseEnd:
		return "awaiting summary"
	default:
		return "idle"
	}
}
