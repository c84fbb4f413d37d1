package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/focal-sh/focal/internal/core"
	"github.com/focal-sh/focal/pkg/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the shared timer state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := Timer.Load()
		if err != nil {
			if errors.Is(err, core.ErrCorruptState) {
				fmt.Println("Timer state was corrupt and has been reset.")
				fmt.Println("Phase: idle")
				return nil
			}
			return err
		}

		fmt.Printf("Phase: %s\n", phaseLabel(state.Phase))

		switch state.Phase {
		case models.PhaseRunning:
			fmt.Printf("Remaining: %s of %d minutes\n", formatRemaining(state.Remaining(time.Now())), state.Duration)
			fmt.Printf("Session: %s\n", state.SessionID)
		case models.PhaseEnd:
			fmt.Printf("Session: %s (%d minutes)\n", state.SessionID, state.Duration)
			words := core.WordCount(state.CurrentSummary)
			fmt.Printf("Summary: %d of %d words\n", words, models.MinSummaryWords)
		}

		if Journal.Bound() {
			if binding, err := Caps.Current(); err == nil && binding != nil {
				fmt.Printf("Journal: %s\n", binding.Path)
			}
		} else {
			fmt.Println("Journal: not bound (run 'focal journal bind')")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
