package cli

import (
	"fmt"
	"time"

	"github.com/focal-sh/focal/pkg/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var visitReport bool

var visitCmd = &cobra.Command{
	Use:   "visit <url>",
	Short: "Check a URL against the blocking policy",
	Long: `Evaluate a URL the way the guard would: allowed while a session
runs or when an exclusion pattern exempts it, blocked otherwise.

By default the verdict is decided in-process and a redirect verdict is
written for blocked URLs. With --report the navigation is only dropped
into the channel inbox for a running guard daemon to pick up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL := args[0]

		if visitReport {
			id, err := NavChannel.Report(rawURL)
			if err != nil {
				return err
			}
			fmt.Printf("Reported navigation %s\n", shortID(id))
			return nil
		}

		verdict, err := Guard.Decide(rawURL)
		if err != nil {
			return err
		}
		if !verdict.Blocked {
			fmt.Printf("allowed  %s\n", rawURL)
			return nil
		}

		ev := models.NavigationEvent{
			ID:         uuid.NewString(),
			URL:        rawURL,
			OccurredAt: time.Now().UTC(),
		}
		if err := Guard.HandleNavigation(ev); err != nil {
			return err
		}
		fmt.Printf("blocked  %s -> %s\n", rawURL, verdict.Redirect)
		return nil
	},
}

func init() {
	visitCmd.Flags().BoolVar(&visitReport, "report", false, "drop the navigation into the channel inbox instead of deciding locally")
	rootCmd.AddCommand(visitCmd)
}
