package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statsSince string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus statistics derived from the event log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics not available (event log disabled)")
		}

		since, err := parseSince(statsSince)
		if err != nil {
			return err
		}

		m, err := MetricsCalc.Calculate(since)
		if err != nil {
			return err
		}

		fmt.Printf("Focus statistics since %s:\n\n", since.Local().Format("2006-01-02 15:04"))
		fmt.Printf("  Sessions started:    %d\n", m.SessionsStarted)
		fmt.Printf("  Sessions completed:  %d\n", m.SessionsCompleted)
		fmt.Printf("  Minutes focused:     %d\n", m.MinutesFocused)
		fmt.Printf("  Navigations blocked: %d\n", m.NavigationsBlocked)
		fmt.Printf("  Journal entries:     %d\n", m.EntriesJournaled)
		fmt.Printf("  Events recorded:     %d\n", m.EventCount)
		return nil
	},
}

// parseSince turns a relative window like "7d", "24h", or "2w" into an
// absolute start time.
func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC().AddDate(0, 0, -7), nil
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid time window %q (use e.g. 7d, 24h, 2w)", s)
	}

	now := time.Now().UTC()
	switch unit {
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'w':
		return now.AddDate(0, 0, -7*n), nil
	default:
		return time.Time{}, fmt.Errorf("invalid time window %q (use e.g. 7d, 24h, 2w)", s)
	}
}

func init() {
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "time window (e.g. 24h, 7d, 2w)")
	rootCmd.AddCommand(statsCmd)
}
