package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Manage the URL exclusion list",
	Long: `Manage the wildcard URL patterns that stay reachable while no
session runs. Between sessions the guard blocks every ordinary web URL
unless it matches one of these patterns. Patterns use * as a wildcard
and match case-insensitively against the full URL, for example
"*docs.example.com*".`,
}

var excludeAddCmd = &cobra.Command{
	Use:   "add <pattern>",
	Short: "Add an exclusion pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Excl.Add(args[0]); err != nil {
			return err
		}
		fmt.Printf("Added %q to the exclusion list.\n", args[0])
		return nil
	},
}

var excludeRemoveCmd = &cobra.Command{
	Use:   "remove <pattern>",
	Short: "Remove an exclusion pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Excl.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %q from the exclusion list.\n", args[0])
		return nil
	},
}

var excludeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exclusion patterns in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns, err := Excl.List()
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			fmt.Println("No exclusion patterns.")
			return nil
		}
		for _, p := range patterns {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	excludeCmd.AddCommand(excludeAddCmd)
	excludeCmd.AddCommand(excludeRemoveCmd)
	excludeCmd.AddCommand(excludeListCmd)
	rootCmd.AddCommand(excludeCmd)
}
