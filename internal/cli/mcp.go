package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/focal-sh/focal/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Expose the timer and journal as MCP tools over stdio so an AI
assistant can check the countdown, start or reset sessions, and append
notes to the journal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := mcp.NewServer(Timer, Journal, appVersion)
		return server.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
