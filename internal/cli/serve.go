package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlook-bridge/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve Outlook tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := tools.NewServer(tokenStore, graphClient, cfg, log)
		return srv.Run(ctx, version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
