// Package cli defines the outlook-bridge command tree.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlook-bridge/internal/auth"
	"github.com/custodia-labs/outlook-bridge/internal/config"
	"github.com/custodia-labs/outlook-bridge/internal/graph"
	"github.com/custodia-labs/outlook-bridge/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Injected dependencies for commands.
	tokenStore  *auth.Store
	graphClient *graph.Client
	cfg         *config.Config
	log         zerolog.Logger
)

// Services holds injected dependencies for CLI commands.
type Services struct {
	Store  *auth.Store
	Client *graph.Client
	Config *config.Config
	Log    zerolog.Logger
}

// SetServices injects dependencies for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	tokenStore = s.Store
	graphClient = s.Client
	cfg = s.Config
	log = s.Log
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "outlook-bridge",
	Short: "Expose Microsoft Outlook as MCP tools",
	Long: `Outlook-bridge is an MCP server that exposes Outlook mail, calendar,
folders and inbox rules as callable tools over Microsoft Graph, with
OAuth2 token lifecycle management and multi-account support.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
