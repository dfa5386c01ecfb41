// Package cli defines the m365-mcp command tree. Services are injected at
// startup so commands stay thin over the auth engine, Graph client, and
// stores.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/config"
	"github.com/simplemotion/m365-mcp/internal/graph"
	"github.com/simplemotion/m365-mcp/internal/history"
	"github.com/simplemotion/m365-mcp/internal/logger"
	"github.com/simplemotion/m365-mcp/internal/profile"
	"github.com/simplemotion/m365-mcp/internal/secrets"
)

var (
	// version is set by goreleaser ldflags.
	version = "dev"

	// verbose enables debug logging.
	verbose bool

	// Injected service implementations for CLI commands.
	engine       *auth.Engine
	graphClient  *graph.Client
	profiles     *profile.Registry
	secretStore  secrets.Store
	historyStore *history.Store
	cfg          *config.Config
	configDir    string
)

// Services holds the dependencies CLI commands run against.
type Services struct {
	Engine    *auth.Engine
	Graph     *graph.Client
	Profiles  *profile.Registry
	Secrets   secrets.Store
	History   *history.Store
	Config    *config.Config
	ConfigDir string
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	engine = s.Engine
	graphClient = s.Graph
	profiles = s.Profiles
	secretStore = s.Secrets
	historyStore = s.History
	cfg = s.Config
	configDir = s.ConfigDir
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "m365-mcp",
	Short: "Microsoft 365 MCP server with multi-profile authentication",
	Long: `m365-mcp exposes Microsoft 365 mail, contacts, Teams chat, and Planner
operations as MCP tools over stdio.

Profiles keep separate app registrations, credentials, and token caches side
by side; one profile is active at a time.`,
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
