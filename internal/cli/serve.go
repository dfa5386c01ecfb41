package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/simplemotion/m365-mcp/internal/logger"
	"github.com/simplemotion/m365-mcp/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Serve MCP over stdio until the client disconnects.

Stdout carries the protocol, so all diagnostics go to stderr. Profile
switches made by other processes through the marker file take effect on the
next tool call.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watcher := watchProfileMarker(ctx); watcher != nil {
		defer watcher.Close()
	}

	server := mcpserver.New(engine, graphClient, profiles, historyStore)
	return server.Run(ctx)
}

// watchProfileMarker logs profile switches made outside this process. The
// marker is re-read per tool call anyway; the watcher only provides operator
// visibility. Returns nil when watching is unavailable.
func watchProfileMarker(ctx context.Context) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("profile marker watch unavailable", "error", err)
		return nil
	}
	// Watch the directory: the marker is replaced atomically, and watching
	// the file itself would lose the watch on rename.
	if err := watcher.Add(configDir); err != nil {
		logger.Debug("profile marker watch unavailable", "error", err)
		watcher.Close()
		return nil
	}

	go func() {
		markerPath := profiles.MarkerPath()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == markerPath && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					logger.Info("active profile changed", "profile", profiles.Active())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("profile marker watch error", "error", err)
			}
		}
	}()
	return watcher
}
