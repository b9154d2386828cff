package cmd

import (
	"os"

	"streamwatch/cmd/commands/serve"
	"streamwatch/cmd/commands/sessions"
	"streamwatch/cmd/commands/token"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "streamwatch",
		Short: "Live resource monitor for streaming and recording sessions",
		Long: `streamwatch polls CPU, memory, GPU, network and the streaming tool's
process, keeps a short rolling history with severity levels, and compares
finished sessions against each other.

Quick start:
  streamwatch serve                        # Start polling and the HTTP/WebSocket API
  streamwatch token --server-name studio   # Issue a WebSocket token
  streamwatch sessions list                # List recorded sessions
  streamwatch sessions compare <a> <b>     # Compare two sessions`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to a streamwatch config file")

	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(token.NewCommand())
	cmd.AddCommand(sessions.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
