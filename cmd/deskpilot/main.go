// Deskpilot is a desktop automation assistant. Requests typed in the REPL or
// sent over HTTP, WebSocket, gRPC or MQTT are matched against spoken-style
// keywords or interpreted by an AI backend, then executed on the local
// desktop.
//
// Usage:
//
//	deskpilot                      # interactive REPL
//	deskpilot serve                # remote transports and background features
//	deskpilot match "open chrome"  # keyword matcher only
//	deskpilot run "take a screenshot"
//	deskpilot --config /path/to/deskpilot.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "deskpilot",
	Short: "Desktop automation assistant",
	Long: `Deskpilot turns short requests like "open chrome" or "remind me to call
mom" into desktop actions. With no subcommand it starts the interactive REPL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runREPL,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/deskpilot.yaml)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive REPL",
			Args:  cobra.NoArgs,
			RunE:  runREPL,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the remote transports and background features",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "match <text>",
			Short: "Show what the keyword matcher makes of text",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runMatch,
		},
		&cobra.Command{
			Use:   "run <text>",
			Short: "Interpret and execute one request",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runOnce,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "deskpilot %s\n", version)
			},
		},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
