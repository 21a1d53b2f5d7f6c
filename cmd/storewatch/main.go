// Package main is the entry point for the storewatch CLI.
//
// Usage:
//
//	storewatch add "Pizza Place"   # Track a store near the configured address
//	storewatch remove 2            # Stop tracking the second store in the list
//	storewatch list                # Show tracked stores and their last status
//	storewatch run                 # Poll all stores until interrupted
//	storewatch address             # Show the resolved delivery address
//	storewatch validate            # Validate configuration
//	storewatch version             # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultConfigFile = "storewatch.yaml"

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storewatch",
		Short: "Watch Uber Eats stores for availability changes",
		Long: `storewatch tracks Uber Eats stores near a delivery address and
notifies you when one of them opens or closes.

Quick start:
  1. Create a config file (storewatch.yaml) with your address place id
  2. Run: storewatch add "store name"
  3. Run: storewatch run

Example config:
  address: ChIJOwg_06VPwokRYv534QaPC8g
  webhook: ${DISCORD_WEBHOOK}
  poll_interval: 15s`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "No action specified")
			return cmd.Usage()
		},
	}

	root.PersistentFlags().StringP("config", "c", defaultConfigFile, "path to config file")

	root.AddCommand(
		newRunCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newListCmd(),
		newAddressCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this storewatch binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "storewatch %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}
