package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "automerge",
	Short: "Replay eligible revisions from one SVN branch onto another",
	Long: `automerge is an unattended merge orchestrator for Subversion branch pairs.

It queries the eligible revisions between a source and target branch, replays
each one as a record-only or content merge in order, resolves the tree
conflicts it knows how to resolve automatically, and commits a batch of
revisions as a single changeset carrying a machine-parseable merge ledger in
the commit message. Anything it cannot resolve on its own is left in the
working copy and reported through the configured notification sink.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to optional YAML defaults file")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("automerge %s\n", Version)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
