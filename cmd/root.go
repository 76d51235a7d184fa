package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "An authorization agent for personal data stores.",
	Long: `Aegis manages delegated data-access authorization over a personal
data store: it receives access requests, and executes the grant, decline,
and revoke transactions that install access-control rules on protected
resources and record the interoperable authorization registry.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
