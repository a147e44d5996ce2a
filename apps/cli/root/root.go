package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the wedding admin CLI. Subcommands (auth, migrate, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "wedding-admin",
	Short:         "Wedding admin CLI",
	Long:          "Operator utilities for the wedding admin backend (migrations, slugs, capacity checks, dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
