// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "identilink",
	Short: "identilink resolves external collaboration identities to internal members",
	Long: `identilink is the external identity resolution and linking engine.
It maps identities reported by collaboration providers (Slack, Microsoft Teams,
Google Workspace) onto internal member accounts, auto-linking confident matches
and raising review suggestions for ambiguous ones.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
