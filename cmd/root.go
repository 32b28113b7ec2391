// Package cmd holds the seqrkit command tree.
package cmd

import (
	"github.com/grovetools/seqrkit/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the seqrkit command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"seqrkit",
		"Command-line client for the genomics analysis platform",
	)

	root.PersistentFlags().Bool("metrics", false, "Print API request metrics on exit")

	root.AddCommand(NewUsersCmd())
	root.AddCommand(NewProjectCmd())
	root.AddCommand(NewSearchCmd())
	root.AddCommand(NewSetPasswordCmd())
	root.AddCommand(NewReportCmd())
	root.AddCommand(NewWizardCmd())
	root.AddCommand(NewSettingsCmd())
	root.AddCommand(NewStateCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(cli.NewVersionCommand("seqrkit"))
	return root
}
