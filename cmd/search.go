package cmd

import (
	"github.com/grovetools/seqrkit/pkg/app"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the `search` command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search projects, families and individuals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.actions.Search(cmd.Context(), args[0]); err != nil {
				return err
			}

			results := app.SearchResults(s.store.Get())
			rows := make([]report.Row, 0, len(results))
			for _, rec := range results {
				rows = append(rows, report.Row(rec))
			}
			fields, _ := cmd.Flags().GetStringSlice("columns")
			return printRows(cmd, columnsFor(rows, fields), rows)
		},
	}

	cmd.Flags().StringSlice("columns", nil, "Result fields to show (default: all)")
	return cmd
}
