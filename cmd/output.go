package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grovetools/seqrkit/cli"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printRows writes rows as JSON under --json, else as a styled table.
func printRows(cmd *cobra.Command, columns []report.Column, rows []report.Row) error {
	if cli.GetOptions(cmd).JSONOutput {
		return printJSON(cmd, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rows.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Render(columns, rows))
	return nil
}

// columnsFor returns the named columns, or one column per field found in rows
// in sorted order.
func columnsFor(rows []report.Row, fields []string) []report.Column {
	if len(fields) == 0 {
		seen := make(map[string]bool)
		for _, row := range rows {
			for field := range row {
				if !seen[field] {
					seen[field] = true
					fields = append(fields, field)
				}
			}
		}
		sort.Strings(fields)
	}

	columns := make([]report.Column, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, report.Column{Field: field})
	}
	return columns
}
