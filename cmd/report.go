package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/spf13/cobra"
)

// DashboardURL lists the projects the caller can see.
const DashboardURL = "/api/dashboard"

// NewReportCmd creates the `report` command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <page> <scope>",
		Short: "Load a report for one scope, or every project with the all scope",
		Long: `Fetches /api/report/<page>/<scope> and prints the rows. The all scope
(report.all_scope in seqrkit.yml) fetches every project in batches of
report.batch_size and fails as a whole if any project fails.`,
		Example: `# Discovery sheet for one project
seqrkit report discovery_sheet R0001_cardio

# Every project, exported as TSV
seqrkit report discovery_sheet all --export`,
		Args: cobra.ExactArgs(2),
		RunE: runReport,
	}

	cmd.Flags().StringSlice("columns", nil, "Row fields to show and export (default: all)")
	cmd.Flags().String("sort", "", "Sort rows by this field")
	cmd.Flags().Bool("desc", false, "Sort descending")
	cmd.Flags().String("filter", "", "Only keep rows matching this text")
	cmd.Flags().StringSlice("scopes", nil, "Scopes the all scope fans out over (default: every project)")
	cmd.Flags().Bool("export", false, "Write rows to a file instead of printing them")
	cmd.Flags().String("format", "", "Export format: tsv or csv (default: report.export_format)")
	cmd.Flags().String("output-dir", ".", "Directory for exported files")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	page, scope := args[0], args[1]
	flags := cmd.Flags()

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.requireAPI(); err != nil {
		return err
	}

	scopes, _ := flags.GetStringSlice("scopes")
	loader := report.NewLoader(page, s.client, nil,
		report.WithBatchSize(s.cfg.Report.BatchSize),
		report.WithAllScope(s.cfg.Report.AllScope),
		report.WithRowsKey(s.cfg.Report.RowsKey),
		report.WithScopeLister(func(ctx context.Context) ([]string, error) {
			if len(scopes) > 0 {
				return scopes, nil
			}
			return s.projectGUIDs(ctx)
		}),
	)
	s.start(cmd.Context(), loader.Slices()...)
	defer s.Close()
	loader.Attach(s.store)

	if err := loader.SetScope(cmd.Context(), scope); err != nil {
		return err
	}
	rows := loader.Rows(s.store.Get())

	fields, _ := flags.GetStringSlice("columns")
	columns := columnsFor(rows, fields)
	query, _ := flags.GetString("filter")
	rows = report.FilterRows(rows, query, columns)
	if field, _ := flags.GetString("sort"); field != "" {
		desc, _ := flags.GetBool("desc")
		rows = report.SortRows(rows, field, desc)
	}

	if export, _ := flags.GetBool("export"); !export {
		return printRows(cmd, columns, rows)
	}

	format, _ := flags.GetString("format")
	if format == "" {
		format = s.cfg.Report.ExportFormat
	}
	dir, _ := flags.GetString("output-dir")
	path := filepath.Join(dir, report.Filename(scope, page, time.Now(), format))

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create export file").WithDetail("path", path)
	}
	defer f.Close()
	if err := report.Export(f, format, columns, rows); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), path)
	return nil
}

// projectGUIDs lists every project visible on the dashboard.
func (s *session) projectGUIDs(ctx context.Context) ([]string, error) {
	resp, err := s.client.Get(ctx, DashboardURL, nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		ProjectsByGUID map[string]any `json:"projectsByGuid"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	guids := make([]string, 0, len(body.ProjectsByGUID))
	for guid := range body.ProjectsByGUID {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids, nil
}
