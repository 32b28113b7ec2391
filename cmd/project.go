package cmd

import (
	"fmt"

	"github.com/grovetools/seqrkit/cli"
	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/app"
	"github.com/grovetools/seqrkit/pkg/models"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/spf13/cobra"
)

var familyColumns = []report.Column{
	{Field: "familyId", Label: "Family"},
	{Field: "displayName", Label: "Name"},
	{Field: "analysisStatus", Label: "Status"},
	{Field: "assignedAnalyst", Label: "Analyst"},
}

// projectOutput is the --json form of the project command.
type projectOutput struct {
	Project  models.Project  `json:"project"`
	Families []models.Family `json:"families"`
}

// NewProjectCmd creates the `project` command.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <guid>",
		Short: "Show a project and its families",
		Long: `Loads a project with its families. With --set, the given fields are
changed first; the change shows immediately and is undone if the server
rejects it.`,
		Example: `# Show a project
seqrkit project R0001_cardio

# Rename it
seqrkit project R0001_cardio --set name="Cardio cohort"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guid := args[0]
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.actions.LoadProject(cmd.Context(), guid); err != nil {
				return err
			}

			updates, _ := cmd.Flags().GetStringToString("set")
			if len(updates) > 0 {
				rec := make(reducer.Record, len(updates))
				for k, v := range updates {
					rec[k] = v
				}
				if err := s.actions.UpdateProject(cmd.Context(), guid, rec); err != nil {
					return err
				}
			}

			state := s.store.Get()
			project, ok := app.Project(state, guid)
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("project %s not found", guid))
			}
			families := app.ProjectFamilies(state, guid)

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, projectOutput{Project: project, Families: families})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", project.Name, project.ProjectGUID)
			if project.GenomeVersion != "" {
				fmt.Fprintf(out, "Genome: GRCh%s\n", project.GenomeVersion)
			}
			if project.Description != "" {
				fmt.Fprintln(out, project.Description)
			}
			fmt.Fprintln(out)

			rows := make([]report.Row, 0, len(families))
			for _, family := range families {
				rec, err := models.ToRecord(family)
				if err != nil {
					return err
				}
				rows = append(rows, report.Row(rec))
			}
			return printRows(cmd, familyColumns, rows)
		},
	}

	cmd.Flags().StringToString("set", nil, "Project fields to update (key=value)")
	return cmd
}
