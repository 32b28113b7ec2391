package cmd

import (
	"github.com/grovetools/seqrkit/pkg/app"
	"github.com/grovetools/seqrkit/pkg/models"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/spf13/cobra"
)

var userColumns = []report.Column{
	{Field: "username", Label: "Username"},
	{Field: "name", Label: "Name"},
	{Field: "email", Label: "Email"},
	{Field: "roles", Label: "Roles"},
	{Field: "active", Label: "Active"},
}

// NewUsersCmd creates the `users` command.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List every user on the platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.actions.LoadUsers(cmd.Context()); err != nil {
				return err
			}
			users := app.Users(s.store.Get())

			filter, _ := cmd.Flags().GetString("filter")
			rows := report.FilterRows(userRows(users), filter, userColumns)
			return printRows(cmd, userColumns, report.SortRows(rows, "username", false))
		},
	}

	cmd.Flags().String("filter", "", "Only show users matching this text")
	return cmd
}

func userRows(users []models.User) []report.Row {
	rows := make([]report.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, report.Row{
			"username": u.Username,
			"name":     u.Name(),
			"email":    u.Email,
			"roles":    u.Roles(),
			"active":   u.IsActive,
		})
	}
	return rows
}
