package cmd

import (
	"fmt"
	"strconv"

	"github.com/grovetools/seqrkit/cli"
	"github.com/grovetools/seqrkit/pkg/app"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the `settings` command.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change UI settings kept between runs",
		Example: `seqrkit settings
seqrkit settings --set pageSize=50 --set sortOrder=name`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			s.start(cmd.Context())
			defer s.Close()

			pairs, _ := cmd.Flags().GetStringToString("set")
			if len(pairs) > 0 {
				updates := make(map[string]any, len(pairs))
				for k, v := range pairs {
					updates[k] = settingValue(v)
				}
				if err := s.actions.UpdateSettings(cmd.Context(), updates); err != nil {
					return err
				}
			}

			settings := app.UISettings(s.store.Get())
			if cli.GetOptions(cmd).JSONOutput || len(settings) > 0 {
				return printJSON(cmd, settings)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No settings saved.")
			return nil
		},
	}

	cmd.Flags().StringToString("set", nil, "Settings to change (key=value)")
	return cmd
}

// settingValue keeps numbers and booleans typed so they round-trip through
// the snapshot file.
func settingValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
