package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/seqrkit/cli"
	"github.com/grovetools/seqrkit/state"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewStateCmd creates the `state` command group.
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect page state persisted between runs",
	}

	cmd.AddCommand(newStateListCmd())
	cmd.AddCommand(newStateShowCmd())
	cmd.AddCommand(newStateClearCmd())
	cmd.AddCommand(newStateWatchCmd())
	return cmd
}

func snapshotDir(cmd *cobra.Command) (*state.Dir, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return state.NewDir(cfg.Persistence.Dir), nil
}

func newStateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd)
			if err != nil {
				return err
			}
			labels, err := dir.Labels()
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, labels)
			}
			for _, label := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}

func newStateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <label>",
		Short: "Print a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd)
			if err != nil {
				return err
			}
			return printSnapshot(cmd, dir.Load(args[0]))
		},
	}
}

func newStateClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <label>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd)
			if err != nil {
				return err
			}
			if err := dir.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", args[0])
			return nil
		},
	}
}

func newStateWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <label>",
		Short: "Print a snapshot every time it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd)
			if err != nil {
				return err
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			snapshots, err := dir.Watch(ctx, args[0], debounce)
			if err != nil {
				return err
			}
			for snap := range snapshots {
				if err := printSnapshot(cmd, snap); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Duration("debounce", state.DefaultDebounce, "Quiet period before a change is reported")
	return cmd
}

func printSnapshot(cmd *cobra.Command, snap state.Snapshot) error {
	if cli.GetOptions(cmd).JSONOutput {
		return printJSON(cmd, snap)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "--- # %s\n%s", time.Now().Format(time.TimeOnly), data)
	return nil
}
