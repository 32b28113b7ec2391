package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/grovetools/seqrkit/errors"
	"github.com/spf13/cobra"
)

// NewSetPasswordCmd creates the `set-password` command.
func NewSetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <username>",
		Short: "Set a user's password, read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInvalidInput, "no password on stdin")
				}
				return errors.New(errors.ErrCodeInvalidInput, "password must not be empty")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.actions.SetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	}
}
