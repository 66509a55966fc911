package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the calendar, stats, sessions and rewards",
		Long:  "Clears all progress from the local store. Notification settings and study rooms are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := p.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
