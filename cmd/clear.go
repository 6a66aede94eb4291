package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear results without --yes")
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}

			n := a.store.Len()
			a.store.Clear(yes)
			if err := a.close(); err != nil {
				return fmt.Errorf("persist cleared results: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results cleared (%d removed)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}
