package main

import (
	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command, used to check needle wiring
// and calibration.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "sweep",
		Short:        "Sweep the needle full scale once and leave it centered",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cleanup, a, _, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			return a.Sweep(ctx)
		},
	}
}
