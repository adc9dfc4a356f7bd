package main

import (
	"context"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the gauge: sweep, poll, drive the needle and serve status",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	ctx, cleanup, a, log, err := setup(parent, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Infow("tide-gauge starting")
	return a.Run(ctx)
}
