package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/i474232898/tide-gauge/internal/common"
	"github.com/i474232898/tide-gauge/internal/store"
)

// NewOnceCommand creates the once command.
func NewOnceCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "once",
		Short:        "Fetch tide and weather once, set the needle and print the result",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cleanup, a, log, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, fetchErr := a.Once(ctx)
			if fetchErr != nil {
				log.Warnw("some fetches failed", "error", fetchErr)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					store.Snapshot
					NeedleCode uint8 `json:"needleCode"`
				}{snap, a.NeedleCode()})
			}
			printSnapshot(cmd.OutOrStdout(), snap, a.NeedleCode())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printSnapshot(w io.Writer, snap store.Snapshot, code uint8) {
	t := snap.Tide
	if t.Valid {
		fmt.Fprintf(w, "tide:    %.2f ft (%+.2f ft from MSL)\n", t.CurrentLevelFt, t.DeltaFromMeanFt)
	} else {
		fmt.Fprintf(w, "tide:    %s\n", common.Placeholder)
	}
	if t.HasNextEvent() {
		fmt.Fprintf(w, "next:    %s %.2f ft at %s\n", t.NextEventKind, t.NextEventLevelFt, common.EventTimeString(t.NextEventTime))
	} else {
		fmt.Fprintf(w, "next:    %s\n", common.Placeholder)
	}

	wx := snap.Weather
	if wx.Valid {
		fmt.Fprintf(w, "weather: %.1f°F, %s, wind %.1f mph %s\n", wx.TemperatureF, wx.Condition.Label(), wx.WindSpeedMph, wx.WindSector())
	} else {
		fmt.Fprintf(w, "weather: %s\n", common.Placeholder)
	}
	fmt.Fprintf(w, "needle:  %d / 255\n", code)
}
