package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rimworks/cmd/rimworks/ui"
	"rimworks/internal/types"
)

// =============================================================================
// CALIBRATION COMMANDS
// =============================================================================

var calibrateRatios []string

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Record a calibration snapshot",
	Long: `Records min/max bounds for all ten mixing ratios A through J.

Every ratio must be given; nothing is written otherwise.

Example:
  rimworks calibrate --ratio A=1:2 --ratio B=1.5:2.5 ... --ratio J=0.8:1.2`,
	RunE: runCalibrate,
}

var calibrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calibration snapshots",
	RunE:  runCalibrateList,
}

func init() {
	calibrateCmd.Flags().StringArrayVarP(&calibrateRatios, "ratio", "r", nil, "Ratio bounds as LETTER=MIN:MAX (repeat for A-J)")
	calibrateCmd.AddCommand(calibrateListCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	inputs := make([]types.RatioInput, 0, len(calibrateRatios))
	for _, r := range calibrateRatios {
		in, err := types.ParseRatioFlag(r)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}
	snap, err := types.ParseCalibration(inputs)
	if err != nil {
		return err
	}
	saved, err := shop.Calibrations().Save(ctx, snap)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Calibration saved as %s\n", saved.Key)
	return nil
}

func runCalibrateList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()

	snaps, warnings, err := shop.Calibrations().List(ctx)
	if err != nil {
		return err
	}
	printWarnings(out, warnings)
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No calibrations recorded.")
		return nil
	}

	for _, snap := range snaps {
		table := ui.NewSimpleTable(snap.Key, []string{"Ratio", "Min", "Max"})
		for _, r := range snap.SortedRatios() {
			b := snap.Ratios[r]
			table.AddRow(r, formatBound(b.Min), formatBound(b.Max))
		}
		fmt.Fprint(out, table.View(cliStyles()))
	}
	return nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
