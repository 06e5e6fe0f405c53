package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rimworks/cmd/rimworks/ui"
	"rimworks/internal/types"
)

// =============================================================================
// MOLD COMMANDS
// =============================================================================

var (
	moldVehicle  string
	moldSystem   string
	moldType     string
	moldNumber   string
	moldLife     int
	moldPart     string
	moldRatio    string
	moldChemical string
	moldCreation string

	moldFilters ui.MoldFilters
	moldSort    string
)

var moldCmd = &cobra.Command{
	Use:   "mold",
	Short: "Manage mold specifications",
}

var moldAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a mold specification",
	Long: `Creates a mold file named <vehicle>_<system>_<timestamp>.json.

Example:
  rimworks mold add --vehicle Axio --system Braking --type "Soft Silicon" \
    --number M-12 --life 500 --part P-88 --ratio C --chemical B`,
	RunE: runMoldAdd,
}

var moldListCmd = &cobra.Command{
	Use:   "list",
	Short: "List molds, optionally filtered",
	RunE:  runMoldList,
}

var moldDeleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete the mold stored under key",
	Long: `Deletes exactly one mold file. The key is the file name without .json,
as shown in the KEY column of "rimworks mold list".`,
	Args: cobra.ExactArgs(1),
	RunE: runMoldDelete,
}

func init() {
	moldAddCmd.Flags().StringVar(&moldVehicle, "vehicle", "", "Vehicle model")
	moldAddCmd.Flags().StringVar(&moldSystem, "system", "", "System (Steering, Braking, Suspension, Other)")
	moldAddCmd.Flags().StringVar(&moldType, "type", string(types.MoldTypeSoftSilicon), "Mold type (Soft Silicon, Hard Silicon)")
	moldAddCmd.Flags().StringVar(&moldNumber, "number", "", "Mold number")
	moldAddCmd.Flags().IntVar(&moldLife, "life", 0, "Life span in cycles (1-10000)")
	moldAddCmd.Flags().StringVar(&moldPart, "part", "", "Part number")
	moldAddCmd.Flags().StringVar(&moldRatio, "ratio", "", "Mixing ratio (A-J)")
	moldAddCmd.Flags().StringVar(&moldChemical, "chemical", "", "Chemical type (A-D)")
	moldAddCmd.Flags().StringVar(&moldCreation, "creation", string(types.CreationNewPart), "Creation type")

	moldListCmd.Flags().StringVar(&moldFilters.Vehicle, "vehicle", "", "Only this vehicle")
	moldListCmd.Flags().StringVar(&moldFilters.System, "system", "", "Only this system")
	moldListCmd.Flags().StringVar(&moldFilters.MoldType, "type", "", "Only this mold type")
	moldListCmd.Flags().StringVar(&moldFilters.Chemical, "chemical", "", "Only this chemical type")
	moldListCmd.Flags().StringVar(&moldFilters.Ratio, "ratio", "", "Only this mixing ratio")
	moldListCmd.Flags().StringVar(&moldFilters.Date, "date", "", "Only molds created on YYYY-MM-DD")
	moldListCmd.Flags().StringVar(&moldFilters.Search, "search", "", "Part number substring")
	moldListCmd.Flags().StringVar(&moldSort, "sort", "", "Sort by a mold field (e.g. mold_name, vehicle)")

	moldCmd.AddCommand(moldAddCmd)
	moldCmd.AddCommand(moldListCmd)
	moldCmd.AddCommand(moldDeleteCmd)
}

func runMoldAdd(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	m := types.Mold{
		Vehicle:      strings.TrimSpace(moldVehicle),
		System:       parsedOr(types.ParseSystem, moldSystem),
		MoldType:     parsedOr(types.ParseMoldType, moldType),
		MoldNumber:   strings.TrimSpace(moldNumber),
		LifeSpan:     moldLife,
		PartNumber:   strings.TrimSpace(moldPart),
		CreationType: parsedOr(types.ParseCreationType, moldCreation),
		MixingRatio:  strings.ToUpper(strings.TrimSpace(moldRatio)),
		ChemicalType: strings.ToUpper(strings.TrimSpace(moldChemical)),
	}
	saved, err := shop.Molds().Save(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Mold %s saved as %s\n", saved.MoldName, saved.Key)
	return nil
}

func runMoldList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()

	molds, warnings, err := shop.Molds().List(ctx)
	if err != nil {
		return err
	}
	printWarnings(out, warnings)

	shown := moldFilters.Apply(molds, moldSort)
	if len(shown) == 0 {
		fmt.Fprintln(out, "No molds found.")
		return nil
	}

	table := ui.NewSimpleTable("Molds", []string{"Key", "Mold", "Type", "Number", "Part", "Life", "Ratio", "Chemical", "Date"})
	for _, m := range shown {
		table.AddRow(m.Key, m.MoldName, string(m.MoldType), m.MoldNumber, m.PartNumber,
			strconv.Itoa(m.LifeSpan), m.MixingRatio, m.ChemicalType, m.Date())
	}
	fmt.Fprint(out, table.View(cliStyles()))
	fmt.Fprintf(out, "%d of %d molds\n", len(shown), len(molds))
	return nil
}

func runMoldDelete(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	if err := shop.Molds().Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Mold %s deleted\n", args[0])
	return nil
}

// parsedOr returns the canonical enum value for s, or s unchanged so that
// validation reports it.
func parsedOr[T ~string](parse func(string) (T, bool), s string) T {
	if v, ok := parse(s); ok {
		return v
	}
	return T(strings.TrimSpace(s))
}
