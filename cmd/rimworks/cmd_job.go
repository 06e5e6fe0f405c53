package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rimworks/cmd/rimworks/ui"
	"rimworks/internal/types"
	"rimworks/internal/wizard"
)

// =============================================================================
// JOB COMMANDS
// =============================================================================

var (
	jobOperator string
	jobMold     string
	jobParts    int
	jobStart    string
	jobEnd      string

	jobListOperator string
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Create and list production jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job without the interactive wizard",
	Long: `Runs the job wizard in one step: assigns the operator, selects the mold
and schedule, then writes jobs/<job_id>.json with status "Not Started".

Times accept RFC3339 or "YYYY-MM-DD HH:MM" in local time.

Example:
  rimworks job create --operator jane --mold Axio_Braking_20250301_101500 \
    --parts 40 --start "2025-03-02 08:00" --end "2025-03-02 16:00"`,
	RunE: runJobCreate,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE:  runJobList,
}

func init() {
	jobCreateCmd.Flags().StringVar(&jobOperator, "operator", "", "Operator username")
	jobCreateCmd.Flags().StringVar(&jobMold, "mold", "", "Mold key (see mold list)")
	jobCreateCmd.Flags().IntVar(&jobParts, "parts", 0, "Part count (1-10000)")
	jobCreateCmd.Flags().StringVar(&jobStart, "start", "", "Start time")
	jobCreateCmd.Flags().StringVar(&jobEnd, "end", "", "End time")

	jobListCmd.Flags().StringVar(&jobListOperator, "operator", "", "Only jobs assigned to this username")

	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobListCmd)
}

func runJobCreate(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	ops, _, err := shop.Operators().List(ctx)
	if err != nil {
		return err
	}
	op, ok := findOperator(ops, jobOperator)
	if !ok {
		return fmt.Errorf("operator %q not found", jobOperator)
	}
	mold, err := shop.Molds().Get(ctx, jobMold)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("mold %q not found", jobMold)
		}
		return err
	}

	var errs types.ValidationErrors
	start, err := types.ParseDateTime(jobStart)
	if err != nil {
		errs.Add("start_datetime", jobStart, err.Error())
	}
	end, err := types.ParseDateTime(jobEnd)
	if err != nil {
		errs.Add("end_datetime", jobEnd, err.Error())
	}
	if err := errs.Err(); err != nil {
		return err
	}

	wiz := wizard.New(shop.Jobs())
	if err := wiz.AssignOperator(&op); err != nil {
		return err
	}
	if err := wiz.AdvanceToMoldSelection(); err != nil {
		return err
	}
	if err := wiz.SelectMoldAndSchedule(&mold, jobParts, start.Time, end.Time); err != nil {
		return err
	}
	if err := wiz.Persist(ctx); err != nil {
		return err
	}

	job := wiz.Job()
	logger.Debug("job created from cli", zap.String("job_id", job.JobID))
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Job %s created for %s (%s, %d parts)\n",
		job.JobID, op.Username, mold.MoldName, job.PartCount)
	return nil
}

func runJobList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()

	jobs, warnings, err := shop.Jobs().List(ctx)
	if err != nil {
		return err
	}
	printWarnings(out, warnings)

	shown := jobs[:0:0]
	for _, j := range jobs {
		if jobListOperator != "" && (j.Operator == nil || j.Operator.Username != jobListOperator) {
			continue
		}
		shown = append(shown, j)
	}
	if len(shown) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return nil
	}
	sort.SliceStable(shown, func(a, b int) bool { return shown[a].JobID < shown[b].JobID })

	table := ui.NewSimpleTable("Jobs", ui.JobHeaders)
	for _, j := range shown {
		table.AddRow(ui.JobCells(j)...)
	}
	fmt.Fprint(out, table.View(cliStyles()))
	return nil
}

// findOperator returns the first operator with username, matching the
// operator login lookup.
func findOperator(ops []types.Operator, username string) (types.Operator, bool) {
	for _, op := range ops {
		if op.Username == username {
			return op, true
		}
	}
	return types.Operator{}, false
}
