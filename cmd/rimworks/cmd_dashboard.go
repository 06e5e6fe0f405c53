package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rimworks/cmd/rimworks/ui"
	"rimworks/internal/dashboard"
	"rimworks/internal/logging"
)

// =============================================================================
// DASHBOARD COMMAND
// =============================================================================

var (
	dashboardWatch    bool
	dashboardXLSX     string
	dashboardOperator string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show job status grouped by chemical type",
	Long: `Prints every job grouped by the chemical type of its mold, colored by
status. With --watch the table is reprinted whenever a job file changes.
With --xlsx the same grouping is also written as a spreadsheet.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().BoolVarP(&dashboardWatch, "watch", "W", false, "Reprint when jobs change (Ctrl+C to stop)")
	dashboardCmd.Flags().StringVar(&dashboardXLSX, "xlsx", "", "Also export to this .xlsx file")
	dashboardCmd.Flags().StringVar(&dashboardOperator, "operator", "", "Only jobs assigned to this username")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()
	agg := dashboard.NewAggregator(shop.Jobs())

	if err := printDashboard(ctx, out, agg); err != nil {
		return err
	}
	if !dashboardWatch {
		return nil
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := dashboard.NewWatcher(shop.Jobs().Dir(), cfg.GetWatchDebounce())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return fmt.Errorf("failed to watch %s: %w", shop.Jobs().Dir(), err)
	}
	defer w.Stop()
	fmt.Fprintln(out, "👀 Watching for job changes (Ctrl+C to stop)")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changes():
			fmt.Fprintln(out)
			if err := printDashboard(ctx, out, agg); err != nil {
				logger.Warn("dashboard reload failed", zap.Error(err))
				fmt.Fprintf(out, "⚠️  reload failed: %v\n", err)
			}
		}
	}
}

// printDashboard loads, prints and optionally exports one dashboard.
func printDashboard(ctx context.Context, out io.Writer, agg *dashboard.Aggregator) error {
	load := agg.Load
	if dashboardOperator != "" {
		load = func(ctx context.Context) (dashboard.Dashboard, error) {
			return agg.ForOperator(ctx, dashboardOperator)
		}
	}
	d, err := load(ctx)
	if err != nil {
		return err
	}
	printWarnings(out, d.Warnings)
	fmt.Fprint(out, ui.RenderDashboard(cliStyles(), d))

	if dashboardXLSX == "" {
		return nil
	}
	data, err := agg.ExportXLSX(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dashboardXLSX, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dashboardXLSX, err)
	}
	logging.Get(logging.CategoryDashboard).Info("dashboard exported",
		zap.String("path", dashboardXLSX), zap.Int("jobs", d.Total()))
	fmt.Fprintf(out, "✅ Exported %d jobs to %s\n", d.Total(), dashboardXLSX)
	return nil
}
