package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rimworks/internal/config"
	"rimworks/internal/logging"
	"rimworks/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string

	// Set up by bootstrap before any command runs
	logger *zap.Logger
	cfg    *config.Config
	shop   *store.Store
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rimworks",
	Short: "RIMWorks - mold, operator and job tracking for the RIM shop floor",
	Long: `RIMWorks keeps operator accounts, mold specifications, calibration
snapshots and production jobs as JSON files under a data directory.

Run without arguments to start the interactive terminal UI.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
	RunE: runTUI,
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so it logs to the file only
		return bootstrap(cmd == rootCmd)
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: data.root from config)")

	rootCmd.AddCommand(operatorCmd)
	rootCmd.AddCommand(moldCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, starts logging and opens the store.
func bootstrap(quiet bool) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Data.Root = dataDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	if err := logging.Initialize(cfg.Logging.Options(quiet)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logging.Get(logging.CategoryBoot)

	shop, err = store.New(cfg.Data.Root, store.WithLogger(logging.Get(logging.CategoryStore)))
	if err != nil {
		return err
	}
	logger.Debug("rimworks started",
		zap.String("version", cfg.Version),
		zap.String("data", shop.Root()),
		zap.String("config", configPath))
	return nil
}
