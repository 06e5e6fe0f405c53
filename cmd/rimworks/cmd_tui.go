package main

import (
	"github.com/spf13/cobra"

	"rimworks/cmd/rimworks/ui"
)

// runTUI starts the interactive terminal UI.
func runTUI(cmd *cobra.Command, args []string) error {
	logger.Info("starting terminal ui")
	return ui.Run(cmdContext(cmd), ui.Deps{
		Store:  shop,
		Config: cfg,
	})
}
