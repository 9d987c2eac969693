package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planpilot",
	Short: "Reasoning-driven project scheduling assistant",
	Long: `PlanPilot turns natural-language scheduling requests into concrete
operations against a remote project-scheduling service.

A request like "add a 5-day hull-painting task that depends on
scaffolding, then reschedule" is handed to an LLM reasoner that
inspects the project, adds tasks, and recomputes the schedule until
the request is satisfied or the iteration bound is hit.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
