package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planpilot/planpilot/internal/state"
	"github.com/planpilot/planpilot/pkg/models"
)

var (
	historyProject string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Inspect archived runs",
	Long: `Without arguments, lists archived runs newest first. With a run id,
prints the full run including its operation trace.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := state.OpenDefault()
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer db.Close()

		if len(args) == 1 {
			return showRun(db, args[0])
		}
		return listRuns(db)
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyProject, "project", "p", "", "Filter by project id")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
}

func listRuns(db *state.DB) error {
	runs, err := db.ListRuns(historyProject, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %-9s  %2d iter  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.RunID[:8],
			statusLabel(run.Status),
			run.Iterations,
			truncateRequest(run.Request, 60))
	}
	return nil
}

func showRun(db *state.DB, runID string) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}

	fmt.Printf("run:       %s\n", run.RunID)
	fmt.Printf("project:   %s\n", run.ProjectID)
	fmt.Printf("request:   %s\n", run.Request)
	fmt.Printf("status:    %s\n", statusLabel(run.Status))
	fmt.Printf("iterations: %d\n", run.Iterations)
	fmt.Printf("tokens:    %d in / %d out\n", run.TokensIn, run.TokensOut)
	fmt.Printf("duration:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	if run.FinalAnswer != "" {
		fmt.Printf("answer:    %s\n", run.FinalAnswer)
	}

	if len(run.Trace) > 0 {
		fmt.Println("\ntrace:")
		for i, step := range run.Trace {
			if step.Action != nil {
				fmt.Printf("  %2d. %s project=%s\n", i+1, step.Action.Op, step.Action.ProjectID)
				if step.Action.Task != nil {
					fmt.Printf("      task %q duration=%d deps=%v\n",
						step.Action.Task.Name, step.Action.Task.Duration, step.Action.Task.Dependencies)
				}
			} else {
				fmt.Printf("  %2d. (no action)\n", i+1)
			}
			label := "ok"
			if step.Observation.IsError {
				label = "err"
			}
			fmt.Printf("      %s %s\n", label, truncateRequest(step.Observation.Content, 120))
		}
	}
	return nil
}

func statusLabel(status models.RunStatus) string {
	switch status {
	case models.RunStatusCompleted:
		return color.GreenString(string(status))
	case models.RunStatusAborted:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}

func truncateRequest(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
