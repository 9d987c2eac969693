package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planpilot/planpilot/internal/config"
	"github.com/planpilot/planpilot/internal/orchestrator"
	"github.com/planpilot/planpilot/internal/reasoner"
	"github.com/planpilot/planpilot/internal/state"
	"github.com/planpilot/planpilot/pkg/models"
)

var (
	runProject       string
	runHeadless      bool
	runMaxIterations int
	runDebugLog      string
	runNoHistory     bool
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run a natural-language scheduling request",
	Long: `Run a scheduling request against a project.

The request is handed to the reasoner, which decides one operation at a
time (fetch the schedule, add a task, recompute) and observes each
outcome until it can answer. Service rejections are fed back to the
reasoner rather than failing the run; only the iteration bound or an
interrupt aborts it.

A run that exhausts the iteration bound exits non-zero and reports how
far it got. Drop a stop file with SIGINT (Ctrl-C) or 'planpilot' in
another terminal to abort between steps.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "Project id to operate on (required)")
	runCmd.MarkFlagRequired("project")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the TUI, printing events to stdout")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Override loop.max_iterations for this run")
	runCmd.Flags().StringVar(&runDebugLog, "debug-log", "", "Override loop.debug_log_path for this run")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip archiving the run to the history database")
}

func runRequest(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Loop.MaxIterations = runMaxIterations
	}
	if cmd.Flags().Changed("debug-log") {
		cfg.Loop.DebugLogPath = runDebugLog
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loop, reasonerClient, cleanup, err := buildLoop(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping after the current step...")
		cancel()
	}()

	var result *models.RunResult
	var runErr error
	if runHeadless {
		result, runErr = runHeadlessMode(ctx, loop, runProject, request)
	} else {
		result, runErr = runWithTUI(ctx, cancel, loop, runProject, request)
	}

	if result != nil {
		recordTokens(result, reasonerClient)
		if !runNoHistory {
			archiveRun(result)
		}
	}
	return runErr
}

// runHeadlessMode streams loop events to stdout and prints the outcome.
func runHeadlessMode(ctx context.Context, loop *orchestrator.Loop, projectID, request string) (*models.RunResult, error) {
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for event := range loop.Events() {
			printEvent(event)
		}
	}()

	result, runErr := loop.Run(ctx, projectID, request)
	loop.Close()
	<-printed

	fmt.Println()
	switch {
	case runErr == nil:
		color.Green("✓ %s", result.FinalAnswer)
	case errors.Is(runErr, orchestrator.ErrNotConverged):
		color.Red("✗ aborted: no final answer after %d iterations", result.Iterations)
	case errors.Is(runErr, orchestrator.ErrStopped):
		color.Yellow("✗ stopped after %d iterations", result.Iterations)
	default:
		color.Red("✗ %v", runErr)
	}
	fmt.Printf("run %s: %d iterations, %d operations\n",
		result.RunID, result.Iterations, len(result.Trace.Actions()))
	return result, runErr
}

func printEvent(event orchestrator.Event) {
	stamp := event.Timestamp.Format("15:04:05")
	switch event.Type {
	case orchestrator.EventRunStarted:
		fmt.Printf("%s %s %s\n", stamp, color.MagentaString("run"), event.Message)
	case orchestrator.EventDeciding:
		fmt.Printf("%s %s iteration %d\n", stamp, color.CyanString("think"), event.Iteration)
	case orchestrator.EventAction:
		fmt.Printf("%s %s %s\n", stamp, color.BlueString("act"), event.Message)
	case orchestrator.EventObservation:
		label := color.GreenString("ok")
		if event.IsError {
			label = color.RedString("err")
		}
		fmt.Printf("%s %s %s\n", stamp, label, event.Message)
	case orchestrator.EventFinal:
		fmt.Printf("%s %s %s\n", stamp, color.GreenString("final"), event.Message)
	case orchestrator.EventAborted:
		fmt.Printf("%s %s %s\n", stamp, color.RedString("abort"), event.Message)
	}
}

// recordTokens copies reasoner token usage onto the finished run.
func recordTokens(result *models.RunResult, client *reasoner.Client) {
	in, out := client.Tracker().Total()
	result.TokensIn = in
	result.TokensOut = out
}

// archiveRun saves the run to the history database. Failure to archive never
// fails the run itself.
func archiveRun(result *models.RunResult) {
	db, err := state.OpenDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open run history: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.SaveRun(result); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not archive run: %v\n", err)
	}
}
