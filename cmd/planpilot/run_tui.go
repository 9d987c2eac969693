package main

import (
	"context"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/planpilot/planpilot/internal/orchestrator"
	"github.com/planpilot/planpilot/internal/tui"
	"github.com/planpilot/planpilot/pkg/models"
)

type runOutcome struct {
	result *models.RunResult
	err    error
}

// runWithTUI runs the loop behind a live bubbletea view. If the user quits
// the TUI mid-run, the run is cancelled and its partial result returned.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, loop *orchestrator.Loop, projectID, request string) (*models.RunResult, error) {
	// Log output corrupts the alt-screen display.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	program, _ := tui.NewRunProgram(projectID, request)

	go forwardEvents(program, loop.Events())

	runDone := make(chan runOutcome, 1)
	go func() {
		result, err := loop.Run(ctx, projectID, request)
		loop.Close()
		runDone <- runOutcome{result: result, err: err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	select {
	case outcome := <-runDone:
		if outcome.err != nil {
			program.Send(tui.DoneMsg{Success: false, Message: outcome.err.Error()})
		} else {
			program.Send(tui.DoneMsg{Success: true, Message: outcome.result.FinalAnswer})
		}
		// Leave the result on screen until the user quits.
		<-tuiDone
		return outcome.result, outcome.err

	case err := <-tuiDone:
		// User quit mid-run; stop the loop and collect the partial result.
		cancel()
		outcome := <-runDone
		if err != nil {
			return outcome.result, err
		}
		return outcome.result, outcome.err
	}
}

// forwardEvents converts loop events to TUI messages.
func forwardEvents(program *tea.Program, events <-chan orchestrator.Event) {
	for event := range events {
		program.Send(tui.EventMsg{Event: event})
	}
}
