// Package orchestrator drives PlanPilot's reason-act-observe loop: it asks
// the reasoner for the next directive, dispatches it on the scheduling
// service, feeds the observation back into the trace, and decides when to
// stop.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planpilot/planpilot/pkg/models"
)

// DefaultMaxIterations bounds the number of reasoning cycles per run.
const DefaultMaxIterations = 12

// ErrNotConverged is returned when the iteration bound is exhausted before
// the reasoner produced a final answer. The partial trace and best-known
// state are still returned alongside it.
var ErrNotConverged = errors.New("run did not converge within the iteration bound")

// ErrStopped is returned when the caller cancelled the run between steps.
var ErrStopped = errors.New("run stopped before completion")

// Reasoner decides the next directive from the request and the trace so far.
type Reasoner interface {
	Decide(ctx context.Context, request string, trace models.Trace) (*models.Decision, error)
}

// ServiceClient is the scheduling service capability surface available to
// the loop. The loop may call these in any order, any number of times.
type ServiceClient interface {
	FetchState(ctx context.Context, projectID string) (*models.ProjectState, error)
	AddTask(ctx context.Context, projectID string, record models.TaskRecord) (*models.TaskCreationResult, error)
	RecomputeSchedule(ctx context.Context, projectID string) (*models.ProjectState, error)
}

// Loop is the orchestration state machine. It is stateless across runs: each
// Run builds a fresh trace and discards it when the result is returned.
type Loop struct {
	reasoner      Reasoner
	service       ServiceClient
	maxIterations int
	emitter       *EventEmitter
	logger        *DebugLogger
	signals       *SignalWatcher
}

// RequiredConfig holds the dependencies a Loop cannot run without.
type RequiredConfig struct {
	Reasoner Reasoner
	Service  ServiceClient
}

// Option configures optional Loop behavior.
type Option func(*Loop)

// WithMaxIterations overrides the iteration bound.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithDebugLogger attaches a file-backed debug logger.
func WithDebugLogger(logger *DebugLogger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithSignalWatcher attaches a stop-signal watcher checked between steps.
func WithSignalWatcher(w *SignalWatcher) Option {
	return func(l *Loop) {
		l.signals = w
	}
}

// New creates an orchestration loop. Both required dependencies must be set.
func New(cfg RequiredConfig, opts ...Option) (*Loop, error) {
	if cfg.Reasoner == nil {
		return nil, fmt.Errorf("orchestrator requires a reasoner")
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("orchestrator requires a scheduling service client")
	}

	l := &Loop{
		reasoner:      cfg.Reasoner,
		service:       cfg.Service,
		maxIterations: DefaultMaxIterations,
		emitter:       NewEventEmitter(64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Events returns the stream of loop events for subscribers (CLI, TUI).
func (l *Loop) Events() <-chan Event {
	return l.emitter.Events()
}

// Close shuts down the event stream. Call after the final Run has returned.
func (l *Loop) Close() {
	l.emitter.Close()
}

// Run executes one orchestration run: DECIDING -> ACTING -> OBSERVING until
// the reasoner produces a final answer (TERMINATED), the iteration bound is
// exhausted, or the caller cancels (ABORTED). Failures from the service or
// the reasoner never escape mid-run; they become observations the reasoner
// can recover from.
func (l *Loop) Run(ctx context.Context, projectID, request string) (*models.RunResult, error) {
	result := &models.RunResult{
		RunID:     uuid.New().String(),
		ProjectID: projectID,
		Request:   request,
		StartedAt: time.Now(),
	}

	trace := models.Trace{}
	var lastState *models.ProjectState

	finish := func(status models.RunStatus) {
		result.Status = status
		result.Trace = trace
		result.State = lastState
		result.FinishedAt = time.Now()
	}

	l.logf("run %s: project=%s request=%q", result.RunID, projectID, request)
	l.emit(Event{Type: EventRunStarted, RunID: result.RunID, Message: request})

	for result.Iterations < l.maxIterations {
		if err := l.stopRequested(ctx); err != nil {
			finish(models.RunStatusAborted)
			l.logf("run %s: stopped after %d iterations", result.RunID, result.Iterations)
			l.emit(Event{Type: EventAborted, RunID: result.RunID, Iteration: result.Iterations, Message: err.Error(), IsError: true})
			return result, err
		}
		result.Iterations++

		// DECIDING
		l.emit(Event{Type: EventDeciding, RunID: result.RunID, Iteration: result.Iterations})
		decision, err := l.reasoner.Decide(ctx, request, trace)
		if err != nil {
			// Recoverable: the failure becomes an observation and the loop
			// re-reasons, still counting against the bound.
			l.logf("run %s: decide failed: %v", result.RunID, err)
			trace = append(trace, models.Step{
				Observation: models.Observation{Content: err.Error(), IsError: true},
			})
			l.emit(Event{Type: EventObservation, RunID: result.RunID, Iteration: result.Iterations, Message: err.Error(), IsError: true})
			continue
		}

		if decision.Final != nil {
			result.FinalAnswer = decision.Final.Text
			finish(models.RunStatusCompleted)
			l.logf("run %s: terminated after %d iterations", result.RunID, result.Iterations)
			l.emit(Event{Type: EventFinal, RunID: result.RunID, Iteration: result.Iterations, Message: decision.Final.Text})
			return result, nil
		}

		action := decision.Action
		if action == nil {
			trace = append(trace, models.Step{
				Thought:     decision.Thought,
				Observation: models.Observation{Content: "decision carries neither an action nor a final answer", IsError: true},
			})
			l.emit(Event{Type: EventObservation, RunID: result.RunID, Iteration: result.Iterations, Message: "empty decision", IsError: true})
			continue
		}
		if action.ProjectID == "" {
			action.ProjectID = projectID
		}

		// ACTING
		l.logf("run %s: acting %s", result.RunID, describeAction(*action))
		l.emit(Event{Type: EventAction, RunID: result.RunID, Iteration: result.Iterations, Op: action.Op, Message: describeAction(*action)})
		observation, state := l.act(ctx, *action)
		if state != nil {
			lastState = state
		}

		// OBSERVING
		trace = append(trace, models.Step{
			Thought:     decision.Thought,
			Action:      action,
			Observation: observation,
		})
		l.emit(Event{
			Type:      EventObservation,
			RunID:     result.RunID,
			Iteration: result.Iterations,
			Op:        action.Op,
			Message:   truncateForDisplay(observation.Content),
			IsError:   observation.IsError,
		})
	}

	finish(models.RunStatusAborted)
	l.logf("run %s: iteration bound (%d) exhausted", result.RunID, l.maxIterations)
	l.emit(Event{Type: EventAborted, RunID: result.RunID, Iteration: result.Iterations,
		Message: fmt.Sprintf("no final answer after %d iterations", result.Iterations), IsError: true})
	return result, fmt.Errorf("%w (%d iterations)", ErrNotConverged, result.Iterations)
}

// act dispatches one directive on the service client. Every failure is
// captured as an observation, never raised; the second return value carries
// a fresh project state when the operation produced one. The loop never
// dedupes add_task: a repeated directive creates a second task.
func (l *Loop) act(ctx context.Context, action models.Action) (models.Observation, *models.ProjectState) {
	switch action.Op {
	case models.OpFetchState:
		state, err := l.service.FetchState(ctx, action.ProjectID)
		if err != nil {
			return failureObservation(err), nil
		}
		return successObservation(state), state

	case models.OpAddTask:
		if action.Task == nil {
			return models.Observation{Content: "add_task directive is missing a task record", IsError: true}, nil
		}
		created, err := l.service.AddTask(ctx, action.ProjectID, *action.Task)
		if err != nil {
			return failureObservation(err), nil
		}
		return successObservation(created), nil

	case models.OpRecomputeSchedule:
		state, err := l.service.RecomputeSchedule(ctx, action.ProjectID)
		if err != nil {
			return failureObservation(err), nil
		}
		return successObservation(state), state

	default:
		return models.Observation{Content: fmt.Sprintf("unsupported operation %q", action.Op), IsError: true}, nil
	}
}

// stopRequested reports caller cancellation, checked only between steps.
func (l *Loop) stopRequested(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	if l.signals != nil && l.signals.ShouldStop() {
		return fmt.Errorf("%w: stop signal received", ErrStopped)
	}
	return nil
}

func (l *Loop) emit(event Event) {
	event.Timestamp = time.Now()
	l.emitter.Emit(event)
}

func (l *Loop) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Log(format, args...)
	}
}

func successObservation(v interface{}) models.Observation {
	raw, err := json.Marshal(v)
	if err != nil {
		return models.Observation{Content: fmt.Sprintf("result not serializable: %v", err), IsError: true}
	}
	return models.Observation{Content: string(raw)}
}

func failureObservation(err error) models.Observation {
	return models.Observation{Content: err.Error(), IsError: true}
}

// describeAction returns a short human-readable line for event streams.
func describeAction(a models.Action) string {
	switch a.Op {
	case models.OpAddTask:
		if a.Task == nil {
			return fmt.Sprintf("add_task %s (no record)", a.ProjectID)
		}
		desc := fmt.Sprintf("add_task %s name=%s duration=%dd", a.ProjectID, a.Task.Name, a.Task.Duration)
		if len(a.Task.Dependencies) > 0 {
			desc += " after " + strings.Join(a.Task.Dependencies, ", ")
		}
		return desc
	default:
		return fmt.Sprintf("%s %s", a.Op, a.ProjectID)
	}
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
