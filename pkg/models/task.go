// Package models defines the data shapes PlanPilot exchanges with the
// remote scheduling service and the reasoning trace types owned by the
// orchestration loop.
package models

import "fmt"

// TaskRecord is the unit of schedulable work exchanged with the scheduling
// service. Name must be unique within a project; the service owns global
// identifiers.
type TaskRecord struct {
	// Name is the human-meaningful task identifier, unique within a project.
	Name string `json:"name"`
	// Start is the ISO-8601 start date. Empty means "compute from dependencies".
	Start string `json:"start,omitempty"`
	// Duration is the task length in working days.
	Duration int `json:"duration"`
	// Dependencies lists names of tasks that must end before this one starts.
	Dependencies []string `json:"dependencies,omitempty"`
}

// ValidationError describes why a TaskRecord was rejected before transmission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task record: %s %s", e.Field, e.Reason)
}

// Validate checks the record locally. It never performs I/O; cycle detection
// across the project graph is the scheduling service's job.
func (r TaskRecord) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if r.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be a positive number of working days"}
	}
	for _, dep := range r.Dependencies {
		if dep == "" {
			return &ValidationError{Field: "dependencies", Reason: "must not contain empty references"}
		}
		if dep == r.Name {
			return &ValidationError{Field: "dependencies", Reason: fmt.Sprintf("task %q must not depend on itself", r.Name)}
		}
	}
	return nil
}

// ScheduledTask is a task record plus the scheduling metadata the service
// computed for it. ComputedStart and ComputedEnd are only populated after a
// recompute has run.
type ScheduledTask struct {
	ID string `json:"id"`
	TaskRecord
	ComputedStart string `json:"computed_start,omitempty"`
	ComputedEnd   string `json:"computed_end,omitempty"`
}

// ProjectState is the service's authoritative view of a project. It is
// fetched fresh at the start of a run and never cached across runs.
type ProjectState struct {
	ProjectID string                   `json:"projectId"`
	Tasks     map[string]ScheduledTask `json:"tasks"`
}

// Task returns the scheduled task with the given name, if present.
func (s *ProjectState) Task(name string) (ScheduledTask, bool) {
	for _, t := range s.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return ScheduledTask{}, false
}

// TaskCreationResult is the service's response to a task creation: the
// assigned identifier plus the echoed task fields.
type TaskCreationResult struct {
	ID string `json:"id"`
	TaskRecord
}
