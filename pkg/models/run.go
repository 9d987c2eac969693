package models

import "time"

// RunStatus represents how an orchestration run ended.
type RunStatus string

const (
	// RunStatusCompleted indicates the reasoner produced a final answer.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusAborted indicates the iteration bound was exhausted or the
	// caller cancelled; never a silent success.
	RunStatusAborted RunStatus = "aborted"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusCompleted, RunStatusAborted:
		return true
	default:
		return false
	}
}

// RunResult is what an orchestration run hands back to the caller: a final
// answer on completion, or the best-known state plus the partial trace on
// abort.
type RunResult struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`
	// ProjectID is the remote project the run operated on.
	ProjectID string `json:"project_id"`
	// Request is the original free-text user request.
	Request string `json:"request"`
	// Status is how the run ended.
	Status RunStatus `json:"status"`
	// FinalAnswer is the reasoner's terminal output, empty on abort.
	FinalAnswer string `json:"final_answer,omitempty"`
	// State is the latest known project state, if any fetch or recompute ran.
	State *ProjectState `json:"state,omitempty"`
	// Iterations is the number of reasoning cycles consumed.
	Iterations int `json:"iterations"`
	// TokensIn and TokensOut count reasoner token usage for the run.
	TokensIn  int64 `json:"tokens_in"`
	TokensOut int64 `json:"tokens_out"`
	// Trace is the full thought/action/observation log for the run.
	Trace Trace `json:"trace"`
	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
