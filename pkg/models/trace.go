package models

// Operation names one of the scheduling service's three capabilities. The
// set is closed: the reasoner picks from these, and anything else is a
// contract violation at the reasoner boundary.
type Operation string

const (
	// OpFetchState reads the current project state from the service.
	OpFetchState Operation = "fetch_state"
	// OpAddTask creates a new task in the remote project.
	OpAddTask Operation = "add_task"
	// OpRecomputeSchedule asks the service to recompute all task dates.
	OpRecomputeSchedule Operation = "recompute_schedule"
)

// Valid returns true if the operation is a known value.
func (o Operation) Valid() bool {
	switch o {
	case OpFetchState, OpAddTask, OpRecomputeSchedule:
		return true
	default:
		return false
	}
}

// Action is a directive to invoke one service operation with concrete
// arguments. Task is set only for OpAddTask.
type Action struct {
	Op Operation `json:"op"`
	// ToolUseID correlates the action with its observation when the
	// conversation is replayed to the reasoner.
	ToolUseID string      `json:"tool_use_id,omitempty"`
	ProjectID string      `json:"project_id"`
	Task      *TaskRecord `json:"task,omitempty"`
}

// FinalAnswer is the reasoner's terminal output: no further action, return
// this to the caller.
type FinalAnswer struct {
	Text string `json:"text"`
}

// Decision is the reasoner's output for one reasoning step. Exactly one of
// Action or Final is set.
type Decision struct {
	Thought string
	Action  *Action
	Final   *FinalAnswer
}

// Observation is the outcome of one acted directive, success or failure,
// serialized so it can be fed back to the reasoner.
type Observation struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Step is one thought/action/observation triple in a reasoning trace.
// Action is nil when the failure happened while deciding (for example a
// reasoner contract violation) rather than while acting.
type Step struct {
	Thought     string      `json:"thought,omitempty"`
	Action      *Action     `json:"action,omitempty"`
	Observation Observation `json:"observation"`
}

// Trace is the append-only log of steps for one orchestration run. It is
// owned by the loop and discarded when the run ends.
type Trace []Step

// Actions returns the acted operations in order, skipping decide-phase
// failure steps.
func (t Trace) Actions() []Action {
	var out []Action
	for _, s := range t {
		if s.Action != nil {
			out = append(out, *s.Action)
		}
	}
	return out
}
