package orchestrator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/planpilot/planpilot/pkg/models"
)

// EventType classifies loop events streamed to subscribers.
type EventType string

const (
	// EventRunStarted is emitted once at the top of a run.
	EventRunStarted EventType = "run_started"
	// EventDeciding is emitted when the reasoner is consulted.
	EventDeciding EventType = "deciding"
	// EventAction is emitted when a directive is dispatched.
	EventAction EventType = "action"
	// EventObservation is emitted when a result or failure joins the trace.
	EventObservation EventType = "observation"
	// EventFinal is emitted when the reasoner produces a final answer.
	EventFinal EventType = "final"
	// EventAborted is emitted on cancellation or iteration-bound exhaustion.
	EventAborted EventType = "aborted"
)

// Event is one item in the loop's event stream.
type Event struct {
	Type      EventType
	RunID     string
	Iteration int
	Op        models.Operation
	Message   string
	IsError   bool
	Timestamp time.Time
}

// EventEmitter is a thread-safe fan-out channel for loop events. Slow
// subscribers cause events to be dropped rather than stalling the loop.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates an emitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event, giving a full channel a short grace period to drain
// before dropping.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[orchestrator] event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of dropped events.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Emit must not be called afterwards.
func (e *EventEmitter) Close() {
	close(e.events)
}
