package orchestrator

import "testing"

func TestEventEmitter_DeliversBuffered(t *testing.T) {
	emitter := NewEventEmitter(4)
	emitter.Emit(Event{Type: EventDeciding})
	emitter.Emit(Event{Type: EventAction})
	emitter.Close()

	var got []EventType
	for event := range emitter.Events() {
		got = append(got, event.Type)
	}
	if len(got) != 2 || got[0] != EventDeciding || got[1] != EventAction {
		t.Errorf("received %v, want [deciding action]", got)
	}
	if emitter.DroppedCount() != 0 {
		t.Errorf("DroppedCount = %d, want 0", emitter.DroppedCount())
	}
}

func TestEventEmitter_DropsWhenFull(t *testing.T) {
	emitter := NewEventEmitter(1)
	emitter.Emit(Event{Type: EventDeciding})
	// Nobody is reading; the second emit waits out its grace period and
	// drops instead of stalling.
	emitter.Emit(Event{Type: EventAction})

	if emitter.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d, want 1", emitter.DroppedCount())
	}
}
