package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTaskRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		record    TaskRecord
		wantField string // empty means valid
	}{
		{
			name:   "minimal valid record",
			record: TaskRecord{Name: "design", Duration: 3},
		},
		{
			name:   "valid with start and dependencies",
			record: TaskRecord{Name: "build", Start: "2026-09-01", Duration: 5, Dependencies: []string{"design"}},
		},
		{
			name:      "empty name",
			record:    TaskRecord{Name: "", Duration: 2},
			wantField: "name",
		},
		{
			name:      "zero duration",
			record:    TaskRecord{Name: "test", Duration: 0},
			wantField: "duration",
		},
		{
			name:      "negative duration",
			record:    TaskRecord{Name: "test", Duration: -4},
			wantField: "duration",
		},
		{
			name:      "empty dependency reference",
			record:    TaskRecord{Name: "ship", Duration: 1, Dependencies: []string{"build", ""}},
			wantField: "dependencies",
		},
		{
			name:      "self-referential dependency",
			record:    TaskRecord{Name: "ship", Duration: 1, Dependencies: []string{"ship"}},
			wantField: "dependencies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() returned %T, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestTaskRecord_ValidateDoesNotDetectCycles(t *testing.T) {
	// Cycles spanning multiple tasks are the service's job; local validation
	// only rejects direct self-reference.
	a := TaskRecord{Name: "a", Duration: 1, Dependencies: []string{"b"}}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil (cross-task cycles are service-side)", err)
	}
}

func TestProjectState_Task(t *testing.T) {
	state := ProjectState{
		ProjectID: "p1",
		Tasks: map[string]ScheduledTask{
			"t-1": {ID: "t-1", TaskRecord: TaskRecord{Name: "design", Duration: 3}},
			"t-2": {ID: "t-2", TaskRecord: TaskRecord{Name: "build", Duration: 5}},
		},
	}

	got, ok := state.Task("build")
	if !ok {
		t.Fatal("Task(build) not found")
	}
	if got.ID != "t-2" {
		t.Errorf("ID = %q, want t-2", got.ID)
	}

	if _, ok := state.Task("missing"); ok {
		t.Error("Task(missing) found, want not found")
	}
}

func TestTaskCreationResult_FlattensTaskFields(t *testing.T) {
	// The service echoes the created task's fields at the top level next to
	// the id: {id, name, start, duration, dependencies}.
	payload := `{"id":"t-9","name":"qa","duration":2,"dependencies":["build"]}`

	var res TaskCreationResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if res.ID != "t-9" {
		t.Errorf("ID = %q, want t-9", res.ID)
	}
	if res.Name != "qa" || res.Duration != 2 {
		t.Errorf("task fields = %q/%d, want qa/2", res.Name, res.Duration)
	}
	if len(res.Dependencies) != 1 || res.Dependencies[0] != "build" {
		t.Errorf("Dependencies = %v, want [build]", res.Dependencies)
	}
}
