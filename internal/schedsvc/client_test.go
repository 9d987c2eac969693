package schedsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/planpilot/planpilot/pkg/models"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("NewClient should fail without a base URL")
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "http://localhost:8990/"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:8990" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

func TestFetchState_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/export/p1" {
			t.Errorf("path = %s, want /export/p1", r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.ProjectState{
			ProjectID: "p1",
			Tasks: map[string]models.ScheduledTask{
				"t-1": {ID: "t-1", TaskRecord: models.TaskRecord{Name: "design", Duration: 3}},
			},
		})
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	state, err := client.FetchState(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchState failed: %v", err)
	}
	if state.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", state.ProjectID)
	}
	if len(state.Tasks) != 1 {
		t.Errorf("Tasks = %d entries, want 1", len(state.Tasks))
	}
}

func TestFetchState_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such project"}`))
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.FetchState(context.Background(), "ghost")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("error = %v, want kind %s", err, KindNotFound)
	}
}

func TestFetchState_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.FetchState(context.Background(), "p1")
	if !IsKind(err, KindMalformedResponse) {
		t.Fatalf("error = %v, want kind %s", err, KindMalformedResponse)
	}
}

func TestFetchState_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.FetchState(context.Background(), "p1")
	if !IsKind(err, KindServiceUnavailable) {
		t.Fatalf("error = %v, want kind %s", err, KindServiceUnavailable)
	}
}

func TestFetchState_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Refuse all connections.

	client := mustClient(t, srv.URL)
	_, err := client.FetchState(context.Background(), "p1")
	if !IsKind(err, KindServiceUnavailable) {
		t.Fatalf("error = %v, want kind %s", err, KindServiceUnavailable)
	}
}

func TestAddTask_LocalValidationSkipsService(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)

	bad := []models.TaskRecord{
		{Name: "x", Duration: 0},
		{Name: "x", Duration: -1},
		{Name: "", Duration: 5},
		{Name: "x", Duration: 5, Dependencies: []string{"x"}},
	}
	for _, record := range bad {
		_, err := client.AddTask(context.Background(), "p1", record)
		if !IsKind(err, KindInvalidTaskRecord) {
			t.Errorf("AddTask(%+v) error = %v, want kind %s", record, err, KindInvalidTaskRecord)
		}
	}
	if requests != 0 {
		t.Errorf("service received %d requests, want 0 (validation is local)", requests)
	}
}

func TestAddTask_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("path = %s, want /tasks", r.URL.Path)
		}
		var body struct {
			ProjectID string            `json:"projectId"`
			Task      models.TaskRecord `json:"task"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.ProjectID != "p1" {
			t.Errorf("projectId = %q, want p1", body.ProjectID)
		}
		if body.Task.Name != "qa" || body.Task.Duration != 2 {
			t.Errorf("task = %+v, want qa/2", body.Task)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "t-42", "name": body.Task.Name, "duration": body.Task.Duration,
		})
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	res, err := client.AddTask(context.Background(), "p1", models.TaskRecord{Name: "qa", Duration: 2})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if res.ID != "t-42" {
		t.Errorf("ID = %q, want t-42", res.ID)
	}
}

func TestAddTask_RejectedCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"dependency cycle: a -> b -> a"}`))
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.AddTask(context.Background(), "p1", models.TaskRecord{Name: "a", Duration: 1, Dependencies: []string{"b"}})
	if !IsKind(err, KindRejected) {
		t.Fatalf("error = %v, want kind %s", err, KindRejected)
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Message != "dependency cycle: a -> b -> a" {
		t.Errorf("Message = %v, want the extracted service detail", err)
	}
}

func TestAddTask_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"qa","duration":2}`))
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.AddTask(context.Background(), "p1", models.TaskRecord{Name: "qa", Duration: 2})
	if !IsKind(err, KindMalformedResponse) {
		t.Fatalf("error = %v, want kind %s", err, KindMalformedResponse)
	}
}

func TestRecomputeSchedule_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run" {
			t.Errorf("path = %s, want /run", r.URL.Path)
		}
		var body struct {
			ProjectID string `json:"projectId"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.ProjectID != "p1" {
			t.Errorf("projectId = %q, want p1", body.ProjectID)
		}
		json.NewEncoder(w).Encode(models.ProjectState{
			ProjectID: "p1",
			Tasks: map[string]models.ScheduledTask{
				"t-1": {
					ID:            "t-1",
					TaskRecord:    models.TaskRecord{Name: "design", Duration: 3},
					ComputedStart: "2026-09-01",
					ComputedEnd:   "2026-09-03",
				},
			},
		})
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	state, err := client.RecomputeSchedule(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RecomputeSchedule failed: %v", err)
	}
	task, ok := state.Task("design")
	if !ok {
		t.Fatal("recomputed state missing task design")
	}
	if task.ComputedEnd != "2026-09-03" {
		t.Errorf("ComputedEnd = %q, want 2026-09-03", task.ComputedEnd)
	}
}

func TestRecomputeSchedule_RejectedCyclicGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"graph is cyclic"}`))
	}))
	defer srv.Close()

	client := mustClient(t, srv.URL)
	_, err := client.RecomputeSchedule(context.Background(), "p1")
	if !IsKind(err, KindRejected) {
		t.Fatalf("error = %v, want kind %s", err, KindRejected)
	}
}

func TestErrorMessage_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"boom"}`, "boom"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"plain text", `service exploded`, "service exploded"},
		{"empty body", ``, "no error detail provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func mustClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}
