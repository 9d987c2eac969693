// Package schedsvc is the HTTP client for the remote project-scheduling
// service. It exposes the service's three operations as plain
// request/response calls: no retries, no caching — the orchestration loop's
// re-reasoning is the recovery mechanism.
package schedsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/planpilot/planpilot/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Client talks to the scheduling service over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// BaseURL is the service address, e.g. "http://localhost:8990". Required.
	BaseURL string
	// Timeout applies per call. Defaults to 30s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (used by tests).
	HTTPClient *http.Client
}

// NewClient creates a scheduling service client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("scheduling service base URL is not configured")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid service base URL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// FetchState reads the current project state. No side effects.
func (c *Client) FetchState(ctx context.Context, projectID string) (*models.ProjectState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/export/"+url.PathEscape(projectID), nil)
	if err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Err: err}
	}

	body, err := c.do(req, projectID)
	if err != nil {
		return nil, err
	}

	state := &models.ProjectState{}
	if err := json.Unmarshal(body, state); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "project state payload is not decodable", Err: err}
	}
	if state.ProjectID == "" {
		state.ProjectID = projectID
	}
	return state, nil
}

// AddTask validates the record locally, then creates it in the remote
// project. Local validation failure returns an invalid-record error without
// contacting the service.
func (c *Client) AddTask(ctx context.Context, projectID string, record models.TaskRecord) (*models.TaskCreationResult, error) {
	if err := record.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidTaskRecord, Message: err.Error(), Err: err}
	}

	payload, err := json.Marshal(struct {
		ProjectID string            `json:"projectId"`
		Task      models.TaskRecord `json:"task"`
	}{ProjectID: projectID, Task: record})
	if err != nil {
		return nil, &Error{Kind: KindInvalidTaskRecord, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, projectID)
	if err != nil {
		return nil, err
	}

	result := &models.TaskCreationResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "task creation payload is not decodable", Err: err}
	}
	if result.ID == "" {
		return nil, &Error{Kind: KindMalformedResponse, Message: "task creation response is missing an id"}
	}
	return result, nil
}

// RecomputeSchedule asks the service to recalculate all task dates and
// returns the full recomputed project state. This is the only operation
// that produces authoritative computed dates.
func (c *Client) RecomputeSchedule(ctx context.Context, projectID string) (*models.ProjectState, error) {
	payload, _ := json.Marshal(struct {
		ProjectID string `json:"projectId"`
	}{ProjectID: projectID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, projectID)
	if err != nil {
		return nil, err
	}

	state := &models.ProjectState{}
	if err := json.Unmarshal(body, state); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "recomputed state payload is not decodable", Err: err}
	}
	if state.ProjectID == "" {
		state.ProjectID = projectID
	}
	return state, nil
}

// do executes the request and maps transport failures and non-2xx statuses
// onto the error taxonomy. It returns the raw response body on success.
func (c *Client) do(req *http.Request, projectID string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("project %q: %s", projectID, errorMessage(body))}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &Error{Kind: KindRejected, Message: errorMessage(body)}
	default:
		return nil, &Error{Kind: KindServiceUnavailable, Message: fmt.Sprintf("service returned %d: %s", resp.StatusCode, errorMessage(body))}
	}
}

// errorMessage pulls a human-readable message out of an error payload.
// The service is loose about the shape: {"error": "..."} and
// {"message": "..."} both occur in the wild.
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "no error detail provided"
	}
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
