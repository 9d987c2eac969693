package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planpilot/planpilot/pkg/models"
)

// RunSummary is the lightweight listing row for archived runs.
type RunSummary struct {
	RunID      string
	ProjectID  string
	Request    string
	Status     models.RunStatus
	Iterations int
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveRun archives a finished run. The trace and final project state are
// stored as JSON blobs.
func (db *DB) SaveRun(result *models.RunResult) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	traceJSON, err := json.Marshal(result.Trace)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}

	var stateJSON sql.NullString
	if result.State != nil {
		encoded, err := json.Marshal(result.State)
		if err != nil {
			return fmt.Errorf("encode project state: %w", err)
		}
		stateJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err = db.conn.Exec(`
INSERT INTO runs (run_id, project_id, request, status, final_answer,
	iterations, tokens_in, tokens_out, trace_json, state_json,
	started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.ProjectID, result.Request, string(result.Status),
		result.FinalAnswer, result.Iterations, result.TokensIn, result.TokensOut,
		string(traceJSON), stateJSON, result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", result.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-empty projectID
// filters to one project; limit <= 0 means no limit.
func (db *DB) ListRuns(projectID string, limit int) ([]RunSummary, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
SELECT run_id, project_id, request, status, iterations, started_at, finished_at
FROM runs`
	var args []interface{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var status string
		if err := rows.Scan(&s.RunID, &s.ProjectID, &s.Request, &status,
			&s.Iterations, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		s.Status = models.RunStatus(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetRun loads one archived run in full, including its trace and project
// state. Returns sql.ErrNoRows when the run id is unknown.
func (db *DB) GetRun(runID string) (*models.RunResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
SELECT run_id, project_id, request, status, final_answer,
	iterations, tokens_in, tokens_out, trace_json, state_json,
	started_at, finished_at
FROM runs WHERE run_id = ?`, runID)

	var result models.RunResult
	var status, traceJSON string
	var stateJSON sql.NullString
	if err := row.Scan(&result.RunID, &result.ProjectID, &result.Request, &status,
		&result.FinalAnswer, &result.Iterations, &result.TokensIn, &result.TokensOut,
		&traceJSON, &stateJSON, &result.StartedAt, &result.FinishedAt); err != nil {
		return nil, err
	}
	result.Status = models.RunStatus(status)

	if err := json.Unmarshal([]byte(traceJSON), &result.Trace); err != nil {
		return nil, fmt.Errorf("decode trace for run %s: %w", runID, err)
	}
	if stateJSON.Valid {
		result.State = &models.ProjectState{}
		if err := json.Unmarshal([]byte(stateJSON.String), result.State); err != nil {
			return nil, fmt.Errorf("decode project state for run %s: %w", runID, err)
		}
	}
	return &result, nil
}
