package state

import (
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Record persists one finished execution trace. It satisfies the engine's
// trace sink interface.
func (db *DB) Record(trace *models.ExecutionTrace) error {
	_, err := db.Exec(`
		INSERT INTO traces (worker_name, task_id, status, started_at, ended_at, tokens_used, cost, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trace.WorkerName,
		trace.TaskID,
		string(trace.Status),
		formatTime(trace.StartTime),
		formatTime(trace.EndTime),
		trace.TokensUsed,
		trace.Cost,
		nullableString(trace.Error),
	)
	if err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}
	return nil
}

// TracesForTask returns all persisted traces for a task, oldest first.
func (db *DB) TracesForTask(taskID string) ([]*models.ExecutionTrace, error) {
	rows, err := db.Query(`
		SELECT worker_name, task_id, status, started_at, ended_at, tokens_used, cost, error
		FROM traces WHERE task_id = ? ORDER BY id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

// RecentTraces returns the most recent traces, newest first.
func (db *DB) RecentTraces(limit int) ([]*models.ExecutionTrace, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT worker_name, task_id, status, started_at, ended_at, tokens_used, cost, error
		FROM traces ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent traces: %w", err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

// TraceCount returns the number of persisted traces.
func (db *DB) TraceCount() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM traces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return count, nil
}

func scanTraces(rows *sql.Rows) ([]*models.ExecutionTrace, error) {
	var traces []*models.ExecutionTrace
	for rows.Next() {
		var (
			trace      models.ExecutionTrace
			status     string
			start, end string
			errStr     sql.NullString
		)
		if err := rows.Scan(&trace.WorkerName, &trace.TaskID, &status, &start, &end, &trace.TokensUsed, &trace.Cost, &errStr); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		trace.Status = models.TaskStatus(status)
		if t, err := parseTime(start); err == nil {
			trace.StartTime = t
		}
		if t, err := parseTime(end); err == nil {
			trace.EndTime = t
		}
		if errStr.Valid {
			trace.Error = errStr.String
		}
		traces = append(traces, &trace)
	}
	return traces, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
