package journal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	defaultListLimit = 20
	maxListLimit     = 200

	// Fixed width so started_at sorts lexically.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Run is one recorded planning request.
type Run struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Intent    string    `json:"intent,omitempty"`
	Status    string    `json:"status"`
	Created   int       `json:"created"`
	Failed    int       `json:"failed"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	ElapsedMs int64     `json:"elapsedMs"`
	Tasks     []Task    `json:"tasks,omitempty"`
}

// Task is the sync outcome of one planned task within a Run.
type Task struct {
	Position  int    `json:"position"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	TodoistID string `json:"todoistId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Record stores a run and its tasks in one transaction.
func (j *Journal) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := j.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record run: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, prompt, intent, status, created, failed, error, started_at, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Prompt, run.Intent, run.Status, run.Created, run.Failed, run.Error, formatTimestamp(run.StartedAt), run.ElapsedMs)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, t := range run.Tasks {
		_, err = tx.ExecContext(ctx, `
INSERT INTO run_tasks (run_id, position, title, status, todoist_id, error)
VALUES (?, ?, ?, ?, ?, ?)
`, run.ID, t.Position, t.Title, t.Status, t.TodoistID, t.Error)
		if err != nil {
			return fmt.Errorf("insert run task %d: %w", t.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs first, each with its tasks.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := j.conn.QueryContext(ctx, `
SELECT id, prompt, intent, status, created, failed, error, started_at, elapsed_ms
FROM runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var item Run
		var startedAtRaw string
		if err := rows.Scan(&item.ID, &item.Prompt, &item.Intent, &item.Status, &item.Created, &item.Failed, &item.Error, &startedAtRaw, &item.ElapsedMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if item.StartedAt, err = parseTimestamp(startedAtRaw); err != nil {
			return nil, err
		}
		runs = append(runs, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		tasks, err := j.listTasks(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Tasks = tasks
	}
	return runs, nil
}

func (j *Journal) listTasks(ctx context.Context, runID string) ([]Task, error) {
	rows, err := j.conn.QueryContext(ctx, `
SELECT position, title, status, todoist_id, error
FROM run_tasks
WHERE run_id = ?
ORDER BY position ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.Position, &t.Title, &t.Status, &t.TodoistID, &t.Error); err != nil {
			return nil, fmt.Errorf("scan run task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(timestampLayout)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}
