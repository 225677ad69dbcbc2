package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/user/planstream/internal/metadata"
	"github.com/user/planstream/internal/planner"
	"github.com/user/planstream/internal/stream"
	"github.com/user/planstream/internal/tools"
)

const canceledBeforeDispatch = "request canceled before dispatch"

var createdIDKeys = []string{"id", "taskId", "task_id", "todoistId"}

// Sync creates tasks one at a time, in order. A failing task is recorded and
// the loop moves on; only a missing creation tool aborts the whole sync.
func Sync(ctx context.Context, caller metadata.Caller, catalog []tools.Descriptor, tasks []planner.NormalizedTask, em *stream.Emitter, limiter *rate.Limiter) ([]planner.SyncResult, error) {
	tool, err := tools.ResolveCreateTool(catalog)
	if err != nil {
		return nil, &planner.ConfigurationError{Message: "cannot sync tasks", Err: err}
	}

	results := make([]planner.SyncResult, 0, len(tasks))
	for i, task := range tasks {
		send(em, &stream.Task{Index: i, Status: stream.TaskPending, Task: task})

		res := syncOne(ctx, caller, tool, task, limiter)
		results = append(results, res)
		send(em, &stream.Task{Index: i, Status: string(res.Status), Task: task, TodoistID: res.TodoistID, Error: res.Error})
	}
	return results, nil
}

func syncOne(ctx context.Context, caller metadata.Caller, tool tools.CreateTool, task planner.NormalizedTask, limiter *rate.Limiter) planner.SyncResult {
	if ctx.Err() != nil {
		return failed(task, canceledBeforeDispatch)
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return failed(task, canceledBeforeDispatch)
		}
	}

	// Once dispatched the call runs to completion even if the caller leaves.
	res, err := caller.CallTool(context.WithoutCancel(ctx), tool.Name, BuildArgs(task, tool))
	if err != nil {
		callErr := &planner.ExternalCallError{Tool: tool.Name, Err: err}
		slog.Warn("task creation failed", "title", task.Title, "error", callErr)
		return failed(task, err.Error())
	}
	if res.IsError {
		msg := strings.TrimSpace(res.Text())
		if msg == "" {
			msg = "tool reported an error"
		}
		slog.Warn("task creation rejected", "tool", tool.Name, "title", task.Title, "error", msg)
		return failed(task, msg)
	}
	return planner.SyncResult{Planned: task, Status: planner.StatusCreated, TodoistID: CreatedID(res)}
}

func failed(task planner.NormalizedTask, msg string) planner.SyncResult {
	return planner.SyncResult{Planned: task, Status: planner.StatusFailed, Error: msg}
}

// BuildArgs renders the creation arguments for the resolved tool. Bulk tools
// take p1..p4 priorities, camel-case due keys and a {"tasks": [...]} wrapper.
func BuildArgs(task planner.NormalizedTask, tool tools.CreateTool) map[string]any {
	args := map[string]any{"content": task.Title}
	if task.Description != "" {
		args["description"] = task.Description
	}
	if len(task.Labels) > 0 {
		args["labels"] = append([]string(nil), task.Labels...)
	}
	if task.Project != nil && task.Project.ID != "" {
		args["projectId"] = task.Project.ID
		args["project_id"] = task.Project.ID
	}
	if task.Priority > 0 {
		if tool.Bulk {
			args["priority"] = "p" + strconv.Itoa(5-task.Priority)
		} else {
			args["priority"] = task.Priority
		}
	}
	if task.Due != nil {
		keys := [3]string{"due_datetime", "due_date", "due_string"}
		if tool.Bulk {
			keys = [3]string{"dueDatetime", "dueDate", "dueString"}
		}
		switch {
		case task.Due.Datetime != "":
			args[keys[0]] = task.Due.Datetime
		case task.Due.Date != "":
			args[keys[1]] = task.Due.Date
		case task.Due.String != "":
			args[keys[2]] = task.Due.String
		}
	}
	if tool.Bulk {
		return map[string]any{"tasks": []any{args}}
	}
	return args
}

// CreatedID finds the created task's identifier in a tool result, falling back
// to the raw text.
func CreatedID(res tools.Result) string {
	payload, ok := tools.Payload(res)
	if !ok {
		return ""
	}
	if obj, ok := payload.(map[string]any); ok {
		if id := tools.StringField(obj, createdIDKeys...); id != "" {
			return id
		}
		if nested, ok := obj["task"].(map[string]any); ok {
			if id := tools.StringField(nested, createdIDKeys...); id != "" {
				return id
			}
		}
	}
	if s, ok := payload.(string); ok {
		return s
	}
	if items := tools.Objects(tools.ExtractArray(payload, []string{"tasks"})); len(items) > 0 {
		if id := tools.StringField(items[0], createdIDKeys...); id != "" {
			return id
		}
	}
	return strings.TrimSpace(res.Text())
}

func send(em *stream.Emitter, ev stream.Event) {
	if em == nil {
		return
	}
	if err := em.Send(ev); err != nil && !errors.Is(err, stream.ErrClosed) {
		slog.Debug("event dropped", "error", err)
	}
}
