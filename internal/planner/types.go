package planner

import (
	"strings"
)

const (
	DefaultMaxTasks = 5
	MaxTasksLimit   = 10
	MaxLabels       = 5
)

// Request is the caller's planning request. It is not modified after
// validation.
type Request struct {
	Prompt      string   `json:"prompt"`
	Timezone    string   `json:"timezone,omitempty"`
	Due         string   `json:"due,omitempty"`
	Preferences string   `json:"preferences,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	MaxTasks    int      `json:"maxTasks,omitempty"`
}

// Validate rejects malformed requests before any streaming starts.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "prompt is required"}
	}
	if len(r.Labels) > MaxLabels {
		return &ValidationError{Field: "labels", Message: "at most 5 labels are allowed"}
	}
	if r.Priority != 0 && (r.Priority < 1 || r.Priority > 4) {
		return &ValidationError{Field: "priority", Message: "priority must be between 1 and 4"}
	}
	if r.MaxTasks != 0 && (r.MaxTasks < 1 || r.MaxTasks > MaxTasksLimit) {
		return &ValidationError{Field: "maxTasks", Message: "maxTasks must be between 1 and 10"}
	}
	return nil
}

// WithDefaults returns a copy with defaults applied.
func (r Request) WithDefaults() Request {
	out := r
	out.Prompt = strings.TrimSpace(r.Prompt)
	if out.MaxTasks == 0 {
		out.MaxTasks = DefaultMaxTasks
	}
	if len(r.Labels) > 0 {
		out.Labels = append([]string(nil), r.Labels...)
	}
	return out
}

type Intent string

const (
	IntentSingleReminder Intent = "single_reminder"
	IntentMultiStepPlan  Intent = "multi_step_plan"
	IntentRecipePlan     Intent = "recipe_plan"
	IntentGeneralPlan    Intent = "general_plan"
)

var Intents = []Intent{IntentSingleReminder, IntentMultiStepPlan, IntentRecipePlan, IntentGeneralPlan}

func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// IntentDecision is the classifier output.
type IntentDecision struct {
	Intent   Intent   `json:"intent"`
	Summary  string   `json:"summary,omitempty"`
	Days     int      `json:"days,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Scenario is the generation configuration derived from an intent.
type Scenario struct {
	Intent      Intent   `json:"intent"`
	MaxTasks    int      `json:"maxTasks"`
	Days        int      `json:"days,omitempty"`
	Directives  []string `json:"directives"`
	Temperature float64  `json:"temperature"`
}

// Due holds at most one due representation.
type Due struct {
	String   string `json:"string,omitempty"`
	Date     string `json:"date,omitempty"`
	Datetime string `json:"datetime,omitempty"`
}

func (d *Due) empty() bool {
	return d == nil || (strings.TrimSpace(d.String) == "" && strings.TrimSpace(d.Date) == "" && strings.TrimSpace(d.Datetime) == "")
}

// PlannedTask is a task as generated, before normalization.
type PlannedTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    *float64 `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	ProjectID   string   `json:"projectId,omitempty"`
	Project     string   `json:"project,omitempty"`
	Due         *Due     `json:"due,omitempty"`
}

// Plan is the validated model output.
type Plan struct {
	Summary string        `json:"summary,omitempty"`
	Tasks   []PlannedTask `json:"tasks"`
}

type ProjectRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// NormalizedTask is a planned task resolved against request, hints and metadata.
type NormalizedTask struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Priority    int         `json:"priority,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
	Due         *Due        `json:"due,omitempty"`
	Project     *ProjectRef `json:"project,omitempty"`
}

type SyncStatus string

const (
	StatusCreated SyncStatus = "created"
	StatusFailed  SyncStatus = "failed"
)

// SyncResult is the outcome of creating one task.
type SyncResult struct {
	Planned   NormalizedTask `json:"planned"`
	Status    SyncStatus     `json:"status"`
	TodoistID string         `json:"todoistId,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// CountResults returns the created and failed totals.
func CountResults(results []SyncResult) (created, failed int) {
	for _, r := range results {
		if r.Status == StatusCreated {
			created++
		} else {
			failed++
		}
	}
	return created, failed
}
