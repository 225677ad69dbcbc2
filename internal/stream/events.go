package stream

import "github.com/user/planstream/internal/planner"

const (
	TypeStatus = "status"
	TypePlan   = "ai.plan"
	TypeTask   = "todoist.task"
	TypeFinal  = "final"
	TypeError  = "error"

	debugPrefix = "debug."
)

// Event is one line of the stream. The emitter stamps the header.
type Event interface {
	header() *Header
	eventType() string
}

// Header is embedded by every event.
type Header struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

func (h *Header) header() *Header { return h }

type Status struct {
	Header
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (*Status) eventType() string { return TypeStatus }

type Plan struct {
	Header
	Summary string                   `json:"summary,omitempty"`
	Tasks   []planner.NormalizedTask `json:"tasks"`
	Intent  planner.Intent           `json:"intent"`
}

func (*Plan) eventType() string { return TypePlan }

// Task reports one status transition of one task.
type Task struct {
	Header
	Index     int                    `json:"index"`
	Status    string                 `json:"status"`
	Task      planner.NormalizedTask `json:"task"`
	TodoistID string                 `json:"todoistId,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func (*Task) eventType() string { return TypeTask }

const TaskPending = "pending"

type Final struct {
	Header
	Created   int                  `json:"created"`
	Failed    int                  `json:"failed"`
	Tasks     []planner.SyncResult `json:"tasks"`
	ElapsedMs int64                `json:"elapsedMs"`
}

func (*Final) eventType() string { return TypeFinal }

type Error struct {
	Header
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (*Error) eventType() string { return TypeError }

// Debug carries a diagnostic payload under "debug.<Name>".
type Debug struct {
	Header
	Name    string `json:"-"`
	Payload any    `json:"payload"`
}

func (d *Debug) eventType() string { return debugPrefix + d.Name }

func isTerminal(ev Event) bool {
	switch ev.eventType() {
	case TypeFinal, TypeError:
		return true
	}
	return false
}
