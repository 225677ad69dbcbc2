package planner

import (
	"math"
	"strings"

	"github.com/user/planstream/internal/metadata"
)

// Normalize resolves a generated task against the request, the discovered
// metadata and the prompt hints.
func Normalize(task PlannedTask, req Request, snap metadata.Snapshot, hints Hints) NormalizedTask {
	return NormalizedTask{
		Title:       strings.TrimSpace(task.Title),
		Description: strings.TrimSpace(task.Description),
		Priority:    resolvePriority(task, req, hints),
		Labels:      resolveLabels(task, req, snap, hints),
		Due:         resolveDue(task.Due, req.Due),
		Project:     resolveProject(task, snap, hints),
	}
}

// NormalizeAll normalizes every task of a plan in order.
func NormalizeAll(plan Plan, req Request, snap metadata.Snapshot, hints Hints) []NormalizedTask {
	out := make([]NormalizedTask, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		out = append(out, Normalize(t, req, snap, hints))
	}
	return out
}

func resolvePriority(task PlannedTask, req Request, hints Hints) int {
	var p float64
	switch {
	case task.Priority != nil:
		p = *task.Priority
	case hints.Priority > 0:
		p = float64(hints.Priority)
	case req.Priority > 0:
		p = float64(req.Priority)
	default:
		return 0
	}
	if math.IsNaN(p) {
		return 0
	}
	return clampInt(int(math.Round(math.Max(-100, math.Min(100, p)))), 1, 4)
}

func resolveLabels(task PlannedTask, req Request, snap metadata.Snapshot, hints Hints) []string {
	source := hints.Labels
	switch {
	case len(task.Labels) > 0:
		source = task.Labels
	case len(req.Labels) > 0:
		source = req.Labels
	}
	return NormalizeLabels(source, snap)
}

// NormalizeLabels trims, restores catalog casing and dedupes case-insensitively,
// keeping the first-seen spelling. The result holds at most MaxLabels entries
// and is nil when empty.
func NormalizeLabels(labels []string, snap metadata.Snapshot) []string {
	var out []string
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if canonical, ok := snap.LabelName(l); ok {
			l = canonical
		}
		key := strings.ToLower(l)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
		if len(out) == MaxLabels {
			break
		}
	}
	return out
}

func resolveDue(due *Due, fallback string) *Due {
	if !due.empty() {
		switch {
		case strings.TrimSpace(due.Datetime) != "":
			return &Due{Datetime: strings.TrimSpace(due.Datetime)}
		case strings.TrimSpace(due.Date) != "":
			return &Due{Date: strings.TrimSpace(due.Date)}
		default:
			return &Due{String: strings.TrimSpace(due.String)}
		}
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return &Due{String: fallback}
	}
	return nil
}

func resolveProject(task PlannedTask, snap metadata.Snapshot, hints Hints) *ProjectRef {
	if id := strings.TrimSpace(task.ProjectID); id != "" {
		if p, ok := snap.ProjectByID(id); ok {
			return &ProjectRef{ID: p.ID, Name: p.Name}
		}
		return &ProjectRef{ID: id, Name: id}
	}
	if name := strings.TrimSpace(task.Project); name != "" {
		if p, ok := snap.ProjectByName(name); ok {
			return &ProjectRef{ID: p.ID, Name: p.Name}
		}
		return &ProjectRef{Name: name}
	}
	if hints.Project != nil {
		return &ProjectRef{ID: hints.Project.ID, Name: hints.Project.Name}
	}
	return nil
}
