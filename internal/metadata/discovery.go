package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/planstream/internal/tools"
)

// Project is a task-service project as discovered for one request.
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsInbox bool   `json:"isInbox"`
}

// Label is a task-service label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the per-request catalog of projects and labels. Empty slices
// mean the metadata was unavailable.
type Snapshot struct {
	Projects []Project `json:"projects"`
	Labels   []Label   `json:"labels"`
}

// Caller invokes one tool on the external connection.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

var inboxFlagKeys = []string{"isInbox", "is_inbox", "inboxProject", "inbox_project", "is_inbox_project"}

// Discover lists projects and labels concurrently. Either half degrades to an
// empty list when its tool is missing or its call fails.
func Discover(ctx context.Context, caller Caller, catalog []tools.Descriptor) Snapshot {
	snap := Snapshot{Projects: []Project{}, Labels: []Label{}}

	var g errgroup.Group
	if inv, ok := tools.Resolve(catalog, tools.ProjectAliases); ok {
		g.Go(func() error {
			items, err := listItems(ctx, caller, inv)
			if err != nil {
				slog.Warn("project discovery failed", "tool", inv.Tool.Name, "error", err)
				return nil
			}
			snap.Projects = parseProjects(items)
			return nil
		})
	} else {
		slog.Debug("no project listing tool in catalog")
	}
	if inv, ok := tools.Resolve(catalog, tools.LabelAliases); ok {
		g.Go(func() error {
			items, err := listItems(ctx, caller, inv)
			if err != nil {
				slog.Warn("label discovery failed", "tool", inv.Tool.Name, "error", err)
				return nil
			}
			snap.Labels = parseLabels(items)
			return nil
		})
	} else {
		slog.Debug("no label listing tool in catalog")
	}
	_ = g.Wait()
	return snap
}

func listItems(ctx context.Context, caller Caller, inv tools.Invocation) ([]map[string]any, error) {
	res, err := caller.CallTool(ctx, inv.Tool.Name, inv.Args)
	if err != nil {
		return nil, err
	}
	if res.IsError {
		return nil, fmt.Errorf("tool reported error: %s", strings.TrimSpace(res.Text()))
	}
	payload, ok := tools.Payload(res)
	if !ok {
		return nil, nil
	}
	return tools.Objects(tools.ExtractArray(payload, inv.ResponseKeys)), nil
}

func parseProjects(items []map[string]any) []Project {
	out := make([]Project, 0, len(items))
	for _, item := range items {
		name := tools.StringField(item, "name")
		if name == "" {
			continue
		}
		out = append(out, Project{
			ID:      tools.StringField(item, "id", "project_id", "projectId"),
			Name:    name,
			IsInbox: isInbox(item, name),
		})
	}
	return out
}

func parseLabels(items []map[string]any) []Label {
	out := make([]Label, 0, len(items))
	for _, item := range items {
		name := tools.StringField(item, "name")
		if name == "" {
			continue
		}
		out = append(out, Label{ID: tools.StringField(item, "id", "label_id", "labelId"), Name: name})
	}
	return out
}

func isInbox(item map[string]any, name string) bool {
	for _, key := range inboxFlagKeys {
		if b, ok := item[key].(bool); ok && b {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(name), "inbox")
}

// InferProject returns the first non-inbox project named in the prompt.
func InferProject(prompt string, snap Snapshot) (Project, bool) {
	lower := strings.ToLower(prompt)
	for _, p := range snap.Projects {
		if p.IsInbox {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name != "" && strings.Contains(lower, name) {
			return p, true
		}
	}
	return Project{}, false
}

// InferLabels returns every label named in the prompt, in catalog order.
func InferLabels(prompt string, snap Snapshot) []string {
	lower := strings.ToLower(prompt)
	var out []string
	for _, l := range snap.Labels {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		if name != "" && strings.Contains(lower, name) {
			out = append(out, l.Name)
		}
	}
	return out
}

// ProjectByID looks a project up by id.
func (s Snapshot) ProjectByID(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID != "" && p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// ProjectByName matches a project name case-insensitively.
func (s Snapshot) ProjectByName(name string) (Project, bool) {
	name = strings.TrimSpace(name)
	for _, p := range s.Projects {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Project{}, false
}

// LabelName returns the catalog casing of a label, if known.
func (s Snapshot) LabelName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, l := range s.Labels {
		if strings.EqualFold(l.Name, name) {
			return l.Name, true
		}
	}
	return "", false
}
