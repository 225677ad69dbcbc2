package planner

import (
	"fmt"
	"strings"

	"github.com/user/planstream/internal/metadata"
)

const (
	maxPromptProjects = 12
	maxPromptLabels   = 15
)

const planSystemPrompt = `You turn a request into tasks for a to-do app.
Return JSON only, matching the provided schema.
Titles are short imperative phrases. Descriptions are optional and brief.
Only use projects and labels from the lists below; otherwise leave them out.`

// GenerateInput carries everything the plan instruction is built from.
type GenerateInput struct {
	Request  Request
	Scenario Scenario
	Intent   IntentDecision
	Metadata metadata.Snapshot
	Hints    Hints
}

// BuildPlanPrompt renders the generation instruction.
func BuildPlanPrompt(in GenerateInput) string {
	var b strings.Builder
	req := in.Request

	fmt.Fprintf(&b, "Request: %s\n", req.Prompt)
	fmt.Fprintf(&b, "Intent: %s", in.Scenario.Intent)
	if in.Intent.Summary != "" {
		fmt.Fprintf(&b, " (%s)", in.Intent.Summary)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Create at most %d task(s).\n", in.Scenario.MaxTasks)
	if in.Scenario.Intent == IntentRecipePlan {
		fmt.Fprintf(&b, "Plan for %d day(s), two meals per day.\n", in.Scenario.Days)
		if len(in.Intent.Keywords) > 0 {
			fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(in.Intent.Keywords, ", "))
		}
	}

	b.WriteString("\nRules:\n")
	for _, d := range in.Scenario.Directives {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	b.WriteString("- Priority is numeric: P0 or P1 means 4, P2 means 3, P3 means 2, otherwise 1.\n")
	b.WriteString("- Use due.datetime for a specific time, due.date for a day, due.string for anything else.\n")

	b.WriteString("\nContext:\n")
	if req.Due != "" {
		fmt.Fprintf(&b, "- Due hint: %s\n", req.Due)
	}
	if req.Timezone != "" {
		fmt.Fprintf(&b, "- Timezone: %s\n", req.Timezone)
	}
	if req.Preferences != "" {
		fmt.Fprintf(&b, "- Preferences: %s\n", req.Preferences)
	}
	if len(req.Labels) > 0 {
		fmt.Fprintf(&b, "- Requested labels: %s\n", strings.Join(req.Labels, ", "))
	}
	if req.Priority > 0 {
		fmt.Fprintf(&b, "- Requested priority: %d\n", req.Priority)
	}
	if in.Hints.Project != nil {
		fmt.Fprintf(&b, "- The request mentions project %q (id %s)\n", in.Hints.Project.Name, in.Hints.Project.ID)
	}
	if len(in.Hints.Labels) > 0 {
		fmt.Fprintf(&b, "- The request mentions labels: %s\n", strings.Join(in.Hints.Labels, ", "))
	}
	if in.Hints.Priority > 0 {
		fmt.Fprintf(&b, "- The request carries priority %d\n", in.Hints.Priority)
	}

	b.WriteString("\nProjects:\n")
	writeProjects(&b, in.Metadata.Projects)
	b.WriteString("\nLabels:\n")
	writeLabels(&b, in.Metadata.Labels)
	return b.String()
}

func writeProjects(b *strings.Builder, projects []metadata.Project) {
	if len(projects) == 0 {
		b.WriteString("- (unavailable)\n")
		return
	}
	for i, p := range projects {
		if i == maxPromptProjects {
			break
		}
		inbox := ""
		if p.IsInbox {
			inbox = " [inbox]"
		}
		fmt.Fprintf(b, "- %s (id %s)%s\n", p.Name, p.ID, inbox)
	}
}

func writeLabels(b *strings.Builder, labels []metadata.Label) {
	if len(labels) == 0 {
		b.WriteString("- (unavailable)\n")
		return
	}
	for i, l := range labels {
		if i == maxPromptLabels {
			break
		}
		fmt.Fprintf(b, "- %s\n", l.Name)
	}
}
