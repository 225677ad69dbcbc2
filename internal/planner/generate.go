package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/planstream/internal/jsontext"
	"github.com/user/planstream/internal/llm"
)

func planSchema() *llm.Schema {
	due := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"string":   {Type: llm.TypeString},
			"date":     {Type: llm.TypeString, Description: "YYYY-MM-DD"},
			"datetime": {Type: llm.TypeString, Description: "RFC 3339"},
		},
	}
	task := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":       {Type: llm.TypeString},
			"description": {Type: llm.TypeString},
			"priority":    {Type: llm.TypeInteger, Minimum: llm.Float(1), Maximum: llm.Float(4)},
			"labels":      {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, MaxItems: llm.Int(MaxLabels)},
			"projectId":   {Type: llm.TypeString},
			"project":     {Type: llm.TypeString},
			"due":         due,
		},
		Required: []string{"title"},
	}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"summary": {Type: llm.TypeString},
			"tasks":   {Type: llm.TypeArray, Items: task, MinItems: llm.Int(1)},
		},
		Required: []string{"tasks"},
	}
}

// Generate produces the plan for a classified request. Any failure is
// fatal for the request and comes back as a *GenerationError.
func Generate(ctx context.Context, gen llm.Generator, in GenerateInput) (Plan, error) {
	raw, err := gen.GenerateJSON(ctx, llm.Request{
		Name:        "plan",
		System:      planSystemPrompt,
		Prompt:      BuildPlanPrompt(in),
		Schema:      planSchema(),
		Temperature: in.Scenario.Temperature,
	})
	if err != nil {
		return Plan{}, &GenerationError{Stage: "plan", Err: err}
	}

	var plan Plan
	if err := jsontext.Decode(string(raw), &plan); err != nil {
		return Plan{}, &GenerationError{Stage: "plan", Err: fmt.Errorf("decode plan: %w", err)}
	}
	if err := validatePlan(plan); err != nil {
		return Plan{}, &GenerationError{Stage: "plan", Err: err}
	}

	limit := in.Scenario.MaxTasks
	if limit > 0 && len(plan.Tasks) > limit {
		plan.Tasks = plan.Tasks[:limit]
	}
	if len(plan.Tasks) == 0 {
		return Plan{}, &GenerationError{Stage: "plan", Err: errors.New("no tasks after truncation")}
	}
	plan.Summary = strings.TrimSpace(plan.Summary)
	return plan, nil
}

func validatePlan(plan Plan) error {
	if len(plan.Tasks) == 0 {
		return errors.New("plan has no tasks")
	}
	for i, t := range plan.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("task %d: title is required", i)
		}
		if len(t.Labels) > MaxLabels {
			return fmt.Errorf("task %d: at most %d labels", i, MaxLabels)
		}
	}
	return nil
}
