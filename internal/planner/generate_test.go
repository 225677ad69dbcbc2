package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/planstream/internal/metadata"
)

func TestGenerateTruncates(t *testing.T) {
	gen := &fakeGenerator{responses: map[string]string{
		"plan": `{"summary":" Week ","tasks":[{"title":"a"},{"title":"b"},{"title":"c"}]}`,
	}}
	plan, err := Generate(context.Background(), gen, GenerateInput{
		Request:  Request{Prompt: "plan my week"},
		Scenario: Scenario{Intent: IntentGeneralPlan, MaxTasks: 2, Temperature: 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Week", plan.Summary)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, "b", plan.Tasks[1].Title)
	assert.Equal(t, 0.2, gen.calls[0].Temperature)
}

func TestGenerateFailures(t *testing.T) {
	cases := map[string]string{
		"no tasks":      `{"tasks":[]}`,
		"blank title":   `{"tasks":[{"title":"  "}]}`,
		"too many tags": `{"tasks":[{"title":"a","labels":["1","2","3","4","5","6"]}]}`,
		"garbage":       `sorry, I cannot help`,
		"wrong shape":   `{"tasks":"a"}`,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{responses: map[string]string{"plan": resp}}
			_, err := Generate(context.Background(), gen, GenerateInput{Scenario: Scenario{MaxTasks: 5}})
			var genErr *GenerationError
			require.True(t, errors.As(err, &genErr), "err=%v", err)
			assert.Equal(t, "plan", genErr.Stage)
		})
	}
}

func TestGenerateModelError(t *testing.T) {
	boom := errors.New("boom")
	gen := &fakeGenerator{errs: map[string]error{"plan": boom}}
	_, err := Generate(context.Background(), gen, GenerateInput{Scenario: Scenario{MaxTasks: 1}})
	assert.ErrorIs(t, err, boom)
}

func TestBuildPlanPromptCapsCatalogs(t *testing.T) {
	var snap metadata.Snapshot
	for i := 0; i < 20; i++ {
		snap.Projects = append(snap.Projects, metadata.Project{ID: fmt.Sprint(i), Name: fmt.Sprintf("project-%02d", i)})
		snap.Labels = append(snap.Labels, metadata.Label{ID: fmt.Sprint(i), Name: fmt.Sprintf("label-%02d", i)})
	}
	prompt := BuildPlanPrompt(GenerateInput{
		Request:  Request{Prompt: "tidy up", Due: "friday", Timezone: "Europe/Berlin"},
		Scenario: SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{}),
		Metadata: snap,
		Hints:    Hints{Priority: 3},
	})
	assert.Contains(t, prompt, "project-11")
	assert.NotContains(t, prompt, "project-12")
	assert.Contains(t, prompt, "label-14")
	assert.NotContains(t, prompt, "label-15")
	assert.Contains(t, prompt, "Europe/Berlin")
	assert.Contains(t, prompt, "P0 or P1 means 4")
	assert.Equal(t, 1, strings.Count(prompt, "Due hint: friday"))
}

func TestBuildPlanPromptWithoutMetadata(t *testing.T) {
	prompt := BuildPlanPrompt(GenerateInput{
		Request:  Request{Prompt: "Call the dentist"},
		Scenario: SelectScenario(IntentDecision{Intent: IntentSingleReminder}, Request{}),
	})
	assert.Contains(t, prompt, "Create at most 1 task(s).")
	assert.Equal(t, 2, strings.Count(prompt, "(unavailable)"))
}
