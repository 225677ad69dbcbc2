package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	gen := &fakeGenerator{responses: map[string]string{
		"intent": "```json\n{\"intent\":\"recipe_plan\",\"summary\":\"Dinners\",\"days\":4,\"keywords\":[\"salmon\",\" \",\"rice\"]}\n```",
	}}
	got := Classify(context.Background(), gen, Request{Prompt: "I have salmon and rice, plan 4 dinners"})
	assert.Equal(t, IntentDecision{Intent: IntentRecipePlan, Summary: "Dinners", Days: 4, Keywords: []string{"salmon", "rice"}}, got)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, intentTemperature, gen.calls[0].Temperature)
	assert.Contains(t, gen.calls[0].Prompt, "plan 4 dinners")
	assert.Equal(t, []string{"days", "intent", "keywords", "summary"}, gen.calls[0].Schema.PropertyNames())
}

func TestClassifyFallback(t *testing.T) {
	cases := map[string]string{
		"unknown intent": `{"intent":"shopping"}`,
		"days too high":  `{"intent":"recipe_plan","days":9}`,
		"days zero":      `{"intent":"recipe_plan","days":0}`,
		"fractional day": `{"intent":"recipe_plan","days":2.5}`,
		"many keywords":  `{"intent":"general_plan","keywords":["a","b","c","d","e","f","g","h","i","j","k"]}`,
		"not json":       `I think this is a reminder`,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{responses: map[string]string{"intent": resp}}
			got := Classify(context.Background(), gen, Request{Prompt: "x"})
			assert.Equal(t, fallbackDecision, got)
		})
	}
}

func TestClassifyGeneratorError(t *testing.T) {
	gen := &fakeGenerator{errs: map[string]error{"intent": errors.New("quota exceeded")}}
	got := Classify(context.Background(), gen, Request{Prompt: "x"})
	assert.Equal(t, IntentGeneralPlan, got.Intent)
	assert.Equal(t, "fallback", got.Summary)
}
