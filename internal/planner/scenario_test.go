package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectScenarioSingleReminder(t *testing.T) {
	for _, maxTasks := range []int{0, 1, 5, 10} {
		s := SelectScenario(IntentDecision{Intent: IntentSingleReminder}, Request{MaxTasks: maxTasks})
		assert.Equal(t, 1, s.MaxTasks)
		assert.Equal(t, IntentSingleReminder, s.Intent)
		assert.NotEmpty(t, s.Directives)
	}
}

func TestSelectScenarioRecipe(t *testing.T) {
	cases := []struct {
		days     int
		wantDays int
		wantMax  int
	}{
		{0, 3, 6},
		{1, 1, 2},
		{4, 4, 8},
		{5, 5, 10},
		{7, 5, 10},
	}
	for _, tc := range cases {
		s := SelectScenario(IntentDecision{Intent: IntentRecipePlan, Days: tc.days}, Request{MaxTasks: 2})
		assert.Equalf(t, tc.wantDays, s.Days, "days=%d", tc.days)
		assert.Equalf(t, tc.wantMax, s.MaxTasks, "days=%d", tc.days)
	}
}

func TestSelectScenarioMultiStep(t *testing.T) {
	assert.Equal(t, 2, SelectScenario(IntentDecision{Intent: IntentMultiStepPlan}, Request{MaxTasks: 1}).MaxTasks)
	assert.Equal(t, 5, SelectScenario(IntentDecision{Intent: IntentMultiStepPlan}, Request{}).MaxTasks)
	assert.Equal(t, 10, SelectScenario(IntentDecision{Intent: IntentMultiStepPlan}, Request{MaxTasks: 10}).MaxTasks)
}

func TestSelectScenarioGeneral(t *testing.T) {
	assert.Equal(t, 5, SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{}).MaxTasks)
	assert.Equal(t, 3, SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{MaxTasks: 3}).MaxTasks)
	assert.Equal(t, 10, SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{MaxTasks: 40}).MaxTasks)

	s := SelectScenario(IntentDecision{Intent: "unknown"}, Request{MaxTasks: 4})
	assert.Equal(t, IntentGeneralPlan, s.Intent)
	assert.Equal(t, 4, s.MaxTasks)
}

func TestSelectScenarioDirectivesAreCopies(t *testing.T) {
	s := SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{})
	s.Directives[0] = "changed"
	again := SelectScenario(IntentDecision{Intent: IntentGeneralPlan}, Request{})
	assert.NotEqual(t, "changed", again.Directives[0])
}
