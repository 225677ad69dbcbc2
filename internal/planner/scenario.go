package planner

const (
	defaultRecipeDays = 3
	maxRecipeDays     = 5
)

var (
	singleReminderDirectives = []string{
		"Return exactly one task that restates the request literally.",
		"Do not invent subtasks, preparation steps or follow-ups.",
		"Keep any time or date from the request in the due field.",
	}
	recipeDirectives = []string{
		"Create one task per day and meal slot.",
		"Reference the available ingredients by name in every task description.",
		"Do not repeat the same dish on consecutive days.",
		"Give each task a due date on the day it is cooked.",
	}
	multiStepDirectives = []string{
		"Break the request into at least two sequenced, time-anchored steps.",
		"Order the tasks in the sequence they must happen.",
		"Note in the description which earlier step a task depends on.",
	}
	generalDirectives = []string{
		"Produce a balanced set of actionable tasks.",
		"Avoid inventing tasks the request does not explicitly imply.",
	}
)

// SelectScenario maps an intent decision to its generation configuration.
func SelectScenario(decision IntentDecision, req Request) Scenario {
	requested := req.MaxTasks
	if requested == 0 {
		requested = DefaultMaxTasks
	}
	switch decision.Intent {
	case IntentSingleReminder:
		return Scenario{
			Intent:      IntentSingleReminder,
			MaxTasks:    1,
			Directives:  clone(singleReminderDirectives),
			Temperature: 0.1,
		}
	case IntentRecipePlan:
		days := decision.Days
		if days == 0 {
			days = defaultRecipeDays
		}
		days = clampInt(days, 1, maxRecipeDays)
		return Scenario{
			Intent:      IntentRecipePlan,
			MaxTasks:    clampInt(days*2, 1, MaxTasksLimit),
			Days:        days,
			Directives:  clone(recipeDirectives),
			Temperature: 0.35,
		}
	case IntentMultiStepPlan:
		return Scenario{
			Intent:      IntentMultiStepPlan,
			MaxTasks:    clampInt(max(2, requested), 1, MaxTasksLimit),
			Directives:  clone(multiStepDirectives),
			Temperature: 0.25,
		}
	default:
		return Scenario{
			Intent:      IntentGeneralPlan,
			MaxTasks:    clampInt(requested, 1, MaxTasksLimit),
			Directives:  clone(generalDirectives),
			Temperature: 0.2,
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clone(in []string) []string {
	return append([]string(nil), in...)
}
