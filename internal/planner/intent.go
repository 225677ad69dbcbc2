package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/planstream/internal/jsontext"
	"github.com/user/planstream/internal/llm"
)

const (
	intentTemperature = 0.1
	maxIntentDays     = 7
	maxIntentKeywords = 10
)

var fallbackDecision = IntentDecision{Intent: IntentGeneralPlan, Summary: "fallback"}

const intentSystemPrompt = `You classify task-planning requests for a to-do app.
Pick exactly one intent:
- single_reminder: one concrete thing to do or remember, possibly with a time.
- multi_step_plan: the user explicitly asks to break something into ordered steps.
- recipe_plan: the user lists ingredients or food and wants meals planned over days.
- general_plan: anything open-ended that needs a handful of tasks.

Examples:
Request: "Call the dentist tomorrow at 9am"
{"intent":"single_reminder","summary":"Call the dentist"}
Request: "Break down moving apartments into steps: pack, book movers, clean, hand over keys"
{"intent":"multi_step_plan","summary":"Moving apartments","keywords":["pack","movers","clean","keys"]}
Request: "I have salmon, spinach and potatoes, plan dinners for 4 days"
{"intent":"recipe_plan","summary":"Dinners from salmon, spinach and potatoes","days":4,"keywords":["salmon","spinach","potatoes"]}
Request: "Help me get in shape this month"
{"intent":"general_plan","summary":"Get in shape"}`

func intentSchema() *llm.Schema {
	enum := make([]string, 0, len(Intents))
	for _, i := range Intents {
		enum = append(enum, string(i))
	}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"intent":   {Type: llm.TypeString, Enum: enum},
			"summary":  {Type: llm.TypeString},
			"days":     {Type: llm.TypeInteger, Minimum: llm.Float(1), Maximum: llm.Float(maxIntentDays)},
			"keywords": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, MaxItems: llm.Int(maxIntentKeywords)},
		},
		Required: []string{"intent"},
	}
}

// Classify asks the model for the request's intent. Classification is
// advisory: every failure yields the general_plan fallback.
func Classify(ctx context.Context, gen llm.Generator, req Request) IntentDecision {
	raw, err := gen.GenerateJSON(ctx, llm.Request{
		Name:        "intent",
		System:      intentSystemPrompt,
		Prompt:      buildIntentPrompt(req),
		Schema:      intentSchema(),
		Temperature: intentTemperature,
	})
	if err != nil {
		slog.Warn("intent classification failed, using fallback", "error", err)
		return fallbackDecision
	}
	decision, err := parseIntentDecision(string(raw))
	if err != nil {
		slog.Warn("intent classification invalid, using fallback", "error", err)
		return fallbackDecision
	}
	return decision
}

func buildIntentPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %q\n", req.Prompt)
	if req.Due != "" {
		fmt.Fprintf(&b, "Due hint: %s\n", req.Due)
	}
	if req.Preferences != "" {
		fmt.Fprintf(&b, "Preferences: %s\n", req.Preferences)
	}
	b.WriteString("Respond with the JSON object only.")
	return b.String()
}

func parseIntentDecision(raw string) (IntentDecision, error) {
	var out struct {
		Intent   string   `json:"intent"`
		Summary  string   `json:"summary"`
		Days     *float64 `json:"days"`
		Keywords []string `json:"keywords"`
	}
	if err := jsontext.Decode(raw, &out); err != nil {
		return IntentDecision{}, fmt.Errorf("decode intent: %w", err)
	}
	intent := Intent(strings.TrimSpace(out.Intent))
	if !intent.Valid() {
		return IntentDecision{}, fmt.Errorf("unknown intent %q", out.Intent)
	}
	decision := IntentDecision{Intent: intent, Summary: strings.TrimSpace(out.Summary)}
	if out.Days != nil {
		days := int(*out.Days)
		if float64(days) != *out.Days || days < 1 || days > maxIntentDays {
			return IntentDecision{}, fmt.Errorf("days out of range: %v", *out.Days)
		}
		decision.Days = days
	}
	if len(out.Keywords) > maxIntentKeywords {
		return IntentDecision{}, errors.New("too many keywords")
	}
	for _, kw := range out.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			decision.Keywords = append(decision.Keywords, kw)
		}
	}
	return decision, nil
}
