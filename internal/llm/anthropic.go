package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/user/planstream/internal/jsontext"
)

// Anthropic forces a single tool call whose input schema is the requested
// output schema.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{
		client:    &client,
		model:     modelOrDefault(cfg.Model, defaultAnthropicModel),
		maxTokens: defaultMaxTokens,
	}
}

func (a *Anthropic) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	toolName := "emit_" + strings.ReplaceAll(req.Name, "-", "_")
	schema := req.Schema.JSONSchema()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String("Return the result as structured JSON."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: schema["properties"],
					Required:   req.Schema.Required,
				},
			},
		}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	}
	if strings.TrimSpace(req.System) != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate %s: %w", req.Name, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			raw, err := b.Input.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("anthropic generate %s: %w", req.Name, err)
			}
			return json.RawMessage(raw), nil
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		}
	}
	if v, ok := jsontext.Parse(text.String()); ok {
		return json.Marshal(v)
	}
	return nil, fmt.Errorf("anthropic generate %s: no structured output", req.Name)
}
