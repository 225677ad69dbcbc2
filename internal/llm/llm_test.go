package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func sampleSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"tasks": {
				Type:     TypeArray,
				MinItems: Int(1),
				Items: &Schema{
					Type:       TypeObject,
					Properties: map[string]*Schema{"title": {Type: TypeString}, "priority": {Type: TypeInteger, Minimum: Float(1), Maximum: Float(4)}},
					Required:   []string{"title"},
				},
			},
			"intent": {Type: TypeString, Enum: []string{"a", "b"}},
		},
		Required: []string{"tasks"},
	}
}

func TestJSONSchemaRendering(t *testing.T) {
	out := sampleSchema().JSONSchema()

	assert.Equal(t, "object", out["type"])
	assert.Equal(t, false, out["additionalProperties"])
	assert.Equal(t, []string{"tasks"}, out["required"])

	props := out["properties"].(map[string]any)
	tasks := props["tasks"].(map[string]any)
	assert.Equal(t, 1, tasks["minItems"])
	item := tasks["items"].(map[string]any)
	assert.Equal(t, []string{"title"}, item["required"])
	priority := item["properties"].(map[string]any)["priority"].(map[string]any)
	assert.Equal(t, 4.0, priority["maximum"])
	assert.Equal(t, []string{"a", "b"}, props["intent"].(map[string]any)["enum"])
}

func TestGeminiSchemaConversion(t *testing.T) {
	out := geminiSchema(sampleSchema())

	require.NotNil(t, out)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, []string{"intent", "tasks"}, out.PropertyOrdering)
	tasks := out.Properties["tasks"]
	require.NotNil(t, tasks.MinItems)
	assert.Equal(t, int64(1), *tasks.MinItems)
	assert.Equal(t, genai.TypeInteger, tasks.Items.Properties["priority"].Type)
	assert.Nil(t, geminiSchema(nil))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderOpenAI})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "llama", APIKey: "k"})
	require.Error(t, err)

	gen, err := New(context.Background(), Config{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, gen)
}
