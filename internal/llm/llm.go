package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	defaultGeminiModel    = "gemini-2.5-flash"
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultMaxTokens      = 4096
)

// Request is one schema-constrained generation call.
type Request struct {
	Name        string
	System      string
	Prompt      string
	Schema      *Schema
	Temperature float64
}

// Generator returns JSON that should conform to req.Schema. Callers still
// validate the result.
type Generator interface {
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New builds the generator for cfg.Provider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm credentials are not configured for provider %s", cfg.Provider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func modelOrDefault(model, fallback string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return fallback
}
