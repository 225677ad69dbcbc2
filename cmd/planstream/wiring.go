package main

import (
	"context"
	"fmt"

	"github.com/user/planstream/internal/config"
	"github.com/user/planstream/internal/journal"
	"github.com/user/planstream/internal/llm"
	"github.com/user/planstream/internal/mcpconn"
	"github.com/user/planstream/internal/pipeline"
)

// openJournal returns nil when no journal path is configured.
func openJournal(ctx context.Context, cfg *config.Config) (*journal.Journal, error) {
	if cfg.JournalPath == "" {
		return nil, nil
	}
	j, err := journal.Open(ctx, cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func buildPipeline(ctx context.Context, cfg *config.Config, j *journal.Journal) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialer, err := mcpconn.NewDialer(mcpconn.Options{
		URL:           cfg.MCP.URL,
		Token:         cfg.MCP.Token,
		Timeout:       cfg.MCPTimeout(),
		ClientVersion: version,
	})
	if err != nil {
		return nil, err
	}
	gen, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	opts := pipeline.Options{
		Connector:   dialer,
		Generator:   gen,
		RateLimit:   cfg.SyncRateLimit,
		DebugEvents: cfg.DebugEvents,
	}
	if j != nil {
		opts.Recorder = j
	}
	return pipeline.New(opts)
}
