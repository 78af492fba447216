package main

import (
	"context"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jadenj13/caseai/internals/analysis"
	"github.com/jadenj13/caseai/internals/casework"
	"github.com/jadenj13/caseai/internals/chat"
	"github.com/jadenj13/caseai/internals/config"
	"github.com/jadenj13/caseai/internals/files"
	"github.com/jadenj13/caseai/internals/llm"
	"github.com/jadenj13/caseai/internals/search"
	"github.com/jadenj13/caseai/internals/store"
)

type app struct {
	store  *store.Store
	worker *casework.Worker
}

func newAgent(cfg config.Config, log *slog.Logger) *chat.Agent {
	llmClient := llm.NewClient(cfg.AnthropicAPIKey,
		llm.WithModel(anthropic.Model(cfg.AnthropicModel)),
		llm.WithMaxTokens(cfg.ChatMaxTokens),
	)

	var searchOpts []search.Option
	if cfg.SearchBaseURL != "" {
		searchOpts = append(searchOpts, search.WithBaseURL(cfg.SearchBaseURL))
	}
	tools := chat.NewToolbox(search.NewClient(searchOpts...))

	return chat.NewAgent(llmClient, tools, log,
		chat.WithMaxIterations(cfg.MaxIterations),
		chat.WithMaxTokens(cfg.ChatMaxTokens),
	)
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	agent := newAgent(cfg, log)
	analyzer := analysis.NewAnalyzer(agent, chat.SystemPrompt, cfg.AnalysisMaxTokens, log)
	worker := casework.NewWorker(st, files.NewStorage(cfg.UploadDir), agent, analyzer, log,
		casework.WithWorkers(cfg.Workers),
		casework.WithTimeout(cfg.RequestTimeout),
		casework.WithHistoryLimit(cfg.HistoryLimit),
		casework.WithMaxUploadBytes(cfg.MaxUploadBytes()),
	)

	return &app{store: st, worker: worker}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
