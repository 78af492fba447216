// Package analysis asks the model for a structured summary of a document and
// validates what comes back.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	maxDocumentChars = 15000
	DefaultMaxTokens = 2048
)

type Completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error)
}

type Analyzer struct {
	llm       Completer
	system    string
	maxTokens int64
	log       *slog.Logger
}

func NewAnalyzer(llm Completer, system string, maxTokens int64, log *slog.Logger) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{llm: llm, system: system, maxTokens: maxTokens, log: log}
}

// Analyze returns ErrMalformed when the reply cannot be parsed; provider
// errors are passed through unchanged.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Result, error) {
	reply, err := a.llm.Complete(ctx, a.system, buildPrompt(text), a.maxTokens)
	if err != nil {
		return Result{}, fmt.Errorf("analyze document: %w", err)
	}

	res, err := Parse(reply)
	if err != nil {
		a.log.Warn("analysis reply rejected", "err", err, "chars", len(reply))
		return Result{}, err
	}
	return res, nil
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Analyze this legal document and provide:
1. A concise summary (2-3 paragraphs)
2. Key legal points as a JSON list under 'key_points'

Document text:
%s

Respond with JSON: {"summary": "...", "key_points": [...]}`, truncate(text, maxDocumentChars))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
