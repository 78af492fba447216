package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	DefaultMaxIterations = 10
	DefaultMaxTokens     = 4096

	// Fallback is returned when the model never produces a usable answer.
	Fallback = "Unable to generate a response."
)

var (
	ErrProviderUnavailable = errors.New("model provider unavailable")
	ErrEmptyTranscript     = errors.New("transcript cannot be empty")
)

type Request struct {
	System    string
	Tools     []Tool
	Turns     []Turn
	MaxTokens int64
}

type Provider interface {
	Send(ctx context.Context, req Request) (Reply, error)
}

type ToolRunner interface {
	Execute(ctx context.Context, call ToolUse) ToolResult
}

type Agent struct {
	provider  Provider
	tools     ToolRunner
	system    string
	maxIter   int
	maxTokens int64
	log       *slog.Logger
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIter = n }
}

func WithMaxTokens(n int64) Option {
	return func(a *Agent) { a.maxTokens = n }
}

func WithSystemPrompt(s string) Option {
	return func(a *Agent) { a.system = s }
}

func NewAgent(provider Provider, tools ToolRunner, log *slog.Logger, opts ...Option) *Agent {
	a := &Agent{
		provider:  provider,
		tools:     tools,
		system:    SystemPrompt,
		maxIter:   DefaultMaxIterations,
		maxTokens: DefaultMaxTokens,
		log:       log,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// Run drives the tool-use loop over turns (oldest first) and returns the
// final answer. Hitting the iteration cap yields Fallback, not an error.
// Provider failures are returned wrapped in ErrProviderUnavailable.
func (a *Agent) Run(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", ErrEmptyTranscript
	}
	if err := ValidatePairing(turns); err != nil {
		return "", fmt.Errorf("invalid transcript: %w", err)
	}

	msgs := make([]Turn, len(turns))
	copy(msgs, turns)

	for i := range a.maxIter {
		reply, err := a.provider.Send(ctx, Request{
			System:    a.system,
			Tools:     AllTools,
			Turns:     msgs,
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("llm (iter %d): %w: %w", i, ErrProviderUnavailable, err)
		}

		calls := extractToolCalls(reply.Content)

		if reply.StopReason != StopToolUse || len(calls) == 0 {
			if text, ok := firstText(reply.Content); ok {
				return text, nil
			}
			a.log.Warn("reply has no text block", "stop_reason", reply.StopReason, "iter", i)
			return Fallback, nil
		}

		a.log.Info("executing tools", "count", len(calls), "iter", i)

		results := make([]Block, 0, len(calls))
		for _, tc := range calls {
			res := a.tools.Execute(ctx, tc)
			a.log.Info("tool executed", "tool", tc.Name, "iter", i, "preview", preview(res.Content, 120))
			results = append(results, ToolResult{ToolUseID: tc.ID, Content: res.Content})
		}

		msgs = append(msgs,
			Turn{Role: RoleAssistant, Content: assistantBlocks(reply.Content)},
			Turn{Role: RoleUser, Content: results},
		)
	}

	a.log.Warn("tool loop hit iteration cap", "max", a.maxIter)
	return Fallback, nil
}

// Complete sends a single user prompt without tools and returns the first
// text block of the reply, or "" when there is none.
func (a *Agent) Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	reply, err := a.provider.Send(ctx, Request{
		System:    system,
		Turns:     []Turn{UserText(prompt)},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w: %w", ErrProviderUnavailable, err)
	}
	text, _ := firstText(reply.Content)
	return text, nil
}

func extractToolCalls(blocks []Block) []ToolUse {
	var out []ToolUse
	for _, b := range blocks {
		if tu, ok := b.(ToolUse); ok {
			out = append(out, tu)
		}
	}
	return out
}

func firstText(blocks []Block) (string, bool) {
	for _, b := range blocks {
		if t, ok := b.(Text); ok {
			return t.Text, true
		}
	}
	return "", false
}

// assistantBlocks keeps the text and tool_use blocks of a reply for replay.
func assistantBlocks(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		switch b := b.(type) {
		case Text, ToolUse:
			out = append(out, b)
		case ToolResult:
			// never produced by the model
		default:
			panic(fmt.Sprintf("chat: unhandled block type %T", b))
		}
	}
	return out
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n] + "…"
	}
	return s
}
