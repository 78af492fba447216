package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jadenj13/caseai/internals/chat"
)

const (
	DefaultModel     = anthropic.Model("claude-sonnet-4-20250514")
	DefaultMaxTokens = 4096
)

type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

type Option func(*clientConfig)

type clientConfig struct {
	model      anthropic.Model
	maxTokens  int64
	reqOptions []option.RequestOption
}

func WithModel(model anthropic.Model) Option {
	return func(c *clientConfig) { c.model = model }
}

func WithMaxTokens(n int64) Option {
	return func(c *clientConfig) { c.maxTokens = n }
}

func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.reqOptions = append(c.reqOptions, option.WithBaseURL(u)) }
}

// WithMaxRetries overrides the SDK retry count. The default is zero: retrying
// a failed exchange is the caller's decision.
func WithMaxRetries(n int) Option {
	return func(c *clientConfig) { c.reqOptions = append(c.reqOptions, option.WithMaxRetries(n)) }
}

func NewClient(apiKey string, opts ...Option) *Client {
	cfg := clientConfig{
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		reqOptions: []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Client{
		client:    anthropic.NewClient(cfg.reqOptions...),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}
}

// Send performs one round-trip to the Messages API.
func (c *Client) Send(ctx context.Context, req chat.Request) (chat.Reply, error) {
	apiMessages, err := toAPIMessages(req.Turns)
	if err != nil {
		return chat.Reply{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  apiMessages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	params.Tools = toAPITools(req.Tools)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("anthropic api: %w", err)
	}

	return fromAPIMessage(resp)
}
