package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jadenj13/caseai/internals/search"
)

const (
	ToolWebSearch = "web_search"

	searchResultLimit = 5
	noResults         = "No results found for this query."
)

// Tool describes a callable tool to the model. Properties and Required form
// the JSON Schema of the tool's object input.
type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

var toolWebSearch = Tool{
	Name: ToolWebSearch,
	Description: "Search the internet for current legal information: statutes, regulations, " +
		"case law, court decisions, legal news, or any other information needed to " +
		"answer legal questions accurately and up-to-date.",
	Properties: map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Search query to find relevant legal information",
		},
	},
	Required: []string{"query"},
}

var AllTools = []Tool{toolWebSearch}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

type webSearchInput struct {
	Query string `json:"query"`
}

// Toolbox executes tool calls on behalf of the agent. Execute never fails:
// problems are reported to the model inside the result content.
type Toolbox struct {
	searcher Searcher
}

func NewToolbox(searcher Searcher) *Toolbox {
	return &Toolbox{searcher: searcher}
}

func (t *Toolbox) Execute(ctx context.Context, call ToolUse) ToolResult {
	var content string
	switch call.Name {
	case ToolWebSearch:
		content = t.execWebSearch(ctx, call.Input)
	default:
		content = fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	return ToolResult{ToolUseID: call.ID, Content: content}
}

func (t *Toolbox) execWebSearch(ctx context.Context, raw json.RawMessage) string {
	var in webSearchInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Sprintf("Search error: invalid input: %s", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "Search error: empty query"
	}

	results, err := t.searcher.Search(ctx, in.Query, searchResultLimit)
	if err != nil {
		return fmt.Sprintf("Search error: %s", err)
	}
	if len(results) == 0 {
		return noResults
	}
	return formatResults(results)
}

func formatResults(results []search.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Title: %s\nSummary: %s\nURL: %s", r.Title, r.Snippet, r.URL))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
