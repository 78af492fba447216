package llm

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jadenj13/caseai/internals/chat"
)

func toAPITools(tools []chat.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		tp := anthropic.ToolParam{
			Name: t.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Properties,
				Required:   t.Required,
			},
		}
		if t.Description != "" {
			tp.Description = anthropic.String(t.Description)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tp})
	}
	return out
}

func toAPIMessages(turns []chat.Turn) ([]anthropic.MessageParam, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for i, t := range turns {
		blocks, err := toAPIBlocks(t.Content)
		if err != nil {
			return nil, fmt.Errorf("message[%d]: %w", i, err)
		}
		switch t.Role {
		case chat.RoleUser:
			out = append(out, anthropic.NewUserMessage(blocks...))
		case chat.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("message[%d]: unknown role %q", i, t.Role)
		}
	}

	if last := out[len(out)-1]; last.Role != anthropic.MessageParamRoleUser {
		return nil, fmt.Errorf("last message must be from user, got %q", last.Role)
	}

	return out, nil
}

func toAPIBlocks(blocks []chat.Block) ([]anthropic.ContentBlockParamUnion, error) {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))
	for j, b := range blocks {
		switch b := b.(type) {
		case chat.Text:
			out = append(out, anthropic.NewTextBlock(b.Text))
		case chat.ToolUse:
			out = append(out, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
		case chat.ToolResult:
			out = append(out, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, false))
		default:
			return nil, fmt.Errorf("block[%d]: unknown block type %T", j, b)
		}
	}
	return out, nil
}

func fromAPIMessage(resp *anthropic.Message) (chat.Reply, error) {
	blocks := make([]chat.Block, 0, len(resp.Content))
	for i, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, chat.Text{Text: block.Text})
		case "tool_use":
			blocks = append(blocks, chat.ToolUse{ID: block.ID, Name: block.Name, Input: block.Input})
		default:
			return chat.Reply{}, fmt.Errorf("content[%d]: unexpected content block type: %s", i, block.Type)
		}
	}
	return chat.Reply{
		StopReason: chat.StopReason(resp.StopReason),
		Content:    blocks,
	}, nil
}
