package chat

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block is one unit of a turn's payload. The set of implementations is closed:
// Text, ToolUse and ToolResult.
type Block interface {
	block()
}

type Text struct {
	Text string
}

type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResult struct {
	ToolUseID string
	Content   string
}

func (Text) block()       {}
func (ToolUse) block()    {}
func (ToolResult) block() {}

type Turn struct {
	Role    Role
	Content []Block
}

func UserText(text string) Turn {
	return Turn{Role: RoleUser, Content: []Block{Text{Text: text}}}
}

func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Content: []Block{Text{Text: text}}}
}

type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
)

type Reply struct {
	StopReason StopReason
	Content    []Block
}

// ValidatePairing checks that every ToolResult references a ToolUse emitted in
// the immediately preceding assistant turn, and that tool results only appear
// in user turns.
func ValidatePairing(turns []Turn) error {
	for i, t := range turns {
		switch t.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("turn[%d]: unknown role %q", i, t.Role)
		}
		for j, b := range t.Content {
			switch b := b.(type) {
			case Text:
			case ToolUse:
				if t.Role != RoleAssistant {
					return fmt.Errorf("turn[%d] block[%d]: tool_use in %s turn", i, j, t.Role)
				}
			case ToolResult:
				if t.Role != RoleUser {
					return fmt.Errorf("turn[%d] block[%d]: tool_result in %s turn", i, j, t.Role)
				}
				if i == 0 || !hasToolUse(turns[i-1], b.ToolUseID) {
					return fmt.Errorf("turn[%d] block[%d]: tool_result %q has no matching tool_use in the previous turn", i, j, b.ToolUseID)
				}
			default:
				return fmt.Errorf("turn[%d] block[%d]: unknown block type %T", i, j, b)
			}
		}
	}
	return nil
}

func hasToolUse(t Turn, id string) bool {
	if t.Role != RoleAssistant {
		return false
	}
	for _, b := range t.Content {
		if tu, ok := b.(ToolUse); ok && tu.ID == id {
			return true
		}
	}
	return false
}
