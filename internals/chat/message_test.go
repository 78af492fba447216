package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type bogusBlock struct{ Text }

func TestValidatePairing(t *testing.T) {
	call := searchCall("t1", "q")

	tests := []struct {
		name    string
		turns   []Turn
		wantErr bool
	}{
		{
			name:  "plain history",
			turns: []Turn{UserText("a"), AssistantText("b"), UserText("c")},
		},
		{
			name: "paired tool result",
			turns: []Turn{
				UserText("a"),
				{Role: RoleAssistant, Content: []Block{call}},
				{Role: RoleUser, Content: []Block{ToolResult{ToolUseID: "t1", Content: "r"}}},
			},
		},
		{
			name: "result references unknown id",
			turns: []Turn{
				UserText("a"),
				{Role: RoleAssistant, Content: []Block{call}},
				{Role: RoleUser, Content: []Block{ToolResult{ToolUseID: "t2", Content: "r"}}},
			},
			wantErr: true,
		},
		{
			name: "result not immediately after tool use",
			turns: []Turn{
				{Role: RoleAssistant, Content: []Block{call}},
				UserText("interleaved"),
				{Role: RoleUser, Content: []Block{ToolResult{ToolUseID: "t1", Content: "r"}}},
			},
			wantErr: true,
		},
		{
			name:    "tool use in user turn",
			turns:   []Turn{{Role: RoleUser, Content: []Block{call}}},
			wantErr: true,
		},
		{
			name:    "unknown role",
			turns:   []Turn{{Role: "system", Content: []Block{Text{Text: "x"}}}},
			wantErr: true,
		},
		{
			name:    "unknown block kind",
			turns:   []Turn{{Role: RoleUser, Content: []Block{bogusBlock{}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePairing(tt.turns)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
