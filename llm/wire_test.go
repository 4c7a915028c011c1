package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/types"
)

func TestToWireMessages_RolesAndToolCalls(t *testing.T) {
	msgs := []types.Message{
		types.NewSystemMessage("you are a materials assistant"),
		types.NewUserMessage("band gap of GaN?"),
		{
			Role: types.RoleAssistant,
			ToolCalls: []types.ToolCall{{
				ID:        "call-1",
				Name:      "materials_project_search",
				Arguments: json.RawMessage(`{"formula":"GaN"}`),
			}},
		},
		{Role: types.RoleTool, ToolCallID: "call-1", Content: `{"band_gap":3.4}`},
	}

	wire := toWireMessages(msgs)
	require.Len(t, wire, 4)
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "user", wire[1].Role)
	assert.Equal(t, "assistant", wire[2].Role)
	assert.Equal(t, "tool", wire[3].Role)
	assert.Equal(t, "call-1", wire[3].ToolCallID)

	require.Len(t, wire[2].ToolCalls, 1)
	assert.Equal(t, "materials_project_search", wire[2].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"formula":"GaN"}`, wire[2].ToolCalls[0].Function.Arguments)
}

func TestFromWireMessage_RoundTrip(t *testing.T) {
	wm := oaMessage{Role: "assistant", Content: "GaN has a wide band gap."}
	wm.ToolCalls = []oaToolCall{{ID: "call-9", Type: "function"}}
	wm.ToolCalls[0].Function.Name = "web_search"
	wm.ToolCalls[0].Function.Arguments = `{"query":"GaN"}`

	got := fromWireMessage(wm)
	assert.Equal(t, types.RoleAssistant, got.Role)
	assert.Equal(t, "GaN has a wide band gap.", got.Content)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, "call-9", got.ToolCalls[0].ID)
	assert.JSONEq(t, `{"query":"GaN"}`, string(got.ToolCalls[0].Arguments))
}
