package types

import (
	"encoding/json"
	"time"
)

// ToolSchema defines a tool's interface for LLM function calling.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ToolCallID string          `json:"tool_call_id"`
	Name       string          `json:"name"`
	Result     json.RawMessage `json:"result"`
	Error      string          `json:"error,omitempty"`
	Duration   time.Duration   `json:"duration"`
	FromCache  bool            `json:"from_cache,omitempty"`
}

// ToMessage converts ToolResult to a Message. A failed execution still
// carries its structured payload in Result; the bare Error string is the
// fallback only when no payload was produced.
func (tr ToolResult) ToMessage() Message {
	content := string(tr.Result)
	if content == "" && tr.Error != "" {
		content = "Error: " + tr.Error
	}
	return Message{
		Role:       RoleTool,
		Content:    content,
		Name:       tr.Name,
		ToolCallID: tr.ToolCallID,
	}
}

// IsError returns true if the tool execution failed.
func (tr ToolResult) IsError() bool {
	return tr.Error != ""
}

// ErrorPayload is the structured error body a tool returns to the model
// instead of propagating a Go error upward. A single failing lookup
// degrades into a payload the model can read and react to.
type ErrorPayload struct {
	Error      string    `json:"error"`
	Code       ErrorCode `json:"code,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// NewErrorPayload builds an ErrorPayload from any error, preserving the
// structured code when the error is a *types.Error.
func NewErrorPayload(err error) ErrorPayload {
	p := ErrorPayload{Error: err.Error()}
	if e, ok := err.(*Error); ok {
		p.Code = e.Code
		p.Error = e.Message
		if e.Cause != nil {
			p.Error = e.Message + ": " + e.Cause.Error()
		}
	}
	return p
}

// MarshalPayload serializes v for a tool result, falling back to an error
// payload when marshalling fails.
func MarshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(ErrorPayload{Error: "failed to encode result: " + err.Error(), Code: ErrInternalError})
	}
	return data
}
