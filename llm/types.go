// Package llm defines the chat-completion provider abstraction and the
// OpenAI-compatible implementation behind it.
package llm

import (
	"github.com/matdisco/matdisco/types"
)

// ChatRequest is a provider-independent chat completion request.
type ChatRequest struct {
	Model       string             `json:"model,omitempty"`
	Messages    []types.Message    `json:"messages"`
	Tools       []types.ToolSchema `json:"tools,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
	Stop        []string           `json:"stop,omitempty"`
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is a provider-independent chat completion response.
type ChatResponse struct {
	ID           string        `json:"id"`
	Model        string        `json:"model"`
	Message      types.Message `json:"message"`
	FinishReason string        `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
}

// HasToolCalls reports whether the model asked for tool executions.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.Message.ToolCalls) > 0
}

// StreamChunk is one increment of a streaming completion. Err, when set,
// terminates the stream.
type StreamChunk struct {
	Delta        types.Message `json:"delta"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Err          error         `json:"-"`
}
