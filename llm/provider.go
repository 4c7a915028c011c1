package llm

import "context"

// Provider is a chat completion backend.
type Provider interface {
	// Name identifies the provider for logs and metrics.
	Name() string

	// Completion performs a non-streaming chat completion.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream performs a streaming chat completion. The channel closes when
	// the stream ends; a chunk with Err set terminates it early.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)
}
