// Package api defines the HTTP surface of the service: request and
// response shapes, the router, and the middleware chain.
package api

import (
	"github.com/matdisco/matdisco/agent"
	"github.com/matdisco/matdisco/types"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	// Message is the user's query. Required.
	Message string `json:"message"`
	// SessionID continues an existing conversation. When empty the
	// server assigns a fresh session.
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse carries the assistant's answer for one turn.
// ReasoningTrace lists the tool activity behind the answer in order.
// SearchResults is reserved for structured result payloads and is
// currently always empty.
type ChatResponse struct {
	Response       string         `json:"response"`
	ReasoningTrace []agent.Event  `json:"reasoning_trace"`
	SearchResults  map[string]any `json:"search_results"`
	SessionID      string         `json:"session_id"`
	Images         []agent.Image  `json:"images,omitempty"`
}

// HistoryResponse lists a session's conversation, oldest first.
type HistoryResponse struct {
	History []types.Message `json:"history"`
}

// SweepResponse reports one maintenance sweep.
type SweepResponse struct {
	Cleaned        int `json:"cleaned"`
	DeleteFailures int `json:"delete_failures"`
	ActiveSessions int `json:"active_sessions"`
}
