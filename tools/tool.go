// Package tools implements the research tools the agent can call and the
// executor that dispatches, caches, and deduplicates their executions.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matdisco/matdisco/types"
)

// Tool is one callable capability exposed to the model.
type Tool interface {
	// Schema describes the tool for function calling.
	Schema() types.ToolSchema

	// Execute runs the tool. The returned value is marshalled into the
	// tool result payload. Errors surface to the model as structured
	// payloads, never as aborted turns.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// CachePolicy reports how a tool's results may be cached. TTL 0 means the
// permanent tier. Tools that are not Cacheable execute every time.
type CachePolicy struct {
	Cacheable bool
	TTL       time.Duration
}

// cachePolicyProvider is implemented by tools whose results can be reused.
// The policy may depend on the arguments: a price query ages out faster
// than a structure lookup. A tool without it is treated as uncacheable.
type cachePolicyProvider interface {
	CachePolicy(args json.RawMessage) CachePolicy
}

func policyOf(t Tool, args json.RawMessage) CachePolicy {
	if p, ok := t.(cachePolicyProvider); ok {
		return p.CachePolicy(args)
	}
	return CachePolicy{}
}
