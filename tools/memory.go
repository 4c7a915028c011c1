package tools

import (
	"context"
	"encoding/json"

	"github.com/matdisco/matdisco/memory"
	"github.com/matdisco/matdisco/types"
)

type sessionIDKey struct{}

// WithSessionID marks the context with the session a tool execution
// belongs to. Set once per turn by the reasoning loop.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFromContext returns the session set by WithSessionID, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// FactStore is the slice of the long-term store the memory tools need.
type FactStore interface {
	Save(ctx context.Context, sessionID, content string) error
	Search(ctx context.Context, query string, limit int) ([]memory.Fact, error)
}

// RememberFactTool persists a user fact or preference so later sessions
// can load it into the prompt. Never cached: every call is a write.
type RememberFactTool struct {
	store FactStore
}

// NewRememberFactTool creates the tool.
func NewRememberFactTool(store FactStore) *RememberFactTool {
	return &RememberFactTool{store: store}
}

type rememberFactArgs struct {
	Fact string `json:"fact"`
}

// Schema implements Tool.
func (t *RememberFactTool) Schema() types.ToolSchema { return schemaRememberFact }

// Execute implements Tool.
func (t *RememberFactTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a rememberFactArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid remember_fact arguments").WithCause(err)
	}
	if a.Fact == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "fact is required")
	}
	sessionID := SessionIDFromContext(ctx)
	if err := t.store.Save(ctx, sessionID, a.Fact); err != nil {
		return nil, err
	}
	return map[string]any{"remembered": a.Fact}, nil
}

// RecallFactsTool searches stored facts across all sessions. Never
// cached: the store grows between calls.
type RecallFactsTool struct {
	store FactStore
	limit int
}

// NewRecallFactsTool creates the tool. limit caps returned facts,
// defaulting to 10.
func NewRecallFactsTool(store FactStore, limit int) *RecallFactsTool {
	if limit <= 0 {
		limit = 10
	}
	return &RecallFactsTool{store: store, limit: limit}
}

type recallFactsArgs struct {
	Query string `json:"query"`
}

// Schema implements Tool.
func (t *RecallFactsTool) Schema() types.ToolSchema { return schemaRecallFacts }

// Execute implements Tool.
func (t *RecallFactsTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a recallFactsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid recall_facts arguments").WithCause(err)
	}
	if a.Query == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "query is required")
	}
	facts, err := t.store.Search(ctx, a.Query, t.limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(facts))
	for _, f := range facts {
		out = append(out, map[string]any{
			"fact":        f.Content,
			"recorded_at": f.CreatedAt.Format("2006-01-02"),
		})
	}
	return map[string]any{"facts": out, "count": len(out)}, nil
}
