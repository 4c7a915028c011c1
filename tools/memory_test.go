package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/memory"
	"github.com/matdisco/matdisco/types"
)

func newTestFactStore(t *testing.T) *memory.LongTermStore {
	t.Helper()
	s, err := memory.OpenLongTermStore(":memory:", nil)
	require.NoError(t, err)
	return s
}

func TestRememberFactTool_SavesUnderSession(t *testing.T) {
	store := newTestFactStore(t)
	tool := NewRememberFactTool(store)
	ctx := WithSessionID(context.Background(), "s1")

	out, err := tool.Execute(ctx, json.RawMessage(`{"fact":"works on solid-state electrolytes"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"remembered": "works on solid-state electrolytes"}, out)

	facts, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "works on solid-state electrolytes", facts[0].Content)
	assert.Equal(t, "s1", facts[0].SessionID)
}

func TestRememberFactTool_RequiresFact(t *testing.T) {
	tool := NewRememberFactTool(newTestFactStore(t))

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestRecallFactsTool_MatchesAcrossSessions(t *testing.T) {
	store := newTestFactStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", "studies perovskite solar absorbers"))
	require.NoError(t, store.Save(ctx, "s2", "prefers lead-free perovskites"))
	require.NoError(t, store.Save(ctx, "s3", "works on steel alloys"))

	tool := NewRecallFactsTool(store, 10)
	out, err := tool.Execute(ctx, json.RawMessage(`{"query":"perovskite"}`))
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, 2, result["count"])
	facts := result["facts"].([]map[string]any)
	require.Len(t, facts, 2)
	for _, f := range facts {
		assert.Contains(t, f["fact"], "perovskite")
	}
}

func TestRecallFactsTool_RequiresQuery(t *testing.T) {
	tool := NewRecallFactsTool(newTestFactStore(t), 10)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestSessionIDFromContext_DefaultEmpty(t *testing.T) {
	assert.Equal(t, "", SessionIDFromContext(context.Background()))
	assert.Equal(t, "s9", SessionIDFromContext(WithSessionID(context.Background(), "s9")))
}
