package tools

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/internal/cache"
	"github.com/matdisco/matdisco/types"
)

type stubTool struct {
	name    string
	policy  CachePolicy
	calls   int32
	block   chan struct{}
	execute func(ctx context.Context, args json.RawMessage) (any, error)
}

func (s *stubTool) Schema() types.ToolSchema {
	return types.ToolSchema{Name: s.name, Parameters: json.RawMessage(`{"type":"object"}`)}
}

func (s *stubTool) CachePolicy(json.RawMessage) CachePolicy { return s.policy }

func (s *stubTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block != nil {
		<-s.block
	}
	if s.execute != nil {
		return s.execute(ctx, args)
	}
	return map[string]string{"ok": "yes"}, nil
}

func newTestExecutor(t *testing.T, tools ...Tool) *Executor {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(tools...)
	store := cache.New(cache.Config{MaxEntries: 100}, nil)
	return NewExecutor(reg, store, nil, nil)
}

func call(name, args string) types.ToolCall {
	return types.ToolCall{ID: "call_1", Name: name, Arguments: json.RawMessage(args)}
}

func TestExecute_CacheFirst(t *testing.T) {
	tool := &stubTool{name: "lookup", policy: CachePolicy{Cacheable: true, TTL: time.Hour}}
	e := newTestExecutor(t, tool)

	first := e.Execute(context.Background(), call("lookup", `{"q":"LiFePO4"}`))
	require.False(t, first.IsError())
	assert.False(t, first.FromCache)

	second := e.Execute(context.Background(), call("lookup", `{"q":"LiFePO4"}`))
	require.False(t, second.IsError())
	assert.True(t, second.FromCache)
	assert.JSONEq(t, string(first.Result), string(second.Result))
	assert.Equal(t, int32(1), atomic.LoadInt32(&tool.calls), "upstream asked exactly once")
}

func TestExecute_ArgumentOrderDoesNotMatter(t *testing.T) {
	tool := &stubTool{name: "lookup", policy: CachePolicy{Cacheable: true, TTL: time.Hour}}
	e := newTestExecutor(t, tool)

	e.Execute(context.Background(), call("lookup", `{"a":1,"b":2}`))
	second := e.Execute(context.Background(), call("lookup", `{"b":2,"a":1}`))

	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tool.calls))
}

func TestExecute_FailuresAreNotCached(t *testing.T) {
	failing := true
	tool := &stubTool{
		name:   "flaky",
		policy: CachePolicy{Cacheable: true, TTL: time.Hour},
		execute: func(context.Context, json.RawMessage) (any, error) {
			if failing {
				return nil, types.NewError(types.ErrExternalRequest, "upstream down")
			}
			return map[string]string{"ok": "recovered"}, nil
		},
	}
	e := newTestExecutor(t, tool)

	first := e.Execute(context.Background(), call("flaky", `{"q":"x"}`))
	require.True(t, first.IsError())

	failing = false
	second := e.Execute(context.Background(), call("flaky", `{"q":"x"}`))
	require.False(t, second.IsError(), "a failure must not poison the cache window")
	assert.False(t, second.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tool.calls))
}

func TestExecute_ErrorBecomesStructuredPayload(t *testing.T) {
	tool := &stubTool{
		name:   "broken",
		policy: CachePolicy{},
		execute: func(context.Context, json.RawMessage) (any, error) {
			return nil, types.NewError(types.ErrNotFound, "compound not found")
		},
	}
	e := newTestExecutor(t, tool)

	result := e.Execute(context.Background(), call("broken", `{}`))

	require.True(t, result.IsError())
	var payload types.ErrorPayload
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	assert.Equal(t, types.ErrNotFound, payload.Code)
	assert.Contains(t, payload.Error, "compound not found")

	msg := result.ToMessage()
	assert.Equal(t, types.RoleTool, msg.Role)
	assert.JSONEq(t, string(result.Result), msg.Content, "the model sees the structured payload")
}

func TestExecute_UnknownTool(t *testing.T) {
	e := newTestExecutor(t, &stubTool{name: "real"})

	result := e.Execute(context.Background(), call("imaginary", `{}`))

	require.True(t, result.IsError())
	var payload types.ErrorPayload
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	assert.Equal(t, types.ErrInvalidRequest, payload.Code)
}

func TestExecute_MalformedArguments(t *testing.T) {
	tool := &stubTool{name: "lookup", policy: CachePolicy{Cacheable: true, TTL: time.Hour}}
	e := newTestExecutor(t, tool)

	result := e.Execute(context.Background(), call("lookup", `{not json`))

	require.True(t, result.IsError())
	assert.Zero(t, atomic.LoadInt32(&tool.calls), "malformed arguments never reach the tool")
}

func TestExecute_ConcurrentIdenticalCallsCollapse(t *testing.T) {
	tool := &stubTool{
		name:   "slow",
		policy: CachePolicy{Cacheable: true, TTL: time.Hour},
		block:  make(chan struct{}),
	}
	e := newTestExecutor(t, tool)

	const n = 8
	var wg sync.WaitGroup
	results := make([]types.ToolResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Execute(context.Background(), call("slow", `{"q":"dup"}`))
		}(i)
	}

	// Let the goroutines pile onto the in-flight execution, then release.
	time.Sleep(50 * time.Millisecond)
	close(tool.block)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&tool.calls), "identical concurrent calls share one execution")
	for _, r := range results {
		require.False(t, r.IsError())
	}
}

func TestExecute_UncacheableToolRunsEveryTime(t *testing.T) {
	tool := &stubTool{name: "render", policy: CachePolicy{}}
	e := newTestExecutor(t, tool)

	e.Execute(context.Background(), call("render", `{"s":"CCO"}`))
	e.Execute(context.Background(), call("render", `{"s":"CCO"}`))

	assert.Equal(t, int32(2), atomic.LoadInt32(&tool.calls))
}
