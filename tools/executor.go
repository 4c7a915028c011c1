package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/matdisco/matdisco/internal/cache"
	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/types"
)

// Executor dispatches tool calls. Results of cacheable tools are served
// from the result cache when a semantically identical call was answered
// before; concurrent identical calls collapse into one upstream request.
// Failures never abort the conversational turn: they come back as
// structured payloads the model can read.
type Executor struct {
	registry *Registry
	cache    *cache.Store
	metrics  *metrics.Collector
	group    singleflight.Group
	tracer   oteltrace.Tracer
	logger   *zap.Logger
}

// NewExecutor creates an executor. cache and metrics may be nil, which
// disables caching and recording respectively.
func NewExecutor(registry *Registry, store *cache.Store, collector *metrics.Collector, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry: registry,
		cache:    store,
		metrics:  collector,
		tracer:   otel.Tracer("matdisco/tools"),
		logger:   logger.With(zap.String("component", "tool_executor")),
	}
}

// Execute runs one tool call to completion. The returned result always
// carries a payload; IsError distinguishes failures.
func (e *Executor) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "tool.execute",
		oteltrace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	result := e.execute(ctx, call)
	result.Duration = time.Since(start)

	status := "ok"
	switch {
	case result.IsError():
		status = "error"
	case result.FromCache:
		status = "cached"
	}
	if e.metrics != nil {
		e.metrics.RecordToolExecution(call.Name, status, result.Duration)
	}
	e.logger.Debug("tool executed",
		zap.String("tool", call.Name),
		zap.String("status", status),
		zap.Duration("duration", result.Duration))
	return result
}

func (e *Executor) execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	result := types.ToolResult{ToolCallID: call.ID, Name: call.Name}

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		return e.fail(result, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unknown tool %q", call.Name)))
	}

	// Decode the arguments once so the fingerprint sees the values, not
	// the model's key ordering or whitespace.
	var args any
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return e.fail(result, types.NewError(types.ErrInvalidRequest,
				"tool arguments are not valid JSON").WithCause(err))
		}
	}

	policy := policyOf(tool, call.Arguments)
	if !policy.Cacheable || e.cache == nil {
		payload, err := tool.Execute(ctx, call.Arguments)
		if err != nil {
			return e.fail(result, err)
		}
		result.Result = types.MarshalPayload(payload)
		return result
	}

	key := cache.Fingerprint(call.Name, args)
	if data, hit := e.cache.Get(key); hit {
		if e.metrics != nil {
			e.metrics.RecordCacheHit(call.Name)
		}
		result.Result = data
		result.FromCache = true
		return result
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss(call.Name)
	}

	// Identical concurrent calls share one execution. Only the winner
	// talks to upstream; everyone gets its payload.
	data, err, _ := e.group.Do(key, func() (any, error) {
		payload, err := tool.Execute(ctx, call.Arguments)
		if err != nil {
			return nil, err
		}
		encoded := types.MarshalPayload(payload)
		// Only successes are cached. A transient upstream failure must
		// not poison the window for every later identical call.
		e.cache.Set(key, encoded, policy.TTL)
		return encoded, nil
	})
	if err != nil {
		return e.fail(result, err)
	}
	result.Result = data.(json.RawMessage)
	return result
}

// fail converts an execution error into a structured payload result.
func (e *Executor) fail(result types.ToolResult, err error) types.ToolResult {
	payload := types.NewErrorPayload(err)
	result.Error = payload.Error
	result.Result = types.MarshalPayload(payload)
	e.logger.Warn("tool execution failed",
		zap.String("tool", result.Name),
		zap.String("code", string(types.GetErrorCode(err))),
		zap.Error(err))
	return result
}
