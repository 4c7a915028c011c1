// Package agent runs the tool-calling reasoning loop that answers a user
// query: call the model, execute any requested tools, feed the results back,
// and repeat until the model produces a final text answer.
package agent

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/llm"
	"github.com/matdisco/matdisco/memory"
	"github.com/matdisco/matdisco/tools"
	"github.com/matdisco/matdisco/types"
)

// Config holds reasoning-loop settings.
type Config struct {
	Model           string
	Temperature     float64
	MaxIterations   int
	MaxHistoryTurns int
	LongTermFacts   int

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// Image is a structure rendering produced by a tool during the current
// turn, surfaced alongside the text response.
type Image struct {
	SMILES string `json:"smiles"`
	Data   string `json:"image_data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Result is the outcome of one reasoning run. Trace records the tool
// activity of the run in order, for clients that surface reasoning steps.
type Result struct {
	Response   string
	Images     []Image
	Trace      []Event
	Iterations int
	Usage      llm.Usage
}

// Event is a progress notification emitted while a run is in flight, used
// by streaming transports to show tool activity before the final answer.
type Event struct {
	Type      string  `json:"type"` // tool_call, tool_result, answer
	Tool      string  `json:"tool,omitempty"`
	FromCache bool    `json:"from_cache,omitempty"`
	Error     string  `json:"error,omitempty"`
	Response  string  `json:"response,omitempty"`
	Images    []Image `json:"images,omitempty"`
}

// Runner drives the loop for one service instance. Safe for concurrent use.
type Runner struct {
	provider  llm.Provider
	executor  *tools.Executor
	registry  *tools.Registry
	shortTerm *memory.ShortTermStore
	longTerm  *memory.LongTermStore
	metrics   *metrics.Collector
	logger    *zap.Logger
	cfg       Config
}

// NewRunner creates a Runner. longTerm and collector may be nil.
func NewRunner(cfg Config, provider llm.Provider, executor *tools.Executor, registry *tools.Registry,
	shortTerm *memory.ShortTermStore, longTerm *memory.LongTermStore,
	collector *metrics.Collector, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = 5
	}
	if cfg.LongTermFacts <= 0 {
		cfg.LongTermFacts = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		provider:  provider,
		executor:  executor,
		registry:  registry,
		shortTerm: shortTerm,
		longTerm:  longTerm,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "agent")),
		cfg:       cfg,
	}
}

// Run answers one user query within a session. Conversation history is
// loaded from and persisted to the short-term store; images are collected
// from tool results of this turn only, never from history.
func (r *Runner) Run(ctx context.Context, sessionID, query string) (*Result, error) {
	return r.run(ctx, sessionID, query, nil)
}

// RunStream is Run with progress events. emit is called from the loop
// goroutine for each tool call and result, and once with the final answer.
func (r *Runner) RunStream(ctx context.Context, sessionID, query string, emit func(Event)) (*Result, error) {
	return r.run(ctx, sessionID, query, emit)
}

func (r *Runner) run(ctx context.Context, sessionID, query string, emit func(Event)) (*Result, error) {
	ctx = tools.WithSessionID(ctx, sessionID)
	history := trimTurns(r.shortTerm.History(sessionID), r.cfg.MaxHistoryTurns)
	system := SystemPrompt(r.cfg.Now(), r.loadFacts(ctx, sessionID))

	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, types.NewSystemMessage(system))
	messages = append(messages, history...)
	user := types.NewUserMessage(query)
	messages = append(messages, user)

	// turn accumulates the messages produced this run so that history is
	// only persisted once the run reaches a final answer.
	turn := []types.Message{user}
	result := &Result{}
	schemas := r.registry.Schemas()

	for i := 1; i <= r.cfg.MaxIterations; i++ {
		resp, err := r.complete(ctx, messages, schemas)
		if err != nil {
			return nil, err
		}
		result.Iterations = i
		result.Usage.PromptTokens += resp.Usage.PromptTokens
		result.Usage.CompletionTokens += resp.Usage.CompletionTokens
		result.Usage.TotalTokens += resp.Usage.TotalTokens

		messages = append(messages, resp.Message)
		turn = append(turn, resp.Message)

		if !resp.HasToolCalls() {
			result.Response = resp.Message.Content
			r.shortTerm.Append(sessionID, turn...)
			r.logger.Debug("run complete",
				zap.String("session_id", sessionID),
				zap.Int("iterations", i),
				zap.Int("images", len(result.Images)))
			if emit != nil {
				emit(Event{Type: "answer", Response: result.Response, Images: result.Images})
			}
			return result, nil
		}

		for _, call := range resp.Message.ToolCalls {
			callEv := Event{Type: "tool_call", Tool: call.Name}
			result.Trace = append(result.Trace, callEv)
			if emit != nil {
				emit(callEv)
			}
			toolResult := r.executor.Execute(ctx, call)
			if img, ok := extractImage(toolResult); ok {
				result.Images = append(result.Images, img)
			}
			resultEv := Event{Type: "tool_result", Tool: call.Name, FromCache: toolResult.FromCache, Error: toolResult.Error}
			result.Trace = append(result.Trace, resultEv)
			if emit != nil {
				emit(resultEv)
			}
			msg := toolResult.ToMessage()
			messages = append(messages, msg)
			turn = append(turn, msg)
		}
	}

	r.logger.Warn("iteration budget exhausted",
		zap.String("session_id", sessionID),
		zap.Int("max_iterations", r.cfg.MaxIterations))
	return nil, types.NewError(types.ErrInternalError, "reasoning loop did not reach a final answer")
}

func (r *Runner) complete(ctx context.Context, messages []types.Message, schemas []types.ToolSchema) (*llm.ChatResponse, error) {
	req := &llm.ChatRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Tools:       schemas,
		Temperature: r.cfg.Temperature,
	}
	start := time.Now()
	resp, err := r.provider.Completion(ctx, req)
	if r.metrics != nil {
		status := "ok"
		var prompt, completion int
		if err != nil {
			status = "error"
		} else {
			prompt = resp.Usage.PromptTokens
			completion = resp.Usage.CompletionTokens
		}
		model := r.cfg.Model
		if resp != nil && resp.Model != "" {
			model = resp.Model
		}
		r.metrics.RecordLLMRequest(model, status, time.Since(start), prompt, completion)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// loadFacts pulls recent long-term facts for the prompt. Failures degrade
// to an empty list; memory recall never blocks an answer.
func (r *Runner) loadFacts(ctx context.Context, sessionID string) []string {
	if r.longTerm == nil {
		return nil
	}
	facts, err := r.longTerm.Recent(ctx, sessionID, r.cfg.LongTermFacts)
	if err != nil {
		r.logger.Warn("long-term recall failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.Content)
	}
	return out
}

// trimTurns keeps at most maxTurns of the most recent user turns, where a
// turn is a user message plus everything up to the next user message. The
// cut always lands on a user message so no tool result is left without the
// assistant call that produced it.
func trimTurns(history []types.Message, maxTurns int) []types.Message {
	turns := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == types.RoleUser {
			turns++
			if turns == maxTurns {
				return history[i:]
			}
		}
	}
	return history
}

// extractImage recognizes the structure-visualization payload in a tool
// result. Anything that is not a well-formed image payload is ignored.
func extractImage(result types.ToolResult) (Image, bool) {
	if result.IsError() || len(result.Result) == 0 {
		return Image{}, false
	}
	var payload struct {
		Type   string `json:"type"`
		SMILES string `json:"smiles"`
		Data   string `json:"image_url_format"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := json.Unmarshal(result.Result, &payload); err != nil || payload.Type != "image" {
		return Image{}, false
	}
	return Image{SMILES: payload.SMILES, Data: payload.Data, Width: payload.Width, Height: payload.Height}, true
}
