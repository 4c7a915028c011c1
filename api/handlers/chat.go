package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matdisco/matdisco/agent"
	"github.com/matdisco/matdisco/api"
	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/internal/session"
	"github.com/matdisco/matdisco/types"
)

// Reasoner answers one user turn. *agent.Runner is the production
// implementation.
type Reasoner interface {
	Run(ctx context.Context, sessionID, query string) (*agent.Result, error)
	RunStream(ctx context.Context, sessionID, query string, emit func(agent.Event)) (*agent.Result, error)
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	reasoner Reasoner
	sessions *session.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewChatHandler creates the handler. collector may be nil.
func NewChatHandler(reasoner Reasoner, sessions *session.Registry, collector *metrics.Collector, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		reasoner: reasoner,
		sessions: sessions,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "chat_handler")),
	}
}

// HandleChat processes POST /api/chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Message == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "message is required"), h.logger)
		return
	}

	sessionID := h.admitSession(r.Context(), req.SessionID)

	start := time.Now()
	result, err := h.reasoner.Run(r.Context(), sessionID, req.Message)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.logger.Info("chat turn complete",
		zap.String("session_id", sessionID),
		zap.Int("iterations", result.Iterations),
		zap.Int("response_chars", len(result.Response)),
		zap.Int("images", len(result.Images)),
		zap.Duration("duration", time.Since(start)))

	trace := result.Trace
	if trace == nil {
		trace = []agent.Event{}
	}
	WriteJSON(w, http.StatusOK, api.ChatResponse{
		Response:       result.Response,
		ReasoningTrace: trace,
		SearchResults:  map[string]any{},
		SessionID:      sessionID,
		Images:         result.Images,
	})
}

// HandleChatStream processes GET /api/chat/ws. The client sends ChatRequest
// frames; the server answers each with a stream of agent events ending in
// an answer frame.
func (h *ChatHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	for {
		var req api.ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			// Normal closure or client gone.
			return
		}
		if req.Message == "" {
			h.writeStreamError(ctx, conn, types.NewError(types.ErrInvalidRequest, "message is required"))
			continue
		}

		sessionID := h.admitSession(ctx, req.SessionID)
		if err := wsjson.Write(ctx, conn, streamFrame{Type: "session", SessionID: sessionID}); err != nil {
			return
		}

		_, err := h.reasoner.RunStream(ctx, sessionID, req.Message, func(ev agent.Event) {
			if werr := wsjson.Write(ctx, conn, streamFrame{Type: ev.Type, SessionID: sessionID, Event: &ev}); werr != nil {
				h.logger.Debug("stream write failed", zap.Error(werr))
			}
		})
		if err != nil {
			h.writeStreamError(ctx, conn, err)
		}
	}
}

// streamFrame is one websocket message to the client.
type streamFrame struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id,omitempty"`
	Event     *agent.Event `json:"event,omitempty"`
	Error     *ErrorInfo   `json:"error,omitempty"`
}

func (h *ChatHandler) writeStreamError(ctx context.Context, conn *websocket.Conn, err error) {
	e, ok := err.(*types.Error)
	if !ok {
		e = types.NewError(types.ErrInternalError, err.Error())
	}
	h.logger.Error("stream turn failed", zap.String("code", string(e.Code)), zap.Error(e.Cause))
	frame := streamFrame{Type: "error", Error: &ErrorInfo{
		Code:      string(e.Code),
		Message:   e.Message,
		Retryable: e.Retryable,
	}}
	_ = wsjson.Write(ctx, conn, frame)
}

// admitSession resolves the session for a turn. A missing ID gets a fresh
// one; a fresh session sweeps orphans so abandoned conversations do not
// accumulate. The current session is always protected and touched.
func (h *ChatHandler) admitSession(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if h.sessions != nil {
		if !h.sessions.Known(sessionID) {
			swept := h.sessions.Sweep(ctx, session.SweepOptions{NewSession: true, Protect: sessionID})
			if h.metrics != nil {
				h.metrics.RecordSweep(swept.CleanedCount, swept.DeleteFailures)
			}
			if swept.CleanedCount > 0 {
				h.logger.Info("orphan sweep on new session",
					zap.Int("cleaned", swept.CleanedCount),
					zap.Int("delete_failures", swept.DeleteFailures))
			}
		}
		h.sessions.RecordAccess(sessionID)
	}
	return sessionID
}
