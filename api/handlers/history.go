package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/api"
	"github.com/matdisco/matdisco/memory"
	"github.com/matdisco/matdisco/types"
)

// HistoryHandler serves conversation history lookups.
type HistoryHandler struct {
	store  *memory.ShortTermStore
	logger *zap.Logger
}

// NewHistoryHandler creates the handler.
func NewHistoryHandler(store *memory.ShortTermStore, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{store: store, logger: logger.With(zap.String("component", "history_handler"))}
}

// HandleHistory processes GET /api/history/{session_id}. An unknown
// session returns an empty history, not an error.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "session_id is required"), h.logger)
		return
	}

	history := h.store.History(sessionID)
	if history == nil {
		history = []types.Message{}
	}
	WriteJSON(w, http.StatusOK, api.HistoryResponse{History: history})
}
