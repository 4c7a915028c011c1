package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/api"
	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/internal/session"
)

// MaintenanceHandler exposes operational actions.
type MaintenanceHandler struct {
	sessions *session.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewMaintenanceHandler creates the handler. collector may be nil.
func NewMaintenanceHandler(sessions *session.Registry, collector *metrics.Collector, logger *zap.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceHandler{
		sessions: sessions,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "maintenance_handler")),
	}
}

// HandleSweep processes POST /api/maintenance/sweep: an on-demand
// inactivity sweep, same pass the background loop runs.
func (h *MaintenanceHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	result := h.sessions.Sweep(r.Context(), session.SweepOptions{})
	if h.metrics != nil {
		h.metrics.RecordSweep(result.CleanedCount, result.DeleteFailures)
	}
	h.logger.Info("manual sweep",
		zap.Int("cleaned", result.CleanedCount),
		zap.Int("delete_failures", result.DeleteFailures))

	WriteSuccess(w, api.SweepResponse{
		Cleaned:        result.CleanedCount,
		DeleteFailures: result.DeleteFailures,
		ActiveSessions: h.sessions.Len(),
	})
}
