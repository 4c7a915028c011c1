package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/api"
	"github.com/matdisco/matdisco/internal/session"
	"github.com/matdisco/matdisco/memory"
)

func TestHandleSweepRemovesIdleSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewShortTermStore(memory.ShortTermConfig{TokenLimit: 100000}, nil)
	registry := session.NewRegistry(store, session.Config{
		InactivityThreshold: time.Hour,
		OrphanThreshold:     5 * time.Minute,
		Now:                 func() time.Time { return now },
	}, nil)
	h := NewMaintenanceHandler(registry, nil, nil)

	registry.RecordAccess("stale")
	now = now.Add(2 * time.Hour)
	registry.RecordAccess("fresh")

	r := httptest.NewRequest(http.MethodPost, "/api/maintenance/sweep", nil)
	w := httptest.NewRecorder()
	h.HandleSweep(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var sweep api.SweepResponse
	require.NoError(t, json.Unmarshal(data, &sweep))

	assert.Equal(t, 1, sweep.Cleaned)
	assert.Equal(t, 0, sweep.DeleteFailures)
	assert.Equal(t, 1, sweep.ActiveSessions)
	assert.False(t, registry.Known("stale"))
	assert.True(t, registry.Known("fresh"))
}
