package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthNoChecks(t *testing.T) {
	h := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
}

func TestHandleHealthPassingCheck(t *testing.T) {
	h := NewHealthHandler(nil)
	h.RegisterCheck(HealthCheckFunc{
		CheckName: "long_term_memory",
		Fn:        func(context.Context) error { return nil },
	})

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	require.Contains(t, status.Checks, "long_term_memory")
	assert.Equal(t, "pass", status.Checks["long_term_memory"].Status)
}

func TestHandleHealthFailingCheckDegrades(t *testing.T) {
	h := NewHealthHandler(nil)
	h.RegisterCheck(HealthCheckFunc{
		CheckName: "long_term_memory",
		Fn:        func(context.Context) error { return errors.New("database is locked") },
	})

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "fail", status.Checks["long_term_memory"].Status)
	assert.Contains(t, status.Checks["long_term_memory"].Message, "locked")
}
