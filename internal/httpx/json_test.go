package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/types"
)

func TestGetJSON_DecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(map[string]any{"value": 42})
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := GetJSON(context.Background(), srv.Client(), srv.URL,
		map[string]string{"X-API-Key": "key-123"}, &out)

	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestPostJSON_EncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "perovskite", body["query"])
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	var out map[string]string
	err := PostJSON(context.Background(), srv.Client(), srv.URL, nil,
		map[string]string{"query": "perovskite"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "yes", out["ok"])
}

func TestGetJSON_UpstreamStatusBecomesTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, &map[string]any{})

	require.Error(t, err)
	assert.Equal(t, types.ErrExternalRequest, types.GetErrorCode(err))
	assert.False(t, types.IsRetryable(err), "a 404 is not retryable")
}

func TestGetJSON_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, nil)

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

type failingDoer struct{ err error }

func (d failingDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestGetJSON_TransportErrorWrapped(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	err := GetJSON(context.Background(), failingDoer{err: boom}, "http://example.invalid/x", nil, nil)

	require.Error(t, err)
	assert.Equal(t, types.ErrExternalRequest, types.GetErrorCode(err))
	assert.ErrorIs(t, err, boom)
}

func TestGetJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.Client(), srv.URL, nil, &map[string]any{})

	require.Error(t, err)
	assert.Equal(t, types.ErrResponseParse, types.GetErrorCode(err))
}
