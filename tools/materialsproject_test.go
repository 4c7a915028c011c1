package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCriterion(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  url.Values
	}{
		{
			name: "numeric range", field: "band_gap", value: []any{1.5, 3.0},
			want: url.Values{"band_gap_min": {"1.5"}, "band_gap_max": {"3"}},
		},
		{
			name: "open lower bound", field: "formation_energy_per_atom", value: []any{nil, 0.0},
			want: url.Values{"formation_energy_per_atom_max": {"0"}},
		},
		{
			name: "bool", field: "is_stable", value: true,
			want: url.Values{"is_stable": {"true"}},
		},
		{
			name: "element list", field: "elements", value: []any{"Li", "Fe", "O"},
			want: url.Values{"elements": {"Li,Fe,O"}},
		},
		{
			name: "scalar number", field: "num_elements", value: 3.0,
			want: url.Values{"num_elements": {"3"}},
		},
		{
			name: "string", field: "crystal_system", value: "cubic",
			want: url.Values{"crystal_system": {"cubic"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			require.NoError(t, encodeCriterion(params, tt.field, tt.value))
			assert.Equal(t, tt.want, params)
		})
	}
}

func TestEncodeCriterion_MixedListRejected(t *testing.T) {
	params := url.Values{}
	err := encodeCriterion(params, "elements", []any{"Li", 3.0})
	require.Error(t, err)
}

func newTestMP(t *testing.T, handler http.HandlerFunc) *MPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMPClient(srv.URL, "mp-key", srv.Client(), nil)
}

func TestMPSearchTool_Execute(t *testing.T) {
	client := newTestMP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/materials/summary/", r.URL.Path)
		assert.Equal(t, "mp-key", r.Header.Get("X-API-KEY"))
		q := r.URL.Query()
		assert.Equal(t, "Li,Fe,O", q.Get("elements"))
		assert.Equal(t, "0", q.Get("energy_above_hull_min"))
		assert.Equal(t, "0.05", q.Get("energy_above_hull_max"))
		assert.Equal(t, "20", q.Get("_limit"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"material_id": "mp-19017", "formula_pretty": "LiFePO4", "band_gap": 3.44},
			},
		})
	})
	tool := NewMPSearchTool(client, 20, 7*24*time.Hour)

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"criteria": "{\"elements\": [\"Li\", \"Fe\", \"O\"], \"energy_above_hull\": [0, 0.05]}"}`))
	require.NoError(t, err)

	docs := out.([]map[string]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "LiFePO4", docs[0]["formula_pretty"])
}

func TestMPSearchTool_BadCriteriaString(t *testing.T) {
	tool := NewMPSearchTool(nil, 20, time.Hour)
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"criteria": "not json"}`))
	require.Error(t, err)
}

func TestFieldStatsTool_ComputesDistribution(t *testing.T) {
	client := newTestMP(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("band_gap_min"), "sample constrained to meaningful values")

		docs := make([]map[string]any, 100)
		for i := range docs {
			docs[i] = map[string]any{
				"material_id":    "mp-1",
				"formula_pretty": "X",
				"band_gap":       float64(i), // 0..99
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": docs})
	})
	tool := NewFieldStatsTool(client, 500, 30*24*time.Hour)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"field":"band_gap"}`))
	require.NoError(t, err)

	stats := out.(map[string]any)
	assert.Equal(t, 100, stats["count"])
	assert.Equal(t, 0.0, stats["min"])
	assert.Equal(t, 99.0, stats["max"])
	assert.Equal(t, 49.5, stats["mean"])
	pct := stats["percentiles"].(map[string]float64)
	assert.Equal(t, 25.0, pct["25%"])
	assert.Equal(t, 90.0, pct["90%"])
}

func TestFieldStatsTool_NoNumericData(t *testing.T) {
	client := newTestMP(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})
	tool := NewFieldStatsTool(client, 500, time.Hour)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"field":"made_up_field"}`))
	require.Error(t, err)
}
