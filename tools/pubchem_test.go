package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/types"
)

func newTestPubChem(t *testing.T, mux *http.ServeMux) *PubChemSearchTool {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := NewPubChemClient(srv.URL, srv.Client(), nil)
	return NewPubChemSearchTool(client, 7*24*time.Hour)
}

func TestPubChemSearch_ByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/compound/name/aspirin/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"PropertyTable": map[string]any{
				"Properties": []map[string]any{{
					"CID":              2244,
					"IUPACName":        "2-acetyloxybenzoic acid",
					"MolecularFormula": "C9H8O4",
					"MolecularWeight":  "180.16",
					"CanonicalSMILES":  "CC(=O)OC1=CC=CC=C1C(=O)O",
					"InChIKey":         "BSYNRYMUTXBXSQ-UHFFFAOYSA-N",
					"XLogP":            1.2,
					"HBondDonorCount":  1,
				}},
			},
		})
	})
	tool := newTestPubChem(t, mux)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"compound":"aspirin"}`))
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, "2-acetyloxybenzoic acid", result["compound_name"])
	assert.Equal(t, "C9H8O4", result["molecular_formula"])
	assert.Equal(t, "BSYNRYMUTXBXSQ-UHFFFAOYSA-N", result["inchikey"])
}

func TestPubChemSearch_SynonymsDegradeGracefully(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/compound/cid/2244/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/compound/cid/2244/synonyms/JSON" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"PropertyTable": map[string]any{
				"Properties": []map[string]any{{"CID": 2244, "Title": "Aspirin"}},
			},
		})
	})
	tool := newTestPubChem(t, mux)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"compound":"2244","search_type":"cid","include_synonyms":true}`))
	require.NoError(t, err, "a synonym failure must not fail the lookup")

	result := out.(map[string]any)
	assert.Equal(t, "Aspirin", result["compound_name"])
	assert.Contains(t, result, "synonyms_error")
	assert.NotContains(t, result, "synonyms")
}

func TestPubChemSearch_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"PropertyTable": map[string]any{"Properties": []any{}}})
	})
	tool := newTestPubChem(t, mux)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"compound":"unobtainium"}`))
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestPubChemSearch_RejectsUnknownNamespace(t *testing.T) {
	tool := NewPubChemSearchTool(nil, time.Hour)
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"compound":"x","search_type":"cas"}`))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}
