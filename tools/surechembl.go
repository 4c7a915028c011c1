package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/internal/httpx"
	"github.com/matdisco/matdisco/internal/jobs"
	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/types"
)

// SureChEMBLClient talks to the SureChEMBL patent chemistry API. Text and
// structure searches run as asynchronous jobs behind the submit, poll,
// fetch pattern; chemical and document lookups are plain GETs.
type SureChEMBLClient struct {
	client   httpx.Doer
	baseURL  string
	pageSize int
	poller   *jobs.Poller
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewSureChEMBLClient creates a client. client may be nil to use a
// hardened default; collector may be nil to skip job metrics.
func NewSureChEMBLClient(baseURL string, pageSize int, poller *jobs.Poller, client httpx.Doer, collector *metrics.Collector, logger *zap.Logger) *SureChEMBLClient {
	if client == nil {
		client = httpx.SecureClient(60 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SureChEMBLClient{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		poller:   poller,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "surechembl_client")),
	}
}

// ContentSearch submits a text query and drives the job to completion.
// itemsPerPage 0 uses the configured page size.
func (c *SureChEMBLClient) ContentSearch(ctx context.Context, query string, itemsPerPage int) (map[string]any, error) {
	if itemsPerPage <= 0 {
		itemsPerPage = c.pageSize
	}
	submitURL := fmt.Sprintf("%s/search/content?query=%s&page=0&itemsPerPage=%d",
		c.baseURL, url.QueryEscape(query), itemsPerPage)

	var submitResp map[string]any
	if err := httpx.PostJSON(ctx, c.client, submitURL, nil, nil, &submitResp); err != nil {
		return nil, err
	}
	return c.awaitResults(ctx, submitResp, itemsPerPage)
}

type structureSearchRequest struct {
	Struct           string `json:"struct"`
	StructSearchType string `json:"structSearchType"`
	MaxResults       int    `json:"maxResults"`
	Options          string `json:"options"`
}

// StructureSearch submits a SMILES similarity query and drives the job to
// completion.
func (c *SureChEMBLClient) StructureSearch(ctx context.Context, smiles string, threshold float64, maxResults int) (map[string]any, error) {
	body := structureSearchRequest{
		Struct:           smiles,
		StructSearchType: "SIMILARITY",
		MaxResults:       maxResults,
		Options:          strconv.FormatFloat(threshold, 'g', -1, 64),
	}
	var submitResp map[string]any
	if err := httpx.PostJSON(ctx, c.client, c.baseURL+"/search/structure", nil, body, &submitResp); err != nil {
		return nil, err
	}
	return c.awaitResults(ctx, submitResp, c.pageSize)
}

// awaitResults extracts the job handle, polls to a terminal state and
// fetches the first result page.
func (c *SureChEMBLClient) awaitResults(ctx context.Context, submitResp map[string]any, itemsPerPage int) (map[string]any, error) {
	handle, err := jobs.ExtractHandle(submitResp)
	if err != nil {
		return nil, err
	}

	attempts := 0
	status := func(ctx context.Context, handle string) (string, error) {
		attempts++
		var resp struct {
			Status string `json:"status"`
		}
		statusURL := fmt.Sprintf("%s/search/%s/status", c.baseURL, url.PathEscape(handle))
		if err := httpx.GetJSON(ctx, c.client, statusURL, nil, &resp); err != nil {
			return "", err
		}
		return resp.Status, nil
	}

	if err := c.poller.Await(ctx, handle, status); err != nil {
		c.recordJob(err, attempts)
		return nil, err
	}
	c.recordJob(nil, attempts)

	resultsURL := fmt.Sprintf("%s/search/%s/results?page=0&itemsPerPage=%d",
		c.baseURL, url.PathEscape(handle), itemsPerPage)
	var results map[string]any
	if err := httpx.GetJSON(ctx, c.client, resultsURL, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *SureChEMBLClient) recordJob(err error, attempts int) {
	if c.metrics == nil {
		return
	}
	outcome := "complete"
	switch types.GetErrorCode(err) {
	case types.ErrJobFailed:
		outcome = "failed"
	case types.ErrJobTimeout:
		outcome = "timeout"
	}
	c.metrics.RecordJob("surechembl", outcome, attempts)
}

type chemicalResponse struct {
	Status string           `json:"status"`
	Data   []map[string]any `json:"data"`
}

// ChemicalByName looks a chemical up by name. Name search returns the
// reduced property set.
func (c *SureChEMBLClient) ChemicalByName(ctx context.Context, name string) (map[string]any, error) {
	return c.chemical(ctx, fmt.Sprintf("%s/chemical/name/%s", c.baseURL, url.PathEscape(name)), name)
}

// ChemicalByID looks a chemical up by SureChEMBL id, returning the full
// property set including drug-likeness metrics.
func (c *SureChEMBLClient) ChemicalByID(ctx context.Context, id string) (map[string]any, error) {
	return c.chemical(ctx, fmt.Sprintf("%s/chemical/id/%s", c.baseURL, url.PathEscape(id)), id)
}

func (c *SureChEMBLClient) chemical(ctx context.Context, endpoint, ident string) (map[string]any, error) {
	var resp chemicalResponse
	if err := httpx.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Data) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("chemical %q not found in SureChEMBL", ident))
	}
	return resp.Data[0], nil
}

// DocumentContents fetches a patent document's title, abstract and
// description.
func (c *SureChEMBLClient) DocumentContents(ctx context.Context, patentID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/document/%s/contents", c.baseURL, url.PathEscape(patentID))
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := httpx.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("patent %q not found", patentID))
	}
	return resp.Data, nil
}

// FamilyMembers fetches the patent family for a document.
func (c *SureChEMBLClient) FamilyMembers(ctx context.Context, patentID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/document/%s/family/members", c.baseURL, url.PathEscape(patentID))
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := httpx.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("patent family for %q not found", patentID))
	}
	return resp.Data, nil
}

// ChemicalImage renders a structure from SMILES and returns the PNG
// base64-encoded for multimodal consumption.
func (c *SureChEMBLClient) ChemicalImage(ctx context.Context, smiles string, width, height int) (string, error) {
	endpoint := fmt.Sprintf("%s/service/chemical/image?height=%d&width=%d&structure=%s",
		c.baseURL, height, width, url.QueryEscape(smiles))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", types.NewError(types.ErrExternalRequest, "build image request").WithCause(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrExternalRequest, "fetch structure image").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", types.NewError(types.ErrExternalRequest,
			fmt.Sprintf("structure image request returned HTTP %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", types.NewError(types.ErrExternalRequest, "read structure image").WithCause(err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
