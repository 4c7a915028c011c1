package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/internal/httpx"
	"github.com/matdisco/matdisco/types"
)

// ExaClient talks to the Exa search API.
type ExaClient struct {
	client  httpx.Doer
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewExaClient creates a client. client may be nil to use a hardened
// default.
func NewExaClient(baseURL, apiKey string, client httpx.Doer, logger *zap.Logger) *ExaClient {
	if client == nil {
		client = httpx.SecureClient(30 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExaClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With(zap.String("component", "exa_client")),
	}
}

type exaSearchRequest struct {
	Query              string   `json:"query"`
	NumResults         int      `json:"numResults,omitempty"`
	Type               string   `json:"type,omitempty"`
	IncludeDomains     []string `json:"includeDomains,omitempty"`
	ExcludeDomains     []string `json:"excludeDomains,omitempty"`
	StartPublishedDate string   `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string   `json:"endPublishedDate,omitempty"`
}

type exaSearchResponse struct {
	Results []struct {
		ID            string   `json:"id"`
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		Author        string   `json:"author"`
		PublishedDate string   `json:"publishedDate"`
		Score         *float64 `json:"score"`
		Text          string   `json:"text"`
		Summary       string   `json:"summary"`
	} `json:"results"`
}

// SearchResult is one formatted web search hit.
type SearchResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Text          string   `json:"text,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	ID            string   `json:"id,omitempty"`
}

// Search runs one query and returns formatted hits.
func (c *ExaClient) Search(ctx context.Context, req exaSearchRequest) ([]SearchResult, error) {
	var resp exaSearchResponse
	err := httpx.PostJSON(ctx, c.client, c.baseURL+"/search",
		map[string]string{"x-api-key": c.apiKey}, req, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Author:        r.Author,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
			Text:          r.Text,
			Summary:       r.Summary,
			ID:            r.ID,
		})
	}
	return out, nil
}

// WebSearchTool searches the open web for literature, pricing and
// validation queries.
type WebSearchTool struct {
	client         *ExaClient
	defaultResults int
	ttlShort       time.Duration
	ttlLong        time.Duration
}

// NewWebSearchTool creates the tool. Results for price and cost queries
// cache for ttlShort; everything else for ttlLong.
func NewWebSearchTool(client *ExaClient, defaultResults int, ttlShort, ttlLong time.Duration) *WebSearchTool {
	return &WebSearchTool{
		client:         client,
		defaultResults: defaultResults,
		ttlShort:       ttlShort,
		ttlLong:        ttlLong,
	}
}

type webSearchArgs struct {
	Query              string   `json:"query"`
	NumResults         int      `json:"num_results"`
	Type               string   `json:"type"`
	IncludeDomains     []string `json:"include_domains"`
	ExcludeDomains     []string `json:"exclude_domains"`
	StartPublishedDate string   `json:"start_published_date"`
	EndPublishedDate   string   `json:"end_published_date"`
}

// Schema implements Tool.
func (t *WebSearchTool) Schema() types.ToolSchema { return schemaWebSearch }

// CachePolicy keys the TTL off the query: market numbers go stale in a
// day, concept search holds for a week.
func (t *WebSearchTool) CachePolicy(args json.RawMessage) CachePolicy {
	var a webSearchArgs
	_ = json.Unmarshal(args, &a)
	q := strings.ToLower(a.Query)
	if strings.Contains(q, "price") || strings.Contains(q, "cost") {
		return CachePolicy{Cacheable: true, TTL: t.ttlShort}
	}
	return CachePolicy{Cacheable: true, TTL: t.ttlLong}
}

// Execute implements Tool.
func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a webSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid web_search arguments").WithCause(err)
	}
	if a.Query == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "query is required")
	}
	if a.NumResults <= 0 {
		a.NumResults = t.defaultResults
	}
	if a.Type == "" {
		a.Type = "auto"
	}
	results, err := t.client.Search(ctx, exaSearchRequest{
		Query:              a.Query,
		NumResults:         a.NumResults,
		Type:               a.Type,
		IncludeDomains:     a.IncludeDomains,
		ExcludeDomains:     a.ExcludeDomains,
		StartPublishedDate: a.StartPublishedDate,
		EndPublishedDate:   a.EndPublishedDate,
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
