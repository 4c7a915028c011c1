package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/internal/httpx"
	"github.com/matdisco/matdisco/types"
)

// MPClient talks to the Materials Project summary API.
type MPClient struct {
	client  httpx.Doer
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewMPClient creates a client. client may be nil to use a hardened
// default.
func NewMPClient(baseURL, apiKey string, client httpx.Doer, logger *zap.Logger) *MPClient {
	if client == nil {
		client = httpx.SecureClient(60 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With(zap.String("component", "mp_client")),
	}
}

type mpSummaryResponse struct {
	Data []map[string]any `json:"data"`
}

// SummarySearch queries /materials/summary with the given criteria.
// Criteria values follow the upstream conventions: a two-element numeric
// array becomes a field_min/field_max range, scalars pass through, and
// string lists join with commas.
func (c *MPClient) SummarySearch(ctx context.Context, criteria map[string]any, fields []string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	for field, value := range criteria {
		if err := encodeCriterion(params, field, value); err != nil {
			return nil, err
		}
	}
	params.Set("_fields", strings.Join(fields, ","))
	params.Set("_limit", strconv.Itoa(limit))

	var resp mpSummaryResponse
	endpoint := c.baseURL + "/materials/summary/?" + params.Encode()
	err := httpx.GetJSON(ctx, c.client, endpoint, map[string]string{"X-API-KEY": c.apiKey}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func encodeCriterion(params url.Values, field string, value any) error {
	switch v := value.(type) {
	case bool:
		params.Set(field, strconv.FormatBool(v))
	case string:
		params.Set(field, v)
	case float64:
		params.Set(field, formatNumber(v))
	case []any:
		if isNumericRange(v) {
			if v[0] != nil {
				params.Set(field+"_min", formatNumber(v[0].(float64)))
			}
			if v[1] != nil {
				params.Set(field+"_max", formatNumber(v[1].(float64)))
			}
			return nil
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return types.NewError(types.ErrInvalidRequest,
					fmt.Sprintf("criterion %q mixes types", field))
			}
			parts = append(parts, s)
		}
		params.Set(field, strings.Join(parts, ","))
	default:
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("criterion %q has unsupported type %T", field, value))
	}
	return nil
}

// isNumericRange reports whether v is a [min, max] pair. Either bound may
// be null for an open interval.
func isNumericRange(v []any) bool {
	if len(v) != 2 {
		return false
	}
	for _, item := range v {
		if item == nil {
			continue
		}
		if _, ok := item.(float64); !ok {
			return false
		}
	}
	return !(v[0] == nil && v[1] == nil)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// MPSearchTool queries the Materials Project database for inorganic
// materials matching property criteria.
type MPSearchTool struct {
	client       *MPClient
	defaultLimit int
	ttl          time.Duration
}

// NewMPSearchTool creates the tool.
func NewMPSearchTool(client *MPClient, defaultLimit int, ttl time.Duration) *MPSearchTool {
	return &MPSearchTool{client: client, defaultLimit: defaultLimit, ttl: ttl}
}

type mpSearchArgs struct {
	// Criteria arrives as a JSON string so the model can express ranges
	// and lists without fighting the function-call schema.
	Criteria string   `json:"criteria"`
	Fields   []string `json:"fields"`
	Limit    int      `json:"limit"`
}

// Schema implements Tool.
func (t *MPSearchTool) Schema() types.ToolSchema { return schemaMPSearch }

// CachePolicy implements the cache contract: computed properties change
// rarely, so results hold for the data window.
func (t *MPSearchTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *MPSearchTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a mpSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid search_materials_project arguments").WithCause(err)
	}
	var criteria map[string]any
	if a.Criteria != "" {
		if err := json.Unmarshal([]byte(a.Criteria), &criteria); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest,
				"criteria is not a valid JSON object").WithCause(err)
		}
	}
	if len(a.Fields) == 0 {
		a.Fields = []string{"material_id", "formula_pretty", "band_gap", "density", "formation_energy_per_atom"}
	}
	if a.Limit <= 0 {
		a.Limit = t.defaultLimit
	}
	docs, err := t.client.SummarySearch(ctx, criteria, a.Fields, a.Limit)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FieldStatsTool samples the database to describe the distribution of a
// numeric property, so thresholds like "high bulk modulus" can be set
// from data instead of guesswork.
type FieldStatsTool struct {
	client     *MPClient
	sampleSize int
	ttl        time.Duration
}

// NewFieldStatsTool creates the tool.
func NewFieldStatsTool(client *MPClient, sampleSize int, ttl time.Duration) *FieldStatsTool {
	return &FieldStatsTool{client: client, sampleSize: sampleSize, ttl: ttl}
}

type fieldStatsArgs struct {
	Field string `json:"field"`
}

type fieldExample struct {
	Formula    string  `json:"formula"`
	MaterialID string  `json:"material_id"`
	Value      float64 `json:"value"`
}

// Schema implements Tool.
func (t *FieldStatsTool) Schema() types.ToolSchema { return schemaFieldStats }

// CachePolicy implements the cache contract. Distributions over the whole
// database drift slowly, so stats get the longest window.
func (t *FieldStatsTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *FieldStatsTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a fieldStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid get_field_stats arguments").WithCause(err)
	}
	if a.Field == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "field is required")
	}

	criteria := statsCriteria(a.Field)
	docs, err := t.client.SummarySearch(ctx, criteria,
		[]string{"material_id", "formula_pretty", a.Field}, t.sampleSize)
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(docs))
	examples := make([]fieldExample, 0, len(docs))
	for _, doc := range docs {
		v, ok := doc[a.Field].(float64)
		if !ok {
			continue
		}
		values = append(values, v)
		formula, _ := doc["formula_pretty"].(string)
		id, _ := doc["material_id"].(string)
		examples = append(examples, fieldExample{Formula: formula, MaterialID: id, Value: v})
	}
	if len(values) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no numerical data found for field %q", a.Field))
	}

	sort.Float64s(values)
	n := len(values)
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	pct := func(p float64) float64 { return values[int(float64(n)*p)] }

	sort.Slice(examples, func(i, j int) bool { return examples[i].Value < examples[j].Value })
	low := examples[:min(3, len(examples))]
	high := examples[max(0, len(examples)-3):]

	return map[string]any{
		"field":  a.Field,
		"count":  n,
		"min":    values[0],
		"max":    values[n-1],
		"mean":   sum / float64(n),
		"median": values[n/2],
		"percentiles": map[string]float64{
			"10%": pct(0.10),
			"25%": pct(0.25),
			"50%": pct(0.50),
			"75%": pct(0.75),
			"90%": pct(0.90),
			"95%": pct(0.95),
		},
		"interpretation": map[string]string{
			"low":       fmt.Sprintf("< %.3g (bottom 25%%)", pct(0.25)),
			"typical":   fmt.Sprintf("%.3g - %.3g (middle 50%%)", pct(0.25), pct(0.75)),
			"high":      fmt.Sprintf("> %.3g (top 25%%)", pct(0.75)),
			"very_high": fmt.Sprintf("> %.3g (top 10%%)", pct(0.90)),
		},
		"examples": map[string]any{
			"low":  low,
			"high": high,
		},
	}, nil
}

// statsCriteria constrains the sample to physically meaningful values for
// fields where zero or negative entries would skew the distribution.
func statsCriteria(field string) map[string]any {
	ranges := map[string][]any{
		"band_gap":                  {0.0, nil},
		"density":                   {0.0, nil},
		"formation_energy_per_atom": {nil, 0.0},
		"energy_above_hull":         {0.0, nil},
		"k_vrh":                     {0.0, nil},
		"g_vrh":                     {0.0, nil},
		"poisson_ratio":             {0.0, nil},
		"total_magnetization":       {0.1, nil},
		"volume":                    {0.0, nil},
		"e_total":                   {1.0, nil},
		"e_electronic":              {1.0, nil},
		"e_ionic":                   {0.0, nil},
		"n":                         {1.0, nil},
	}
	if r, ok := ranges[field]; ok {
		return map[string]any{field: r}
	}
	return nil
}
