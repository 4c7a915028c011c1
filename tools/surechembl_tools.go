package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matdisco/matdisco/types"
)

// PatentSearchTool searches patents by text for applications and prior
// art.
type PatentSearchTool struct {
	client *SureChEMBLClient
	ttl    time.Duration
}

// NewPatentSearchTool creates the tool.
func NewPatentSearchTool(client *SureChEMBLClient, ttl time.Duration) *PatentSearchTool {
	return &PatentSearchTool{client: client, ttl: ttl}
}

type patentSearchArgs struct {
	Query string `json:"query"`
}

// Schema implements Tool.
func (t *PatentSearchTool) Schema() types.ToolSchema { return schemaPatentSearch }

// CachePolicy implements the cache contract.
func (t *PatentSearchTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *PatentSearchTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a patentSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid search_patents arguments").WithCause(err)
	}
	if a.Query == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "query is required")
	}

	data, err := t.client.ContentSearch(ctx, a.Query, 0)
	if err != nil {
		return nil, err
	}

	hits := digSlice(data, "results")
	formatted := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		h, ok := hit.(map[string]any)
		if !ok {
			continue
		}
		id, _ := h["id"].(string)
		title := digString(h, "title", "english")
		if title == "" {
			title = "No Title"
		}
		formatted = append(formatted, map[string]any{
			"patent_id":        id,
			"title":            title,
			"publication_date": h["publicationDate"],
			"url":              "https://www.surechembl.org/document/" + id,
		})
	}
	return formatted, nil
}

// SimilarStructuresTool finds structurally similar chemicals across the
// patent corpus by SMILES similarity.
type SimilarStructuresTool struct {
	client *SureChEMBLClient
	ttl    time.Duration
}

// NewSimilarStructuresTool creates the tool.
func NewSimilarStructuresTool(client *SureChEMBLClient, ttl time.Duration) *SimilarStructuresTool {
	return &SimilarStructuresTool{client: client, ttl: ttl}
}

type similarStructuresArgs struct {
	SMILES    string   `json:"smiles"`
	Threshold *float64 `json:"threshold"`
}

// Schema implements Tool.
func (t *SimilarStructuresTool) Schema() types.ToolSchema { return schemaSimilarStructures }

// CachePolicy implements the cache contract.
func (t *SimilarStructuresTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *SimilarStructuresTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a similarStructuresArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid search_similar_structures arguments").WithCause(err)
	}
	if a.SMILES == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "smiles is required")
	}
	threshold := 0.7
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, types.NewError(types.ErrInvalidRequest, "threshold must be between 0.0 and 1.0")
	}

	data, err := t.client.StructureSearch(ctx, a.SMILES, threshold, 10)
	if err != nil {
		return nil, err
	}

	hits := digSlice(data, "results")
	formatted := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		h, ok := hit.(map[string]any)
		if !ok {
			continue
		}
		numDocs := h["numDocs"]
		if numDocs == nil {
			numDocs = 0
		}
		formatted = append(formatted, map[string]any{
			"surechembl_id": h["id"],
			"similarity":    h["similarity"],
			"num_patents":   numDocs,
		})
	}
	return formatted, nil
}

// ChemicalFrequencyTool reports how often a compound appears across the
// patent corpus, as a quick novelty signal.
type ChemicalFrequencyTool struct {
	client *SureChEMBLClient
	ttl    time.Duration
}

// NewChemicalFrequencyTool creates the tool.
func NewChemicalFrequencyTool(client *SureChEMBLClient, ttl time.Duration) *ChemicalFrequencyTool {
	return &ChemicalFrequencyTool{client: client, ttl: ttl}
}

type chemicalFrequencyArgs struct {
	CompoundName string `json:"compound_name"`
}

// Schema implements Tool.
func (t *ChemicalFrequencyTool) Schema() types.ToolSchema { return schemaChemicalFrequency }

// CachePolicy implements the cache contract.
func (t *ChemicalFrequencyTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *ChemicalFrequencyTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a chemicalFrequencyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid get_chemical_frequency arguments").WithCause(err)
	}
	if a.CompoundName == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "compound_name is required")
	}

	// Exact-phrase search; one result per page is enough, only the total
	// matters.
	data, err := t.client.ContentSearch(ctx, fmt.Sprintf("%q", a.CompoundName), 1)
	if err != nil {
		return nil, err
	}

	total := 0
	if v, ok := data["totalRecords"].(float64); ok {
		total = int(v)
	}
	status := "Novel/Rare"
	switch {
	case total > 10000:
		status = "Heavily Patented"
	case total > 1000:
		status = "Common/Commodity"
	case total > 100:
		status = "Known"
	}
	return map[string]any{
		"compound":     a.CompoundName,
		"patent_count": total,
		"status":       status,
		"source":       "SureChEMBL",
	}, nil
}

// ChemicalByNameTool fetches basic chemical identity by name. Name search
// returns the reduced property set; lookup_chemical_by_id has the full
// drug-likeness data.
type ChemicalByNameTool struct {
	client *SureChEMBLClient
}

// NewChemicalByNameTool creates the tool.
func NewChemicalByNameTool(client *SureChEMBLClient) *ChemicalByNameTool {
	return &ChemicalByNameTool{client: client}
}

type chemicalByNameArgs struct {
	ChemicalName string `json:"chemical_name"`
}

// Schema implements Tool.
func (t *ChemicalByNameTool) Schema() types.ToolSchema { return schemaChemicalByName }

// CachePolicy implements the cache contract. Chemical identity never
// changes, so results pin in the permanent tier.
func (t *ChemicalByNameTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: 0}
}

// Execute implements Tool.
func (t *ChemicalByNameTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a chemicalByNameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid lookup_chemical_by_name arguments").WithCause(err)
	}
	if a.ChemicalName == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "chemical_name is required")
	}

	chem, err := t.client.ChemicalByName(ctx, a.ChemicalName)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"surechembl_id":    chem["chemical_id"],
		"name":             chem["name"],
		"smiles":           chem["smiles"],
		"inchi":            chem["inchi"],
		"inchikey":         chem["inchi_key"],
		"molecular_weight": chem["mol_weight"],
		"global_frequency": chem["global_frequency"],
		"is_element":       numericFlag(chem["is_element"]),
		"note":             "Use lookup_chemical_by_id for comprehensive drug-likeness properties",
	}, nil
}

// ChemicalByIDTool fetches the full chemical record by SureChEMBL id,
// including drug-likeness metrics.
type ChemicalByIDTool struct {
	client *SureChEMBLClient
}

// NewChemicalByIDTool creates the tool.
func NewChemicalByIDTool(client *SureChEMBLClient) *ChemicalByIDTool {
	return &ChemicalByIDTool{client: client}
}

type chemicalByIDArgs struct {
	SureChEMBLID string `json:"surechembl_id"`
}

// Schema implements Tool.
func (t *ChemicalByIDTool) Schema() types.ToolSchema { return schemaChemicalByID }

// CachePolicy implements the cache contract.
func (t *ChemicalByIDTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: 0}
}

// Execute implements Tool.
func (t *ChemicalByIDTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a chemicalByIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid lookup_chemical_by_id arguments").WithCause(err)
	}
	if a.SureChEMBLID == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "surechembl_id is required")
	}

	chem, err := t.client.ChemicalByID(ctx, a.SureChEMBLID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"surechembl_id":     chem["chemical_id"],
		"name":              chem["name"],
		"smiles":            chem["smiles"],
		"inchi":             chem["inchi"],
		"inchikey":          chem["inchi_key"],
		"molecular_formula": chem["mol_formula"],
		"molecular_weight":  chem["mol_weight"],

		"global_frequency": chem["global_frequency"],

		"logp":               chem["log_p"],
		"polar_surface_area": chem["psa"],
		"heavy_atoms":        chem["heavy_atoms"],

		"h_bond_donors":    chem["hbd"],
		"h_bond_acceptors": chem["hba"],

		"rotatable_bonds": chem["rtb"],
		"aromatic_rings":  chem["aromatic_rings"],

		"num_ro5_violations": chem["num_ro5_violations"],
		"ro3_pass":           numericFlag(chem["ro3_pass"]),
		"qed_weighted":       chem["qed_weighted"],

		"is_organic": numericFlag(chem["organic"]),
		"is_element": numericFlag(chem["is_element"]),
	}, nil
}

// PatentContentTool fetches a patent's title, abstract and description
// excerpt.
type PatentContentTool struct {
	client *SureChEMBLClient
}

// NewPatentContentTool creates the tool.
func NewPatentContentTool(client *SureChEMBLClient) *PatentContentTool {
	return &PatentContentTool{client: client}
}

type patentContentArgs struct {
	PatentID string `json:"patent_id"`
}

// Schema implements Tool.
func (t *PatentContentTool) Schema() types.ToolSchema { return schemaPatentContent }

// CachePolicy implements the cache contract. Published documents are
// immutable.
func (t *PatentContentTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: 0}
}

// Execute implements Tool.
func (t *PatentContentTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a patentContentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid get_patent_content arguments").WithCause(err)
	}
	if a.PatentID == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "patent_id is required")
	}

	data, err := t.client.DocumentContents(ctx, a.PatentID)
	if err != nil {
		return nil, err
	}

	doc := digMap(data, "contents", "patentDocument")
	biblio := digMap(doc, "bibliographicData")

	title := "No title"
	for _, item := range digSlice(biblio, "technicalData", "inventionTitles") {
		if m, ok := item.(map[string]any); ok && m["lang"] == "EN" {
			if s, ok := m["title"].(string); ok {
				title = s
				break
			}
		}
	}

	abstract := ""
	for _, item := range digSlice(doc, "abstracts") {
		if m, ok := item.(map[string]any); ok && m["lang"] == "EN" {
			abstract = digString(m, "section", "content")
			break
		}
	}

	// Descriptions run to hundreds of kilobytes; the model only needs a
	// taste.
	description := ""
	for _, item := range digSlice(doc, "descriptions") {
		if m, ok := item.(map[string]any); ok && m["lang"] == "EN" {
			full := digString(m, "section", "content")
			if len(full) > 1000 {
				description = full[:1000] + "..."
			} else {
				description = full
			}
			break
		}
	}

	var pubDate any
	if refs := digSlice(biblio, "publicationReference"); len(refs) > 0 {
		if m, ok := refs[0].(map[string]any); ok {
			pubDate = m["date"]
		}
	}

	docID := data["doc_id"]
	if docID == nil {
		docID = a.PatentID
	}
	return map[string]any{
		"patent_id":           docID,
		"title":               title,
		"abstract":            abstract,
		"description_excerpt": description,
		"publication_date":    pubDate,
		"url":                 "https://www.surechembl.org/document/" + a.PatentID,
	}, nil
}

// PatentFamilyTool lists a patent's family members across jurisdictions.
type PatentFamilyTool struct {
	client *SureChEMBLClient
}

// NewPatentFamilyTool creates the tool.
func NewPatentFamilyTool(client *SureChEMBLClient) *PatentFamilyTool {
	return &PatentFamilyTool{client: client}
}

// Schema implements Tool.
func (t *PatentFamilyTool) Schema() types.ToolSchema { return schemaPatentFamily }

// CachePolicy implements the cache contract.
func (t *PatentFamilyTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: 0}
}

// Execute implements Tool.
func (t *PatentFamilyTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a patentContentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid get_patent_family arguments").WithCause(err)
	}
	if a.PatentID == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "patent_id is required")
	}

	data, err := t.client.FamilyMembers(ctx, a.PatentID)
	if err != nil {
		return nil, err
	}

	var memberIDs []string
	for _, item := range digSlice(data, a.PatentID, "members") {
		if m, ok := item.(map[string]any); ok {
			for id := range m {
				memberIDs = append(memberIDs, id)
			}
		}
	}

	shown := memberIDs
	if len(shown) > 50 {
		shown = shown[:50]
	}
	return map[string]any{
		"patent_id":      a.PatentID,
		"family_size":    len(memberIDs),
		"family_members": shown,
		"note":           fmt.Sprintf("Showing %d of %d family members", len(shown), len(memberIDs)),
	}, nil
}

// StructureImageTool renders a chemical structure from SMILES as a
// base64 PNG for multimodal consumption. Not cached: the payload is large
// and regenerating it is cheap for upstream.
type StructureImageTool struct {
	client *SureChEMBLClient
}

// NewStructureImageTool creates the tool.
func NewStructureImageTool(client *SureChEMBLClient) *StructureImageTool {
	return &StructureImageTool{client: client}
}

type structureImageArgs struct {
	SMILES string `json:"smiles"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Schema implements Tool.
func (t *StructureImageTool) Schema() types.ToolSchema { return schemaStructureImage }

// Execute implements Tool.
func (t *StructureImageTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a structureImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid visualize_chemical_structure arguments").WithCause(err)
	}
	if a.SMILES == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "smiles is required")
	}
	if a.Width <= 0 {
		a.Width = 300
	}
	if a.Height <= 0 {
		a.Height = 300
	}

	encoded, err := t.client.ChemicalImage(ctx, a.SMILES, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":             "image",
		"smiles":           a.SMILES,
		"image_base64":     encoded,
		"image_url_format": "data:image/png;base64," + encoded,
		"width":            a.Width,
		"height":           a.Height,
	}, nil
}

// numericFlag interprets upstream's 0/1 integer flags.
func numericFlag(v any) bool {
	f, ok := v.(float64)
	return ok && f == 1
}

// digMap walks nested map keys, returning nil when any step is missing.
func digMap(m map[string]any, keys ...string) map[string]any {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// digSlice walks nested map keys to a slice.
func digSlice(m map[string]any, keys ...string) []any {
	if len(keys) == 0 {
		return nil
	}
	parent := digMap(m, keys[:len(keys)-1]...)
	if parent == nil {
		return nil
	}
	s, _ := parent[keys[len(keys)-1]].([]any)
	return s
}

// digString walks nested map keys to a string.
func digString(m map[string]any, keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	parent := digMap(m, keys[:len(keys)-1]...)
	if parent == nil {
		return ""
	}
	s, _ := parent[keys[len(keys)-1]].(string)
	return s
}
