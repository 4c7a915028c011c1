package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/internal/httpx"
	"github.com/matdisco/matdisco/types"
)

// pubchemProperties is the property set requested for every compound:
// identifiers, drug-likeness descriptors, and structural features.
var pubchemProperties = []string{
	"MolecularFormula", "MolecularWeight", "CanonicalSMILES", "IsomericSMILES",
	"InChI", "InChIKey", "IUPACName", "Title",
	"XLogP", "ExactMass", "MonoisotopicMass", "TPSA", "Complexity",
	"HBondDonorCount", "HBondAcceptorCount",
	"RotatableBondCount", "HeavyAtomCount", "AtomStereoCount", "DefinedAtomStereoCount",
	"BondStereoCount", "DefinedBondStereoCount", "CovalentUnitCount",
	"Charge", "Volume3D", "ConformerModelRMSD3D", "ConformerCount3D",
}

// PubChemClient talks to the PubChem PUG REST API.
type PubChemClient struct {
	client  httpx.Doer
	baseURL string
	logger  *zap.Logger
}

// NewPubChemClient creates a client. client may be nil to use a hardened
// default.
func NewPubChemClient(baseURL string, client httpx.Doer, logger *zap.Logger) *PubChemClient {
	if client == nil {
		client = httpx.SecureClient(30 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubChemClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(zap.String("component", "pubchem_client")),
	}
}

type pubchemPropertyResponse struct {
	PropertyTable struct {
		Properties []map[string]any `json:"Properties"`
	} `json:"PropertyTable"`
}

type pubchemSynonymResponse struct {
	InformationList struct {
		Information []struct {
			Synonym []string `json:"Synonym"`
		} `json:"Information"`
	} `json:"InformationList"`
}

// Properties fetches the full property set for one compound. namespace is
// the PUG identifier type: name, cid, formula, smiles or inchikey.
func (c *PubChemClient) Properties(ctx context.Context, namespace, compound string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/compound/%s/%s/property/%s/JSON",
		c.baseURL, namespace, url.PathEscape(compound), strings.Join(pubchemProperties, ","))

	var resp pubchemPropertyResponse
	if err := httpx.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.PropertyTable.Properties) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("compound %q not found in PubChem", compound))
	}
	return resp.PropertyTable.Properties[0], nil
}

// Synonyms fetches alternative names for one compound, capped to keep
// payloads readable.
func (c *PubChemClient) Synonyms(ctx context.Context, namespace, compound string, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/compound/%s/%s/synonyms/JSON",
		c.baseURL, namespace, url.PathEscape(compound))

	var resp pubchemSynonymResponse
	if err := httpx.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.InformationList.Information) == 0 {
		return nil, nil
	}
	syns := resp.InformationList.Information[0].Synonym
	if len(syns) > limit {
		syns = syns[:limit]
	}
	return syns, nil
}

// PubChemSearchTool looks up compound data: properties, identifiers and
// drug-likeness descriptors.
type PubChemSearchTool struct {
	client *PubChemClient
	ttl    time.Duration
}

// NewPubChemSearchTool creates the tool.
func NewPubChemSearchTool(client *PubChemClient, ttl time.Duration) *PubChemSearchTool {
	return &PubChemSearchTool{client: client, ttl: ttl}
}

type pubchemSearchArgs struct {
	Compound        string `json:"compound"`
	SearchType      string `json:"search_type"`
	IncludeSynonyms bool   `json:"include_synonyms"`
}

var pubchemNamespaces = map[string]bool{
	"name": true, "cid": true, "formula": true, "smiles": true, "inchikey": true,
}

// Schema implements Tool.
func (t *PubChemSearchTool) Schema() types.ToolSchema { return schemaPubChemSearch }

// CachePolicy implements the cache contract.
func (t *PubChemSearchTool) CachePolicy(json.RawMessage) CachePolicy {
	return CachePolicy{Cacheable: true, TTL: t.ttl}
}

// Execute implements Tool.
func (t *PubChemSearchTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var a pubchemSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid search_pubchem arguments").WithCause(err)
	}
	if a.Compound == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "compound is required")
	}
	if a.SearchType == "" {
		a.SearchType = "name"
	}
	if !pubchemNamespaces[a.SearchType] {
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unsupported search_type %q", a.SearchType))
	}

	props, err := t.client.Properties(ctx, a.SearchType, a.Compound)
	if err != nil {
		return nil, err
	}

	name, _ := props["IUPACName"].(string)
	if name == "" {
		name, _ = props["Title"].(string)
	}
	if name == "" {
		name = a.Compound
	}

	result := map[string]any{
		"cid":           props["CID"],
		"compound_name": name,

		"molecular_formula": props["MolecularFormula"],
		"molecular_weight":  props["MolecularWeight"],
		"exact_mass":        props["ExactMass"],
		"monoisotopic_mass": props["MonoisotopicMass"],

		"canonical_smiles": props["CanonicalSMILES"],
		"isomeric_smiles":  props["IsomericSMILES"],
		"inchi":            props["InChI"],
		"inchikey":         props["InChIKey"],

		"xlogp":      props["XLogP"],
		"tpsa":       props["TPSA"],
		"complexity": props["Complexity"],

		"h_bond_donors":    props["HBondDonorCount"],
		"h_bond_acceptors": props["HBondAcceptorCount"],
		"rotatable_bonds":  props["RotatableBondCount"],
		"heavy_atoms":      props["HeavyAtomCount"],
		"covalent_units":   props["CovalentUnitCount"],
		"charge":           props["Charge"],
	}

	if a.IncludeSynonyms {
		syns, err := t.client.Synonyms(ctx, a.SearchType, a.Compound, 20)
		if err != nil {
			// Synonyms are a nice-to-have; the property lookup already
			// succeeded, so degrade instead of failing the whole call.
			result["synonyms_error"] = err.Error()
		} else {
			result["synonyms"] = syns
		}
	}
	return result, nil
}
