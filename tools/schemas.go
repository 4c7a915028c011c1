package tools

import (
	"encoding/json"

	"github.com/matdisco/matdisco/types"
)

// Function-call schemas for every tool, in JSON Schema form. Descriptions
// are written for the model, not for human readers: they carry the usage
// guidance the model needs to pick the right tool and fill parameters.

var schemaWebSearch = types.ToolSchema{
	Name:        "web_search",
	Description: "Search the web for literature, concepts, prices, or validation of claims. Backed by Exa.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Natural language search query"},
			"num_results": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Number of results to return (default 5)"},
			"type": {"type": "string", "enum": ["keyword", "neural", "auto"], "description": "Search type: keyword (Google-like), neural (embeddings), or auto"},
			"include_domains": {"type": "array", "items": {"type": "string"}, "description": "Domains to restrict results to, e.g. [\"arxiv.org\", \"nature.com\"]"},
			"exclude_domains": {"type": "array", "items": {"type": "string"}, "description": "Domains to exclude"},
			"start_published_date": {"type": "string", "description": "Earliest publication date, ISO 8601"},
			"end_published_date": {"type": "string", "description": "Latest publication date, ISO 8601"}
		},
		"required": ["query"]
	}`),
}

var schemaMPSearch = types.ToolSchema{
	Name: "search_materials_project",
	Description: "Search the Materials Project database of inorganic materials by composition, stability, " +
		"electronic, mechanical, and physical property criteria.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"criteria": {
				"type": "string",
				"description": "JSON object with search criteria. Numeric ranges are [min, max] arrays (null for open bounds). Common fields: elements (list), exclude_elements, num_elements, formula, chemsys, crystal_system, energy_above_hull, formation_energy_per_atom, is_stable, band_gap, is_metal, is_gap_direct, k_vrh, g_vrh, poisson_ratio, density, volume, e_total, n, total_magnetization, magnetic_ordering. Example: {\"elements\": [\"Li\", \"Fe\", \"O\"], \"energy_above_hull\": [0, 0.05], \"band_gap\": [1.5, 3.0]}"
			},
			"fields": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Fields to return. Default: material_id, formula_pretty, band_gap, density, formation_energy_per_atom"
			},
			"limit": {"type": "integer", "minimum": 1, "maximum": 1000, "description": "Maximum number of results (default 20)"}
		},
		"required": ["criteria"]
	}`),
}

var schemaFieldStats = types.ToolSchema{
	Name: "get_field_stats",
	Description: "Get the statistical distribution of a numeric Materials Project field (min, max, mean, " +
		"percentiles, examples) to understand what counts as typical, high, or low before searching.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"field": {"type": "string", "description": "Field name, e.g. band_gap (eV), density (g/cm3), formation_energy_per_atom (eV/atom), energy_above_hull, k_vrh (GPa), g_vrh (GPa), efermi"}
		},
		"required": ["field"]
	}`),
}

var schemaPubChemSearch = types.ToolSchema{
	Name: "search_pubchem",
	Description: "Look up a compound in PubChem: molecular properties, identifiers, and drug-likeness " +
		"descriptors for organic compounds and polymers.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"compound": {"type": "string", "description": "Compound identifier; format depends on search_type. Examples: aspirin (name), 2244 (cid), C9H8O4 (formula), CCO (smiles)"},
			"search_type": {"type": "string", "enum": ["name", "cid", "formula", "smiles", "inchikey"], "description": "Identifier namespace (default name)"},
			"include_synonyms": {"type": "boolean", "description": "Also return alternative names for the compound"}
		},
		"required": ["compound"]
	}`),
}

var schemaPatentSearch = types.ToolSchema{
	Name: "search_patents",
	Description: "Search the SureChEMBL patent database by text. Useful for industrial applications and " +
		"prior art. Combine terms with AND/OR; quote exact phrases.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Patent search query, e.g. \"lithium iron phosphate\" AND battery"}
		},
		"required": ["query"]
	}`),
}

var schemaSimilarStructures = types.ToolSchema{
	Name:        "search_similar_structures",
	Description: "Find chemicals structurally similar to a SMILES structure across the patent database.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"smiles": {"type": "string", "description": "SMILES notation of the query structure, e.g. CCO for ethanol"},
			"threshold": {"type": "number", "minimum": 0, "maximum": 1, "description": "Similarity threshold; higher is stricter (default 0.7)"}
		},
		"required": ["smiles"]
	}`),
}

var schemaChemicalFrequency = types.ToolSchema{
	Name: "get_chemical_frequency",
	Description: "Count how often a compound appears in the patent database, as a novelty signal: high " +
		"frequency means well established, zero means potentially novel.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"compound_name": {"type": "string", "description": "Name of the chemical to check"}
		},
		"required": ["compound_name"]
	}`),
}

var schemaChemicalByName = types.ToolSchema{
	Name: "lookup_chemical_by_name",
	Description: "Get basic chemical identity (SMILES, InChI, molecular weight, patent frequency) by name " +
		"from SureChEMBL. Use lookup_chemical_by_id for full drug-likeness data.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"chemical_name": {"type": "string", "description": "Chemical name to look up"}
		},
		"required": ["chemical_name"]
	}`),
}

var schemaChemicalByID = types.ToolSchema{
	Name: "lookup_chemical_by_id",
	Description: "Get the comprehensive chemical record by SureChEMBL ID, including drug-likeness metrics " +
		"(Lipinski violations, QED, TPSA, hydrogen bonding).",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"surechembl_id": {"type": "string", "description": "SureChEMBL chemical ID"}
		},
		"required": ["surechembl_id"]
	}`),
}

var schemaPatentContent = types.ToolSchema{
	Name:        "get_patent_content",
	Description: "Fetch a patent document's title, abstract, and description excerpt.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"patent_id": {"type": "string", "description": "Patent ID, e.g. WO-2020096695-A1 or EP-0008067-B1"}
		},
		"required": ["patent_id"]
	}`),
}

var schemaPatentFamily = types.ToolSchema{
	Name:        "get_patent_family",
	Description: "List a patent's family members (related filings across jurisdictions).",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"patent_id": {"type": "string", "description": "Patent ID, e.g. EP-0008067-B1"}
		},
		"required": ["patent_id"]
	}`),
}

var schemaRememberFact = types.ToolSchema{
	Name: "remember_fact",
	Description: "Store a durable fact or preference the user shares about themselves or their research " +
		"(e.g. their focus area, preferred units, ongoing projects) so future sessions can use it.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"fact": {"type": "string", "description": "One self-contained fact about the user, e.g. \"Works on solid-state battery cathodes\""}
		},
		"required": ["fact"]
	}`),
}

var schemaRecallFacts = types.ToolSchema{
	Name:        "recall_facts",
	Description: "Search previously stored facts about the user across all sessions.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Substring to match against stored facts, e.g. \"battery\""}
		},
		"required": ["query"]
	}`),
}

var schemaStructureImage = types.ToolSchema{
	Name: "visualize_chemical_structure",
	Description: "Render a chemical structure image from SMILES notation. Returns a base64 PNG suitable " +
		"for multimodal input.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"smiles": {"type": "string", "description": "SMILES notation of the structure to render"},
			"width": {"type": "integer", "description": "Image width in pixels (default 300)"},
			"height": {"type": "integer", "description": "Image height in pixels (default 300)"}
		},
		"required": ["smiles"]
	}`),
}
