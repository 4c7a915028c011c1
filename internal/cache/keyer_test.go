package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	type params struct {
		Compound string `json:"compound"`
		Type     string `json:"type"`
	}

	k1 := Fingerprint("pubchem", params{Compound: "aspirin", Type: "name"})
	k2 := Fingerprint("pubchem", params{Compound: "aspirin", Type: "name"})
	assert.Equal(t, k1, k2)
}

func TestFingerprint_FieldOrderIrrelevant(t *testing.T) {
	k1 := Fingerprint("mp_search", map[string]any{"limit": 20, "criteria": "x"})
	k2 := Fingerprint("mp_search", map[string]any{"criteria": "x", "limit": 20})
	assert.Equal(t, k1, k2)
}

func TestFingerprint_OperationSeparatesKeys(t *testing.T) {
	p := map[string]any{"q": "perovskite"}
	assert.NotEqual(t, Fingerprint("web_search", p), Fingerprint("patents", p))
}

func TestFingerprint_ValueChangesKey(t *testing.T) {
	k1 := Fingerprint("web_search", map[string]any{"q": "graphene"})
	k2 := Fingerprint("web_search", map[string]any{"q": "silicene"})
	assert.NotEqual(t, k1, k2)
}

func TestFingerprint_ListOrderDistinguishes(t *testing.T) {
	// Documented behavior: list elements are not order-normalized.
	k1 := Fingerprint("web_search", map[string]any{"domains": []string{"a.org", "b.org"}})
	k2 := Fingerprint("web_search", map[string]any{"domains": []string{"b.org", "a.org"}})
	assert.NotEqual(t, k1, k2)
}
