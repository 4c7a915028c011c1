package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives the deterministic cache key for an operation and its
// parameters. Parameters are canonicalized by a marshal → unmarshal →
// remarshal round trip: encoding/json emits map keys in sorted order, so
// two parameter sets differing only in field order produce the same key.
//
// List-valued parameters are NOT order-normalized: ["a","b"] and
// ["b","a"] fingerprint differently. Callers that treat a list as a set
// must sort it before building parameters; this function does not decide
// for them.
func Fingerprint(operation string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Non-JSON-encodable params cannot collide with real ones.
		data = []byte(fmt.Sprintf("%+v", params))
	} else {
		var normalized any
		if err := json.Unmarshal(data, &normalized); err == nil {
			if sorted, err := json.Marshal(normalized); err == nil {
				data = sorted
			}
		}
	}

	sum := sha256.Sum256(data)
	return operation + ":" + hex.EncodeToString(sum[:])
}
