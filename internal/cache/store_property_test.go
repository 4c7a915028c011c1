package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestProperty_PermanentTier_CapacityBound checks that no interleaving of
// sets and gets ever grows the permanent tier past its capacity, and that
// the most recently written key is always readable right after its write.
func TestProperty_PermanentTier_CapacityBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		s, _ := newTestStore(capacity)

		ops := rapid.IntRange(1, 100).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			key := fmt.Sprintf("k%d", rapid.IntRange(0, 15).Draw(rt, "key"))
			if rapid.Bool().Draw(rt, "isWrite") {
				s.Set(key, []byte(key), 0)
				_, ok := s.Get(key)
				assert.True(rt, ok, "a key must be readable immediately after Set")
			} else {
				s.Get(key)
			}
			assert.LessOrEqual(rt, s.Len(), capacity, "permanent tier exceeded capacity")
		}
	})
}

// TestProperty_Fingerprint_Stable checks that fingerprints are pure:
// the same operation and parameters always produce the same key, and the
// operation name always participates in the key.
func TestProperty_Fingerprint_Stable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		op := rapid.StringMatching(`[a-z_]{1,12}`).Draw(rt, "op")
		params := map[string]any{
			"q":     rapid.String().Draw(rt, "q"),
			"limit": rapid.IntRange(0, 100).Draw(rt, "limit"),
		}

		k1 := Fingerprint(op, params)
		k2 := Fingerprint(op, params)
		assert.Equal(rt, k1, k2)
		assert.NotEqual(rt, Fingerprint(op+"x", params), k1)
	})
}
