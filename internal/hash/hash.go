// Package hash computes content digests of raw network records, used as a
// cheap equality oracle by the upsert engine.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Compute returns the hex SHA-256 digest of the canonical JSON form of raw.
// encoding/json sorts map keys recursively, so two structurally equal
// records hash identically regardless of key insertion order. Values keep
// their wire types: a number-as-string hashes as the string it is.
func Compute(raw map[string]any) string {
	payload, err := json.Marshal(raw)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", raw))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
