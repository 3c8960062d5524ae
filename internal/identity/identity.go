// Package identity derives stable content-addressed identifiers for curated
// records. Equal inputs always produce equal ids, which is what makes
// full-replace writes idempotent across runs.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Namespace tags the PMDA dataset; part of every digest input.
const Namespace = "PMDA"

// Digest hashes the UTF-8 concatenation of (namespace, sourceID, date) with
// SHA-256 and returns the hex form. Missing components must be passed as
// empty strings so that "missing" always hashes the same way.
func Digest(namespace, sourceID, date string) string {
	sum := sha256.Sum256([]byte(namespace + sourceID + date))
	return hex.EncodeToString(sum[:])
}
