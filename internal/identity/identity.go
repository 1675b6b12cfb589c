// Package identity derives stable identifiers for highlights. Amazon does
// not assign highlights an ID, so identity is a pure function of the
// highlight text: the same text always hashes to the same ID across scrapes.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 8

// HighlightID returns a deterministic identifier for a highlight: the first
// 8 hex characters of the SHA-256 of the lower-cased text. Callers must pass
// the exact extracted text after whitespace trimming, before any note or
// location is attached.
//
// Two genuinely different highlights with identical text in the same book
// collide and are treated as one record. That is a known limitation of
// content-derived identity; there is deliberately no location tie-break,
// since changing identity semantics would change reconciliation behavior.
func HighlightID(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(text)))
	return hex.EncodeToString(sum[:])[:IDLength]
}
