// Package fingerprint derives the pseudo-anonymous identifier used to
// deduplicate likes and reports. Visitors sharing an address and browser
// share an identifier.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length is the number of hex characters kept from the digest.
const Length = 16

const unknown = "unknown"

// Compute returns a deterministic identifier for the ip and user agent pair.
// Empty inputs are treated as "unknown".
func Compute(ip, userAgent string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = unknown
	}
	if userAgent == "" {
		userAgent = unknown
	}
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:Length]
}
