// Package fp computes stable fingerprints used as idempotency keys.
//
// Grounded on the teacher's internal/fp package (source/targetPath dedup
// fingerprint), generalized from "dedupe identical download requests" to
// "dedupe identical journal rows" — the journal (internal/journal) uses
// Fingerprint as a unique key so a Notification Sink callback that fires
// twice for the same transition (a known possibility given the documented
// retry-engine race window, spec.md §4.5 and §9) does not produce two
// audit rows.
package fp

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize trims surrounding whitespace. Further normalization (case
// folding, URL canonicalization) can be added later if a transport needs
// it; none of the fields fingerprinted today require it.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// Fingerprint computes a stable hex-encoded SHA-256 over the normalized
// parts, joined by a NUL separator so no input value can be confused with
// a separator.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(Normalize(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
