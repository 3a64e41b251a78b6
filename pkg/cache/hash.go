package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/matzehuels/schemahub/pkg/registry"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint digests an owner's error list. Lines are sorted first, so the
// same set of errors yields the same fingerprint whatever order the run
// encountered them in. Transport details carried as causes are not part of
// the line and do not affect the result.
func Fingerprint(errs []*registry.ValidationError) string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			lines = append(lines, e.Line())
		}
	}
	slices.Sort(lines)
	return Hash([]byte(strings.Join(lines, "\n")))
}
