package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives the cache key for a query and its bound variables: the hex
// SHA-256 of the query text, followed by a NUL and the canonical JSON of
// variables when there are any. Query text is hashed byte for byte, so
// differently formatted but equivalent queries get different keys.
func Key(query string, variables map[string]any) (string, error) {
	h := sha256.New()
	h.Write([]byte(query))
	if len(variables) > 0 {
		// encoding/json writes map keys in sorted order at every depth.
		vars, err := json.Marshal(variables)
		if err != nil {
			return "", fmt.Errorf("cache: encode variables: %w", err)
		}
		h.Write([]byte{0})
		h.Write(vars)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
