// Package cache memoizes GraphQL responses for a short time-to-live.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a stored response stays eligible to be served.
const DefaultTTL = 30 * time.Second

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 128

// ErrInvalidKey is returned for keys that are not safe as a file name.
var ErrInvalidKey = errors.New("cache: key is invalid")

// Store is the interface for query-result caching.
//
// Get never errors: a missing, expired or unreadable entry is a miss.
type Store interface {
	// Get returns the payload stored under key.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores payload under key, replacing any previous entry.
	Set(ctx context.Context, key string, payload []byte) error
}

// Purger is implemented by stores that can drop every entry at once.
type Purger interface {
	Purge(ctx context.Context) error
}

// ValidateKey checks that key is non-empty, bounded, and uses only
// [0-9A-Za-z_-], so it can be used directly as a path component.
func ValidateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return ErrInvalidKey
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
		default:
			return ErrInvalidKey
		}
	}
	return nil
}
