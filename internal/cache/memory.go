package cache

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maypok86/otter/v2"
)

// entry wraps a cached payload with its write time.
type entry struct {
	data      []byte
	createdAt time.Time
}

// Memory is an in-process W-TinyLFU Store backed by otter. Entries do not
// outlive the process.
type Memory struct {
	cache *otter.Cache[string, entry]
	ttl   time.Duration
	clock clockwork.Clock
}

// NewMemory creates an in-memory store with the given max entry count and TTL.
// A nil clock means wall-clock time.
func NewMemory(maxSize int, ttl time.Duration, clock clockwork.Clock) (*Memory, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("create cache: ttl must be positive, got %s", ttl)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c, err := otter.New[string, entry](&otter.Options[string, entry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Memory{cache: c, ttl: ttl, clock: clock}, nil
}

// Get returns a copy of the payload if present and not older than the TTL.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, false
	}
	if m.clock.Since(e.createdAt) > m.ttl {
		m.cache.Invalidate(key)
		return nil, false
	}
	return slices.Clone(e.data), true
}

// Set stores a copy of payload, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, payload []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.cache.Set(key, entry{
		data:      append([]byte(nil), payload...),
		createdAt: m.clock.Now(),
	})
	return nil
}

// Purge removes all entries.
func (m *Memory) Purge(_ context.Context) error {
	m.cache.InvalidateAll()
	return nil
}
