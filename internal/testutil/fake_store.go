package testutil

import (
	"context"
	"sync"
)

// FakeStore is an in-memory cache.Store for testing. Entries never expire.
// A non-nil SetErr makes every Set fail without storing.
type FakeStore struct {
	SetErr error

	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{entries: make(map[string][]byte)}
}

// Get returns the stored payload for key.
func (s *FakeStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores payload under key unless SetErr is set.
func (s *FakeStore) Set(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.SetErr != nil {
		return s.SetErr
	}
	s.entries[key] = append([]byte(nil), payload...)
	return nil
}

// Put seeds an entry directly.
func (s *FakeStore) Put(key string, payload []byte) {
	s.mu.Lock()
	s.entries[key] = payload
	s.mu.Unlock()
}

// Len returns the number of stored entries.
func (s *FakeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sets returns the number of Set calls, including failed ones.
func (s *FakeStore) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}
