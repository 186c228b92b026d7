package ratelimit

import "sync"

// Store is the policy source consulted on every admission check.
// Persistence, if any, lives behind this interface and outside the core.
type Store interface {
	// Get returns the policy for a key and whether one is configured.
	Get(key string) (Policy, bool)

	// Set installs or replaces the policy for a key.
	Set(key string, p Policy)
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{policies: make(map[string]Policy)}
}

// Get returns the policy for a key.
func (s *MemoryStore) Get(key string) (Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[key]
	return p, ok
}

// Set installs or replaces the policy for a key.
func (s *MemoryStore) Set(key string, p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[key] = p
}

var _ Store = (*MemoryStore)(nil)
