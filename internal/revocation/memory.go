package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process set that is wiped when it reaches maxEntries.
// Wiping is acceptable because access tokens expire within minutes.
type MemoryStore struct {
	mu         sync.RWMutex
	tokens     map[string]struct{}
	maxEntries int
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		tokens:     make(map[string]struct{}),
		maxEntries: maxEntries,
	}
}

func (s *MemoryStore) Add(_ context.Context, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) >= s.maxEntries {
		clear(s.tokens)
	}
	s.tokens[hashToken(token)] = struct{}{}
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[hashToken(token)]
	return ok, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
