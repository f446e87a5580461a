package revocation

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TTLStore forgets each token when the token itself expires.
type TTLStore struct {
	cache *cache.Cache
}

// NewTTLStore creates a store; defaultTTL applies when a token carries no
// expiry.
func NewTTLStore(defaultTTL time.Duration) *TTLStore {
	return &TTLStore{cache: cache.New(defaultTTL, 5*time.Minute)}
}

func (s *TTLStore) Add(_ context.Context, token string, expiresAt time.Time) error {
	ttl := cache.DefaultExpiration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	s.cache.Set(hashToken(token), struct{}{}, ttl)
	return nil
}

func (s *TTLStore) Contains(_ context.Context, token string) (bool, error) {
	_, found := s.cache.Get(hashToken(token))
	return found, nil
}
