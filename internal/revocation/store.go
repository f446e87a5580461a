// Package revocation keeps track of logged-out tokens until they expire.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Store records revoked tokens. expiresAt is the token's own expiry; stores
// may forget a token once it has passed.
type Store interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// New builds the store selected by cfg.RevocationBackend.
func New(cfg *config.Config, db *gorm.DB) (Store, error) {
	switch cfg.RevocationBackend {
	case "", "memory":
		return NewMemoryStore(cfg.RevocationMaxEntries), nil
	case "ttl":
		return NewTTLStore(cfg.JWTRefreshExpiry), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client), nil
	case "database":
		return NewDBStore(db), nil
	}
	return nil, fmt.Errorf("unknown revocation backend %q", cfg.RevocationBackend)
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
