package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists revoked token hashes in the revoked_tokens table so that
// revocations survive restarts. Expired rows are purged by the database
// maintenance loop.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Add(ctx context.Context, token string, expiresAt time.Time) error {
	row := models.RevokedToken{
		ID:        uuid.NewString(),
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_hash"}}, DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("store revoked token: %w", err)
	}
	return nil
}

func (s *DBStore) Contains(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_hash = ? AND expires_at > ?", hashToken(token), time.Now().UTC()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("revoked token lookup: %w", err)
	}
	return count > 0, nil
}
