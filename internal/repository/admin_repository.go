package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAdminNotFound = errors.New("admin user not found")

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

// Create inserts the admin unless the username is taken. It reports whether
// a row was inserted.
func (r *AdminRepository) Create(ctx context.Context, username, passwordHash string) (bool, error) {
	admin := models.AdminUser{Username: username, PasswordHash: passwordHash}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&admin)
	if res.Error != nil {
		return false, fmt.Errorf("create admin: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdatePassword replaces the hash for username.
func (r *AdminRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("username = ?", username).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("update admin password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}
