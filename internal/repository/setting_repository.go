package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// key is reserved in MySQL, so the column is always referenced quoted.
var keyColumn = clause.Column{Name: "key"}

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) List(ctx context.Context) ([]models.SystemSetting, error) {
	settings := []models.SystemSetting{}
	if err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: keyColumn}).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	if err := r.db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &setting, nil
}

// Set inserts or overwrites key.
func (r *SettingRepository) Set(ctx context.Context, key, value string) (*models.SystemSetting, error) {
	setting := models.SystemSetting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error; err != nil {
		return nil, fmt.Errorf("set setting: %w", err)
	}
	return &setting, nil
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).Delete(&models.SystemSetting{})
	if res.Error != nil {
		return fmt.Errorf("delete setting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrSettingNotFound
	}
	return nil
}

// SeedDefaults inserts missing keys and leaves existing values alone.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	now := time.Now().UTC()
	for key, value := range defaults {
		setting := models.SystemSetting{Key: key, Value: value, UpdatedAt: now}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{keyColumn}, DoNothing: true}).
			Create(&setting).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}
