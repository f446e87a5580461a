package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
)

const (
	SettingUploadsEnabled = "uploads_enabled"
	SettingSiteName       = "site_name"
	SettingFeedPageSize   = "feed_page_size"
)

// DefaultSettings are inserted at startup when missing.
var DefaultSettings = map[string]string{
	SettingUploadsEnabled: "true",
	SettingSiteName:       "Photo Wall",
	SettingFeedPageSize:   strconv.Itoa(repository.DefaultPageSize),
}

type SettingsService struct {
	repo *repository.SettingRepository
}

func NewSettingsService(repo *repository.SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	return s.repo.SeedDefaults(ctx, DefaultSettings)
}

func (s *SettingsService) List(ctx context.Context) ([]models.SystemSetting, error) {
	return s.repo.List(ctx)
}

func (s *SettingsService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	return s.repo.Get(ctx, key)
}

func (s *SettingsService) Set(ctx context.Context, key, value string) (*models.SystemSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 100 {
		return nil, fmt.Errorf("%w: setting key must be 1-100 characters", apperrors.ErrInvalidInput)
	}
	return s.repo.Set(ctx, key, value)
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// UploadsEnabled defaults to true when the setting is absent or unreadable.
func (s *SettingsService) UploadsEnabled(ctx context.Context) bool {
	setting, err := s.repo.Get(ctx, SettingUploadsEnabled)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			slog.Warn("failed to read uploads setting", "error", err)
		}
		return true
	}
	switch strings.ToLower(strings.TrimSpace(setting.Value)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// FeedPageSize returns the configured page size for the public feed.
func (s *SettingsService) FeedPageSize(ctx context.Context) int {
	setting, err := s.repo.Get(ctx, SettingFeedPageSize)
	if err != nil {
		return repository.DefaultPageSize
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil || n <= 0 || n > repository.MaxPageSize {
		return repository.DefaultPageSize
	}
	return n
}
