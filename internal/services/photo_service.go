package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/imaging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/storage"
	"github.com/google/uuid"
)

// ImageProcessor turns an upload into the bytes that get stored.
type ImageProcessor interface {
	Process(raw []byte, originalName string) (*imaging.Result, error)
}

type PhotoService struct {
	photos    *repository.PhotoRepository
	settings  *SettingsService
	files     storage.FileStore
	processor ImageProcessor
	now       func() time.Time
}

func NewPhotoService(photos *repository.PhotoRepository, settings *SettingsService, files storage.FileStore, processor ImageProcessor) *PhotoService {
	return &PhotoService{
		photos:    photos,
		settings:  settings,
		files:     files,
		processor: processor,
		now:       time.Now,
	}
}

// ListApproved clamps paging input and returns a page of the public feed.
func (s *PhotoService) ListApproved(ctx context.Context, page, pageSize int, sort repository.SortMode) (*repository.PhotoPage, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = s.settings.FeedPageSize(ctx)
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	return s.photos.ListApproved(ctx, page, pageSize, sort)
}

// GetApproved hides pending photos from anonymous visitors.
func (s *PhotoService) GetApproved(ctx context.Context, id string) (*models.Photo, error) {
	photo, err := s.photos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.Status != models.PhotoApproved {
		return nil, apperrors.ErrPhotoNotFound
	}
	return photo, nil
}

// Submit processes raw, stores the result and records a pending photo. The
// stored file is removed again when the row cannot be written.
func (s *PhotoService) Submit(ctx context.Context, raw []byte, originalName string) (*models.Photo, error) {
	if !s.settings.UploadsEnabled(ctx) {
		return nil, apperrors.ErrUploadsDisabled
	}

	result, err := s.processor.Process(raw, originalName)
	if err != nil {
		return nil, err
	}

	if err := s.files.Write(ctx, result.Filename, result.Data, imaging.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := s.now().UTC()
	photo := &models.Photo{
		ID:           NewPhotoID(now),
		Filename:     result.Filename,
		OriginalName: originalName,
		Size:         result.Size(),
		Status:       models.PhotoPending,
		CreatedAt:    now,
		UploadedAt:   now,
	}

	if err := s.photos.Insert(ctx, photo); err != nil {
		if rmErr := s.files.Delete(ctx, result.Filename); rmErr != nil && !errors.Is(rmErr, storage.ErrNotExist) {
			slog.Warn("failed to remove orphaned upload", "filename", result.Filename, "error", rmErr)
		}
		return nil, err
	}
	return photo, nil
}

// ImageExists reports whether filename is present in the file store.
func (s *PhotoService) ImageExists(ctx context.Context, filename string) (bool, error) {
	if !storage.ValidName(filename) {
		return false, fmt.Errorf("%w: invalid filename", apperrors.ErrInvalidInput)
	}
	return s.files.Exists(ctx, filename)
}

func (s *PhotoService) URL(filename string) string {
	return s.files.URL(filename)
}

// NewPhotoID returns photo_<unix millis>_<9 random chars>.
func NewPhotoID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "photo_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
