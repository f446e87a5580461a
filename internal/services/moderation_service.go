package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/storage"
)

// ModerationService drives photos through pending -> approved -> gone.
// Removing the stored image is best-effort and never blocks a transition.
type ModerationService struct {
	photos *repository.PhotoRepository
	files  storage.FileStore
}

func NewModerationService(photos *repository.PhotoRepository, files storage.FileStore) *ModerationService {
	return &ModerationService{photos: photos, files: files}
}

// Approve publishes a pending photo. A second approval returns
// apperrors.ErrNotPending and changes nothing.
func (s *ModerationService) Approve(ctx context.Context, id string) error {
	ok, err := s.photos.Approve(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.photos.Get(ctx, id); err != nil {
		return err
	}
	return apperrors.ErrNotPending
}

// Reject removes a pending photo together with its image.
func (s *ModerationService) Reject(ctx context.Context, id string) (*models.Photo, error) {
	photo, err := s.photos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.Status != models.PhotoPending {
		return nil, apperrors.ErrNotPending
	}

	ok, err := s.photos.Reject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Approved or deleted by a concurrent request.
		if _, err := s.photos.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrNotPending
	}

	s.removeFile(ctx, photo.Filename)
	return photo, nil
}

// Delete removes a photo in any state together with its ledgers and image.
func (s *ModerationService) Delete(ctx context.Context, id string) (*models.Photo, error) {
	photo, err := s.photos.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.photos.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPhotoNotFound
	}

	s.removeFile(ctx, photo.Filename)
	return photo, nil
}

func (s *ModerationService) ListPending(ctx context.Context) ([]models.Photo, error) {
	return s.photos.ListPending(ctx)
}

func (s *ModerationService) ListReports(ctx context.Context) ([]repository.ReportView, error) {
	return s.photos.ListReports(ctx)
}

func (s *ModerationService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.photos.Stats(ctx)
}

func (s *ModerationService) removeFile(ctx context.Context, filename string) {
	if err := s.files.Delete(ctx, filename); err != nil && !errors.Is(err, storage.ErrNotExist) {
		slog.WarnContext(ctx, "failed to remove stored image", "filename", filename, "error", err)
	}
}
