package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/fingerprint"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
)

const MaxReportDetails = 500

// Visitor is the raw request identity of an anonymous caller.
type Visitor struct {
	IP        string
	UserAgent string
}

func (v Visitor) actor() repository.Actor {
	return repository.Actor{
		Identifier: fingerprint.Compute(v.IP, v.UserAgent),
		IPAddress:  v.IP,
		UserAgent:  v.UserAgent,
	}
}

type EngagementService struct {
	photos *repository.PhotoRepository
}

func NewEngagementService(photos *repository.PhotoRepository) *EngagementService {
	return &EngagementService{photos: photos}
}

// ToggleLike likes the photo for visitor, or unlikes it if already liked.
func (s *EngagementService) ToggleLike(ctx context.Context, photoID string, visitor Visitor) (*repository.LikeResult, error) {
	return s.photos.ToggleLike(ctx, photoID, visitor.actor())
}

// Report files one report per visitor fingerprint and returns the photo's
// new report count.
func (s *EngagementService) Report(ctx context.Context, photoID string, visitor Visitor, reason, details string) (int, error) {
	if !models.ValidReportReason(reason) {
		return 0, fmt.Errorf("%w: unknown report reason %q", apperrors.ErrInvalidInput, reason)
	}
	details = strings.TrimSpace(details)
	if utf8.RuneCountInString(details) > MaxReportDetails {
		return 0, fmt.Errorf("%w: details must be at most %d characters", apperrors.ErrInvalidInput, MaxReportDetails)
	}
	return s.photos.RecordReport(ctx, photoID, visitor.actor(), reason, details)
}
