package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// SortMode selects the ordering of the approved feed.
type SortMode string

const (
	SortRecent SortMode = "recent"
	SortLiked  SortMode = "liked"
)

// ParseSort returns SortLiked for "liked" and SortRecent for anything else.
func ParseSort(s string) SortMode {
	if SortMode(s) == SortLiked {
		return SortLiked
	}
	return SortRecent
}

// LikeAction is the outcome of a toggle.
type LikeAction string

const (
	ActionLiked   LikeAction = "liked"
	ActionUnliked LikeAction = "unliked"
)

// Actor identifies the anonymous visitor behind a like or report. IPAddress
// and UserAgent are stored for audit only.
type Actor struct {
	Identifier string
	IPAddress  string
	UserAgent  string
}

type PhotoPage struct {
	Photos   []models.Photo
	Total    int64
	Page     int
	PageSize int
	HasMore  bool
}

type LikeResult struct {
	Action LikeAction
	Likes  int
}

// ReportView is a report joined with the photo it points at.
type ReportView struct {
	ID           uint      `json:"id"`
	PhotoID      string    `json:"photo_id"`
	Reason       string    `json:"reason"`
	Details      string    `json:"details,omitempty"`
	ReportedAt   time.Time `json:"reported_at"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ReportCount  int       `json:"report_count"`
	Status       string    `json:"status"`
}

type Stats struct {
	TotalPhotos   int64 `json:"total_photos"`
	PendingPhotos int64 `json:"pending_photos"`
	TotalLikes    int64 `json:"total_likes"`
	TotalReports  int64 `json:"total_reports"`
	RecentUploads int64 `json:"recent_uploads"`
}

// PhotoRepository owns photos and the like/report ledgers. Every exported
// method runs as a single transaction.
type PhotoRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, used by tests.
func (r *PhotoRepository) WithClock(now func() time.Time) *PhotoRepository {
	r.now = now
	return r
}

func feedOrder(sort SortMode) string {
	if sort == SortLiked {
		return "likes DESC, created_at DESC, id DESC"
	}
	return "created_at DESC, id DESC"
}

// ListApproved returns one page of approved photos. page is 0-indexed.
func (r *PhotoRepository) ListApproved(ctx context.Context, page, pageSize int, sort SortMode) (*PhotoPage, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	result := &PhotoPage{Page: page, PageSize: pageSize, Photos: []models.Photo{}}
	offset, inRange := pageOffset(page, pageSize)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).
			Where("status = ?", models.PhotoApproved).
			Count(&result.Total).Error; err != nil {
			return err
		}
		if !inRange || int64(offset) >= result.Total {
			return nil
		}
		return tx.Where("status = ?", models.PhotoApproved).
			Order(feedOrder(sort)).
			Limit(pageSize).
			Offset(offset).
			Find(&result.Photos).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list approved photos: %w", err)
	}
	if inRange {
		result.HasMore = int64(offset)+int64(len(result.Photos)) < result.Total
	}
	return result, nil
}

// pageOffset reports false when page*pageSize does not fit in an int.
func pageOffset(page, pageSize int) (int, bool) {
	if page > (math.MaxInt-pageSize)/pageSize {
		return 0, false
	}
	return page * pageSize, true
}

// ListPending returns photos awaiting review, oldest first.
func (r *PhotoRepository) ListPending(ctx context.Context) ([]models.Photo, error) {
	photos := []models.Photo{}
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.PhotoPending).
		Order("created_at ASC, id ASC").
		Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list pending photos: %w", err)
	}
	return photos, nil
}

// Get returns apperrors.ErrPhotoNotFound when id does not exist.
func (r *PhotoRepository) Get(ctx context.Context, id string) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.WithContext(ctx).First(&photo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &photo, nil
}

func (r *PhotoRepository) Insert(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateID
		}
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// Approve moves a pending photo to approved. It reports false, and changes
// nothing, when the photo is not pending.
func (r *PhotoRepository) Approve(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("id = ? AND status = ?", id, models.PhotoPending).
		Updates(map[string]any{
			"status":      models.PhotoApproved,
			"approved_at": r.now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("approve photo: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

var errNothingDeleted = errors.New("nothing deleted")

// Reject removes a pending photo and its ledger rows. It reports false when
// the photo is missing or no longer pending.
func (r *PhotoRepository) Reject(ctx context.Context, id string) (bool, error) {
	return r.remove(ctx, id, true)
}

// Delete removes a photo in any status together with its reports, likes and
// report ledger rows.
func (r *PhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.remove(ctx, id, false)
}

func (r *PhotoRepository) remove(ctx context.Context, id string, pendingOnly bool) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ledger := range []any{&models.Report{}, &models.UserLike{}, &models.UserReport{}} {
			if err := tx.Where("photo_id = ?", id).Delete(ledger).Error; err != nil {
				return err
			}
		}
		q := tx.Where("id = ?", id)
		if pendingOnly {
			q = q.Where("status = ?", models.PhotoPending)
		}
		res := q.Delete(&models.Photo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNothingDeleted
		}
		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete photo: %w", err)
	}
	return true, nil
}

func (r *PhotoRepository) HasLiked(ctx context.Context, photoID, userIdentifier string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserLike{}).
		Where("photo_id = ? AND user_identifier = ?", photoID, userIdentifier).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

// RecordLike adds a like for an approved photo and returns the new count.
// The unique ledger index is the real guard: a concurrent duplicate insert
// surfaces as apperrors.ErrAlreadyLiked.
func (r *PhotoRepository) RecordLike(ctx context.Context, photoID string, actor Actor) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.UserLike{}).
			Where("photo_id = ? AND user_identifier = ?", photoID, actor.Identifier).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.ErrAlreadyLiked
		}

		var photo models.Photo
		if err := tx.Select("id", "status").First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotEligible
			}
			return err
		}
		if photo.Status != models.PhotoApproved {
			return apperrors.ErrNotEligible
		}

		like := models.UserLike{
			PhotoID:        photoID,
			UserIdentifier: actor.Identifier,
			IPAddress:      actor.IPAddress,
			UserAgent:      actor.UserAgent,
			LikedAt:        r.now(),
		}
		if err := tx.Create(&like).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return apperrors.ErrAlreadyLiked
			case errors.Is(err, gorm.ErrForeignKeyViolated):
				return apperrors.ErrNotEligible
			}
			return err
		}

		res := tx.Model(&models.Photo{}).
			Where("id = ? AND status = ?", photoID, models.PhotoApproved).
			UpdateColumn("likes", gorm.Expr("likes + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotEligible
		}
		return tx.Model(&models.Photo{}).Select("likes").Where("id = ?", photoID).Scan(&likes).Error
	})
	if err != nil {
		if isDomainError(err) {
			return 0, err
		}
		return 0, fmt.Errorf("record like: %w", err)
	}
	return likes, nil
}

// RemoveLike deletes the ledger row and decrements the counter, never below
// zero. Returns the new count.
func (r *PhotoRepository) RemoveLike(ctx context.Context, photoID, userIdentifier string) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("photo_id = ? AND user_identifier = ?", photoID, userIdentifier).
			Delete(&models.UserLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a deleted photo takes its ledger rows with it
			var n int64
			if err := tx.Model(&models.Photo{}).Where("id = ?", photoID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperrors.ErrPhotoNotFound
			}
			return apperrors.ErrNotLiked
		}

		if err := tx.Model(&models.Photo{}).
			Where("id = ? AND likes > 0", photoID).
			UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
			return err
		}

		var photo models.Photo
		if err := tx.Select("likes").First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPhotoNotFound
			}
			return err
		}
		likes = photo.Likes
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return 0, err
		}
		return 0, fmt.Errorf("remove like: %w", err)
	}
	return likes, nil
}

// ToggleLike reads the current like state and then likes or unlikes. The
// check and the act are separate transactions; concurrent toggles from one
// fingerprint are resolved by the ledger's unique index.
func (r *PhotoRepository) ToggleLike(ctx context.Context, photoID string, actor Actor) (*LikeResult, error) {
	liked, err := r.HasLiked(ctx, photoID, actor.Identifier)
	if err != nil {
		return nil, err
	}
	if liked {
		likes, err := r.RemoveLike(ctx, photoID, actor.Identifier)
		if err != nil {
			return nil, err
		}
		return &LikeResult{Action: ActionUnliked, Likes: likes}, nil
	}
	likes, err := r.RecordLike(ctx, photoID, actor)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Action: ActionLiked, Likes: likes}, nil
}

// RecordReport stores a report for any photo status and returns the new
// report count. A fingerprint can report a photo once.
func (r *PhotoRepository) RecordReport(ctx context.Context, photoID string, actor Actor, reason, details string) (int, error) {
	var reportCount int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.UserReport{}).
			Where("photo_id = ? AND user_identifier = ?", photoID, actor.Identifier).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.ErrAlreadyReported
		}

		var photo models.Photo
		if err := tx.Select("id").First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPhotoNotFound
			}
			return err
		}

		now := r.now()
		ledger := models.UserReport{
			PhotoID:        photoID,
			UserIdentifier: actor.Identifier,
			Reason:         reason,
			IPAddress:      actor.IPAddress,
			UserAgent:      actor.UserAgent,
			ReportedAt:     now,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return apperrors.ErrAlreadyReported
			case errors.Is(err, gorm.ErrForeignKeyViolated):
				return apperrors.ErrPhotoNotFound
			}
			return err
		}

		report := models.Report{
			PhotoID:    photoID,
			Reason:     reason,
			Details:    details,
			ReportedAt: now,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Photo{}).
			Where("id = ?", photoID).
			UpdateColumn("report_count", gorm.Expr("report_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrPhotoNotFound
		}
		return tx.Model(&models.Photo{}).Select("report_count").Where("id = ?", photoID).Scan(&reportCount).Error
	})
	if err != nil {
		if isDomainError(err) {
			return 0, err
		}
		return 0, fmt.Errorf("record report: %w", err)
	}
	return reportCount, nil
}

type reportRow struct {
	ID           uint
	PhotoID      string
	Reason       string
	Details      string
	ReportedAt   time.Time
	Filename     *string
	OriginalName *string
	ReportCount  *int
	Status       *string
}

// ListReports returns reports newest first. Reports whose photo is gone are
// left out.
func (r *PhotoRepository) ListReports(ctx context.Context) ([]ReportView, error) {
	var rows []reportRow
	if err := r.db.WithContext(ctx).
		Table("reports AS r").
		Select("r.id, r.photo_id, r.reason, r.details, r.reported_at, p.filename, p.original_name, p.report_count, p.status").
		Joins("LEFT JOIN photos AS p ON p.id = r.photo_id").
		Order("r.reported_at DESC, r.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	views := make([]ReportView, 0, len(rows))
	for _, row := range rows {
		if row.Filename == nil {
			continue
		}
		view := ReportView{
			ID:           row.ID,
			PhotoID:      row.PhotoID,
			Reason:       row.Reason,
			Details:      row.Details,
			ReportedAt:   row.ReportedAt,
			Filename:     *row.Filename,
			OriginalName: deref(row.OriginalName),
		}
		if row.ReportCount != nil {
			view.ReportCount = *row.ReportCount
		}
		view.Status = deref(row.Status)
		views = append(views, view)
	}
	return views, nil
}

// Stats aggregates gallery counters. Empty tables yield zeros.
func (r *PhotoRepository) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	weekAgo := r.now().Add(-7 * 24 * time.Hour)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).Where("status = ?", models.PhotoApproved).Count(&stats.TotalPhotos).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Photo{}).Where("status = ?", models.PhotoPending).Count(&stats.PendingPhotos).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Photo{}).
			Select("COALESCE(SUM(likes), 0)").
			Where("status = ?", models.PhotoApproved).
			Scan(&stats.TotalLikes).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Report{}).Count(&stats.TotalReports).Error; err != nil {
			return err
		}
		return tx.Model(&models.Photo{}).
			Where("status = ? AND created_at >= ?", models.PhotoApproved, weekAgo).
			Count(&stats.RecentUploads).Error
	})
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	return &stats, nil
}

func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrAlreadyLiked) ||
		errors.Is(err, apperrors.ErrNotLiked) ||
		errors.Is(err, apperrors.ErrAlreadyReported) ||
		errors.Is(err, apperrors.ErrNotEligible) ||
		errors.Is(err, apperrors.ErrPhotoNotFound)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
