package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/captcha"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PhotoHandler struct {
	photos         *services.PhotoService
	engagement     *services.EngagementService
	captcha        captcha.Verifier
	metrics        *metrics.GalleryMetrics
	maxUploadBytes int
}

func NewPhotoHandler(photos *services.PhotoService, engagement *services.EngagementService, verifier captcha.Verifier, m *metrics.GalleryMetrics, maxUploadBytes int) *PhotoHandler {
	return &PhotoHandler{
		photos:         photos,
		engagement:     engagement,
		captcha:        verifier,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
	}
}

// List returns the approved feed. Query: page (0-based), limit, sort.
func (h *PhotoHandler) List(c *fiber.Ctx) error {
	page, err := h.photos.ListApproved(c.UserContext(),
		c.QueryInt("page", 0),
		c.QueryInt("limit", 0),
		repository.ParseSort(c.Query("sort")),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(photoList(page, h.photos.URL))
}

func (h *PhotoHandler) Get(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}
	photo, err := h.photos.GetApproved(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPhotoResponse(photo, h.photos.URL))
}

// Upload accepts a multipart form with an "image" file and a captcha token.
func (h *PhotoHandler) Upload(c *fiber.Ctx) error {
	ctx := c.UserContext()

	header, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "No image file provided")
	}
	if header.Size > int64(h.maxUploadBytes) {
		h.metrics.RecordUpload("rejected")
		return badRequest(c, fmt.Sprintf("Image exceeds the %d byte limit", h.maxUploadBytes))
	}

	if !h.captcha.Verify(ctx, captchaToken(c), c.IP()) {
		h.metrics.RecordUpload("captcha_failed")
		logging.Security(ctx, "upload_captcha_failed", middleware.AuditAttrs(c)...)
		return respondError(c, apperrors.ErrCaptchaFailed)
	}

	file, err := header.Open()
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}
	defer file.Close()
	raw, err := io.ReadAll(io.LimitReader(file, int64(h.maxUploadBytes)+1))
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}

	photo, err := h.photos.Submit(ctx, raw, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidImage), errors.Is(err, apperrors.ErrUploadsDisabled):
			h.metrics.RecordUpload("rejected")
		default:
			h.metrics.RecordUpload("error")
		}
		return respondError(c, err)
	}

	h.metrics.RecordUpload("accepted")
	logging.Business(ctx, "photo_uploaded", "photo_id", photo.ID, "size", photo.Size)
	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		Message: "Photo uploaded successfully and is pending approval",
		Photo:   dto.NewPhotoResponse(photo, h.photos.URL),
	})
}

// Like toggles the caller's like on an approved photo.
func (h *PhotoHandler) Like(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}

	var req dto.LikeRequest
	if verr := bind(c, &req, true); verr != nil {
		return validationFailed(c, verr)
	}
	if !h.captcha.Verify(ctx, req.CaptchaToken, c.IP()) {
		h.metrics.RecordLike("captcha_failed")
		return respondError(c, apperrors.ErrCaptchaFailed)
	}

	result, err := h.engagement.ToggleLike(ctx, id, visitor(c))
	if err != nil {
		h.metrics.RecordLike(outcome(err))
		return respondError(c, err)
	}

	h.metrics.RecordLike(string(result.Action))
	logging.Business(ctx, "photo_"+string(result.Action), "photo_id", id, "likes", result.Likes)
	return c.JSON(dto.LikeResponse{
		Action: string(result.Action),
		Likes:  result.Likes,
	})
}

// Report files the caller's single report against a photo.
func (h *PhotoHandler) Report(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}

	var req dto.ReportRequest
	if verr := bind(c, &req, false); verr != nil {
		return validationFailed(c, verr)
	}
	if !h.captcha.Verify(ctx, req.CaptchaToken, c.IP()) {
		h.metrics.RecordReport(req.Reason, "captcha_failed")
		return respondError(c, apperrors.ErrCaptchaFailed)
	}

	count, err := h.engagement.Report(ctx, id, visitor(c), req.Reason, req.Details)
	if err != nil {
		h.metrics.RecordReport(req.Reason, outcome(err))
		return respondError(c, err)
	}

	h.metrics.RecordReport(req.Reason, "accepted")
	logging.Business(ctx, "photo_reported", "photo_id", id, "reason", req.Reason, "report_count", count)
	return c.JSON(dto.ReportResponse{
		Message:     "Photo reported successfully",
		ReportCount: count,
	})
}

// CheckImage reports whether a stored image exists.
func (h *PhotoHandler) CheckImage(c *fiber.Ctx) error {
	filename := c.Params("filename")
	exists, err := h.photos.ImageExists(c.UserContext(), filename)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ImageCheckResponse{Filename: filename, Exists: exists})
}

func photoList(page *repository.PhotoPage, urlFor func(string) string) dto.PhotoListResponse {
	return dto.PhotoListResponse{
		Photos: dto.NewPhotoResponses(page.Photos, urlFor),
		Pagination: dto.Pagination{
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    page.Total,
			HasMore:  page.HasMore,
		},
	}
}

func visitor(c *fiber.Ctx) services.Visitor {
	return services.Visitor{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// captchaToken reads the token from a multipart form in either spelling.
func captchaToken(c *fiber.Ctx) string {
	if token := c.FormValue("captcha_token"); token != "" {
		return token
	}
	return c.FormValue("captchaToken")
}

// outcome labels a failed like or report for metrics.
func outcome(err error) string {
	switch {
	case apperrors.IsConflict(err):
		return "duplicate"
	case errors.Is(err, apperrors.ErrNotEligible), errors.Is(err, apperrors.ErrPhotoNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid"
	}
	return "error"
}
