package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"runtime"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"gorm.io/gorm"
)

const (
	adminDefaultPageSize = 50
	defaultAPIKeyDays    = 30
)

type AdminHandler struct {
	photos     *services.PhotoService
	moderation *services.ModerationService
	db         *gorm.DB
	cfg        *config.Config
	metrics    *metrics.GalleryMetrics
	started    time.Time
	diskPath   string
}

func NewAdminHandler(photos *services.PhotoService, moderation *services.ModerationService, db *gorm.DB, cfg *config.Config, m *metrics.GalleryMetrics, diskPath string) *AdminHandler {
	return &AdminHandler{
		photos:     photos,
		moderation: moderation,
		db:         db,
		cfg:        cfg,
		metrics:    m,
		started:    time.Now(),
		diskPath:   diskPath,
	}
}

// ListPhotos returns approved photos with admin paging (limit up to 100).
func (h *AdminHandler) ListPhotos(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", adminDefaultPageSize)
	if limit <= 0 {
		limit = adminDefaultPageSize
	}
	page, err := h.photos.ListApproved(c.UserContext(), c.QueryInt("page", 0), limit, repository.ParseSort(c.Query("sort")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(photoList(page, h.photos.URL))
}

func (h *AdminHandler) ListPending(c *fiber.Ctx) error {
	photos, err := h.moderation.ListPending(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"photos": dto.NewPhotoResponses(photos, h.photos.URL),
		"total":  len(photos),
	})
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	reports, err := h.moderation.ListReports(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReportListResponse{Reports: reports, Total: len(reports)})
}

func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}
	if err := h.moderation.Approve(c.UserContext(), id); err != nil {
		h.metrics.RecordModeration("approve", outcome(err))
		return respondError(c, err)
	}
	h.decided(c, "approve", id)
	return c.JSON(dto.ModerationResponse{Message: "Photo approved successfully", PhotoID: id})
}

func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}
	if _, err := h.moderation.Reject(c.UserContext(), id); err != nil {
		h.metrics.RecordModeration("reject", outcome(err))
		return respondError(c, err)
	}
	h.decided(c, "reject", id)
	return c.JSON(dto.ModerationResponse{Message: "Photo rejected and deleted", PhotoID: id})
}

func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	return h.delete(c, "delete", "Photo deleted successfully")
}

func (h *AdminHandler) DeleteReported(c *fiber.Ctx) error {
	return h.delete(c, "delete_reported", "Photo and all associated reports deleted successfully")
}

func (h *AdminHandler) delete(c *fiber.Ctx, decision, message string) error {
	id, ok := photoID(c)
	if !ok {
		return badRequest(c, "Invalid photo id")
	}
	if _, err := h.moderation.Delete(c.UserContext(), id); err != nil {
		h.metrics.RecordModeration(decision, outcome(err))
		return respondError(c, err)
	}
	h.decided(c, decision, id)
	return c.JSON(dto.ModerationResponse{Message: message, PhotoID: id})
}

func (h *AdminHandler) decided(c *fiber.Ctx, decision, id string) {
	h.metrics.RecordModeration(decision, "success")
	logging.Security(c.UserContext(), "admin_"+decision,
		append(middleware.AuditAttrs(c), "photo_id", id, "admin", middleware.AdminUsername(c))...)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.moderation.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) SystemStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	resp := dto.SystemStatusResponse{
		Uptime:            time.Since(h.started).Round(time.Second).String(),
		GoVersion:         runtime.Version(),
		Goroutines:        runtime.NumGoroutine(),
		HeapAllocBytes:    ms.HeapAlloc,
		DBDriver:          h.cfg.DBDriver,
		RevocationBackend: h.cfg.RevocationBackend,
		StorageBackend:    h.cfg.StorageBackend,
		Environment:       h.cfg.Env,
		Host:              map[string]any{},
	}
	if sqlDB, err := h.db.DB(); err == nil {
		resp.DBOpenConnections = sqlDB.Stats().OpenConnections
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.Host["memory_total_bytes"] = vm.Total
		resp.Host["memory_used_percent"] = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, h.diskPath); err == nil {
		resp.Host["disk_free_bytes"] = du.Free
		resp.Host["disk_used_percent"] = du.UsedPercent
	}
	return c.JSON(resp)
}

// GenerateAPIKey returns a fresh key. It only takes effect once added to
// API_KEYS; the expiry is advisory.
func (h *AdminHandler) GenerateAPIKey(c *fiber.Ctx) error {
	var req dto.GenerateAPIKeyRequest
	if verr := bind(c, &req, false); verr != nil {
		return validationFailed(c, verr)
	}
	if req.ExpiresInDays == 0 {
		req.ExpiresInDays = defaultAPIKeyDays
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return respondError(c, err)
	}
	key := "pk_" + hex.EncodeToString(buf)
	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, req.ExpiresInDays).Format(time.RFC3339)

	logging.Security(c.UserContext(), "api_key_generated",
		append(middleware.AuditAttrs(c),
			"admin", middleware.AdminUsername(c),
			"key_name", req.KeyName,
			"key_prefix", key[:11],
			"expires_at", expiresAt)...)
	return c.Status(fiber.StatusCreated).JSON(dto.APIKeyResponse{
		APIKey:       key,
		KeyName:      req.KeyName,
		CreatedAt:    now.Format(time.RFC3339),
		ExpiresAt:    expiresAt,
		Instructions: "Add this key to API_KEYS (comma-separated) and restart the server",
	})
}
