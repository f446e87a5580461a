package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"gorm.io/gorm"
)

const resourceWarnPercent = 90.0

// HealthChecker is implemented by file stores that can report readiness.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

type HealthHandler struct {
	db       *gorm.DB
	files    HealthChecker
	diskPath string
	started  time.Time
}

// NewHealthHandler builds the health check. files may be nil.
func NewHealthHandler(db *gorm.DB, files HealthChecker, diskPath string) *HealthHandler {
	return &HealthHandler{db: db, files: files, diskPath: diskPath, started: time.Now()}
}

// Check reports 503 when the database or the file store is unavailable.
// Memory and disk pressure only produce warnings.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := map[string]dto.HealthCheck{}
	healthy := true

	start := time.Now()
	if err := database.Ping(h.db); err != nil {
		healthy = false
		checks["database"] = dto.HealthCheck{Status: "unhealthy", Message: err.Error()}
	} else {
		checks["database"] = dto.HealthCheck{Status: "healthy", Latency: time.Since(start).String()}
	}

	if h.files != nil {
		if err := h.files.Healthy(ctx); err != nil {
			healthy = false
			checks["storage"] = dto.HealthCheck{Status: "unhealthy", Message: err.Error()}
		} else {
			checks["storage"] = dto.HealthCheck{Status: "healthy"}
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		checks["memory"] = usageCheck(vm.UsedPercent)
	}
	if du, err := disk.UsageWithContext(ctx, h.diskPath); err == nil {
		checks["disk"] = usageCheck(du.UsedPercent)
	}

	resp := dto.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Checks:    checks,
	}
	if !healthy {
		resp.Status = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func usageCheck(usedPercent float64) dto.HealthCheck {
	check := dto.HealthCheck{Status: "healthy", Message: fmt.Sprintf("%.1f%% used", usedPercent)}
	if usedPercent >= resourceWarnPercent {
		check.Status = "warning"
	}
	return check
}
