package middleware

import (
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit describes one per-IP fixed window.
type RateLimit struct {
	Category   string
	Max        int
	Window     time.Duration
	SkipPassed bool // only count responses with status >= 400
}

var (
	GeneralLimit    = RateLimit{Category: "general", Max: 100, Window: 15 * time.Minute, SkipPassed: true}
	UploadLimit     = RateLimit{Category: "upload", Max: 5, Window: time.Hour}
	AdminLoginLimit = RateLimit{Category: "admin_login", Max: 3, Window: 15 * time.Minute}
	ActionLimit     = RateLimit{Category: "action", Max: 20, Window: 5 * time.Minute}
	HealthLimit     = RateLimit{Category: "health", Max: 60, Window: time.Minute, SkipPassed: true}
	PhotoLoadLimit  = RateLimit{Category: "photo_load", Max: 120, Window: time.Minute}
	StrictLimit     = RateLimit{Category: "strict", Max: 10, Window: 15 * time.Minute}
)

// Limiter enforces rl per client IP. Each call gets its own counters.
func Limiter(rl RateLimit, m *metrics.GalleryMetrics) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:                    rl.Max,
		Expiration:             rl.Window,
		SkipSuccessfulRequests: rl.SkipPassed,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rl.Category + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			retryAfter, err := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter)))
			if err != nil || retryAfter <= 0 {
				retryAfter = int(rl.Window.Seconds())
			}
			logging.Security(c.UserContext(), "rate_limit_exceeded",
				append(AuditAttrs(c), "limit_category", rl.Category, "limit", rl.Max)...)
			m.RecordRateLimited(rl.Category)
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitResponse{
				Error:      true,
				Message:    "Too many requests. Please wait a moment and try again.",
				Code:       apperrors.CodeRateLimited,
				RetryAfter: retryAfter,
			})
		},
	})
}
