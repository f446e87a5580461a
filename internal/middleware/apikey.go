package middleware

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// APIKeyRequired lets browser traffic from the gallery's own origins through
// and requires an X-API-Key header or api_key query for everything else.
// It is a no-op when no keys are configured.
func APIKeyRequired(cfg *config.Config) fiber.Handler {
	keys := cfg.APIKeyList()
	origins := cfg.AllowedOrigins()

	return func(c *fiber.Ctx) error {
		if len(keys) == 0 || isInternal(c, origins) {
			return c.Next()
		}

		key := c.Get("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}
		if key == "" {
			logging.Security(c.UserContext(), "api_access_no_key", AuditAttrs(c)...)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "API key required for external access",
				Code:    apperrors.CodeAPIKeyRequired,
			})
		}
		if !validKey(keys, key) {
			logging.Security(c.UserContext(), "api_access_invalid_key",
				append(AuditAttrs(c), "key_prefix", keyPrefix(key))...)
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Invalid API key",
				Code:    apperrors.CodeInvalidAPIKey,
			})
		}
		return c.Next()
	}
}

// isInternal reports whether the request's Origin or Referer points at this
// host or at one of the configured origins.
func isInternal(c *fiber.Ctx, origins []string) bool {
	for _, source := range []string{c.Get(fiber.HeaderOrigin), c.Get(fiber.HeaderReferer)} {
		if source == "" {
			continue
		}
		u, err := url.Parse(source)
		if err != nil || u.Host == "" {
			continue
		}
		if strings.EqualFold(u.Host, c.Hostname()) {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(strings.TrimRight(o, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
	}
	return false
}

func validKey(keys []string, key string) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8] + "***"
	}
	return "***"
}
