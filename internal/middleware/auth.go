package middleware

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localToken    = "access_token"
	localUsername = "admin_username"
)

// AdminGate returns the admin authorization chain. Checks run in this order:
// token present, well formed, not revoked, signature and expiry, access type,
// admin role. Every rejection is a security event.
func AdminGate(auth *services.AuthService, cfg *config.Config, m *metrics.GalleryMetrics) []fiber.Handler {
	return []fiber.Handler{
		RequireToken(m),
		RejectRevoked(auth, m),
		JWTProtected(cfg, m),
		AdminRole(m),
	}
}

// RequireToken rejects requests without a structurally valid bearer token.
func RequireToken(m *metrics.GalleryMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return deny(c, m, fiber.StatusUnauthorized, apperrors.CodeNoToken, "Access token required")
		}
		if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeMalformedToken, "Malformed token")
		}
		c.Locals(localToken, token)
		return c.Next()
	}
}

// RejectRevoked stops tokens that were logged out.
func RejectRevoked(auth *services.AuthService, m *metrics.GalleryMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := AccessToken(c)
		revoked, err := auth.IsRevoked(c.UserContext(), token)
		if err != nil {
			return err
		}
		if revoked {
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeTokenRevoked, "Token has been revoked")
		}
		return c.Next()
	}
}

// JWTProtected verifies signature and expiry.
func JWTProtected(cfg *config.Config, m *metrics.GalleryMetrics) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			switch {
			case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
				return deny(c, m, fiber.StatusForbidden, apperrors.CodeMalformedToken, "Malformed token")
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				return deny(c, m, fiber.StatusForbidden, apperrors.CodeInvalidToken, "Invalid token")
			case errors.Is(err, jwt.ErrTokenExpired):
				return deny(c, m, fiber.StatusForbidden, apperrors.CodeTokenExpired, "Token has expired")
			}
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeInvalidToken, "Invalid token")
		},
	})
}

// AdminRole requires an access token carrying the admin role.
func AdminRole(m *metrics.GalleryMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return deny(c, m, fiber.StatusUnauthorized, apperrors.CodeNoToken, "Access token required")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeInvalidToken, "Invalid token")
		}
		if claims["type"] != services.TokenTypeAccess {
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeInvalidTokenType, "Invalid token type")
		}
		if claims["role"] != services.RoleAdmin {
			return deny(c, m, fiber.StatusForbidden, apperrors.CodeInsufficientRole, "Admin access required")
		}
		username, _ := claims["username"].(string)
		c.Locals(localUsername, username)
		return c.Next()
	}
}

// AccessToken returns the bearer token accepted by the gate.
func AccessToken(c *fiber.Ctx) string {
	if token, ok := c.Locals(localToken).(string); ok {
		return token
	}
	token, _ := bearerToken(c)
	return token
}

// AdminUsername returns the username of the authenticated admin.
func AdminUsername(c *fiber.Ctx) string {
	username, _ := c.Locals(localUsername).(string)
	return username
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(c *fiber.Ctx, m *metrics.GalleryMetrics, status int, code, message string) error {
	logging.Security(c.UserContext(), "admin_auth_denied", append(AuditAttrs(c), "code", code)...)
	m.RecordAuthEvent(strings.ToLower(code))
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
		Code:    code,
	})
}

// AuditAttrs returns request attributes for security and business events.
func AuditAttrs(c *fiber.Ctx) []any {
	attrs := []any{"ip", c.IP(), "path", c.Path(), "method", c.Method()}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		attrs = append(attrs, "request_id", rid)
	}
	return attrs
}
