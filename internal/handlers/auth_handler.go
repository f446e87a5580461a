package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/captcha"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	captcha     captcha.Verifier
	metrics     *metrics.GalleryMetrics
}

func NewAuthHandler(authService *services.AuthService, verifier captcha.Verifier, m *metrics.GalleryMetrics) *AuthHandler {
	return &AuthHandler{authService: authService, captcha: verifier, metrics: m}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req dto.LoginRequest
	if verr := bind(c, &req, false); verr != nil {
		return validationFailed(c, verr)
	}

	if !h.captcha.Verify(ctx, req.CaptchaToken, c.IP()) {
		h.metrics.RecordAuthEvent("login_captcha_failed")
		logging.Security(ctx, "admin_login_captcha_failed", append(middleware.AuditAttrs(c), "username", req.Username)...)
		return respondError(c, apperrors.ErrCaptchaFailed)
	}

	resp, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.metrics.RecordAuthEvent("login_failed")
			logging.Security(ctx, "admin_login_failed", append(middleware.AuditAttrs(c), "username", req.Username)...)
		}
		return respondError(c, err)
	}

	h.metrics.RecordAuthEvent("login_success")
	logging.Business(ctx, "admin_login", "username", resp.Admin.Username, "ip", c.IP())
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req dto.RefreshRequest
	if verr := bind(c, &req, false); verr != nil {
		return validationFailed(c, verr)
	}

	resp, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			h.metrics.RecordAuthEvent("refresh_failed")
			logging.Security(ctx, "admin_token_refresh_failed", middleware.AuditAttrs(c)...)
		}
		return respondError(c, err)
	}

	h.metrics.RecordAuthEvent("refresh_success")
	return c.JSON(resp)
}

// Logout revokes the caller's access token and the refresh token in the
// body, if any. It runs behind the admin gate.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req dto.LogoutRequest
	if verr := bind(c, &req, true); verr != nil {
		return validationFailed(c, verr)
	}

	if err := h.authService.Logout(ctx, middleware.AccessToken(c), req.RefreshToken); err != nil {
		return respondError(c, err)
	}

	h.metrics.RecordRevocation()
	if req.RefreshToken != "" {
		h.metrics.RecordRevocation()
	}
	h.metrics.RecordAuthEvent("logout")
	logging.Business(ctx, "admin_logout", "username", middleware.AdminUsername(c), "ip", c.IP())
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}
