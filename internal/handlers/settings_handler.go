package handlers

import (
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) List(c *fiber.Ctx) error {
	settings, err := h.settings.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return c.JSON(result)
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	setting, err := h.settings.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(setting)
}

// Set creates or overwrites a setting.
func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	var req dto.SetSettingRequest
	if verr := bind(c, &req, false); verr != nil {
		return validationFailed(c, verr)
	}
	setting, err := h.settings.Set(c.UserContext(), c.Params("key"), req.Value)
	if err != nil {
		return respondError(c, err)
	}
	logging.Security(c.UserContext(), "setting_changed",
		append(middleware.AuditAttrs(c), "key", setting.Key, "admin", middleware.AdminUsername(c))...)
	return c.JSON(setting)
}

func (h *SettingsHandler) Delete(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := h.settings.Delete(c.UserContext(), key); err != nil {
		return respondError(c, err)
	}
	logging.Security(c.UserContext(), "setting_deleted",
		append(middleware.AuditAttrs(c), "key", key, "admin", middleware.AdminUsername(c))...)
	return c.JSON(dto.MessageResponse{Message: "Setting deleted successfully"})
}
