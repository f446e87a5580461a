package routes

import (
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Photo    *handlers.PhotoHandler
	Admin    *handlers.AdminHandler
	Settings *handlers.SettingsHandler
	Health   *handlers.HealthHandler
}

// NewApp creates the fiber app with the global middleware stack.
func NewApp(cfg *config.Config, m *metrics.GalleryMetrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "photowall",
		BodyLimit:             cfg.MaxUploadBytes + 1024*1024,
		ProxyHeader:           cfg.ProxyHeader,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestMetrics(m))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	return app
}

// Setup registers every route. imagesDir, when set, is served at /images.
func Setup(app *fiber.App, cfg *config.Config, h Handlers, adminGate []fiber.Handler, m *metrics.GalleryMetrics, imagesDir string) {
	if imagesDir != "" {
		app.Static("/images", imagesDir, fiber.Static{MaxAge: 86400})
	}
	if cfg.MetricsEnabled && m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", middleware.Limiter(middleware.GeneralLimit, m))

	photoLoad := middleware.Limiter(middleware.PhotoLoadLimit, m)
	action := middleware.Limiter(middleware.ActionLimit, m)
	strict := middleware.Limiter(middleware.StrictLimit, m)

	api.Get("/health", middleware.Limiter(middleware.HealthLimit, m), h.Health.Check)

	// Public gallery
	api.Get("/photos", photoLoad, middleware.APIKeyRequired(cfg), h.Photo.List)
	api.Post("/photos/upload", middleware.Limiter(middleware.UploadLimit, m), h.Photo.Upload)
	api.Get("/photos/:id", photoLoad, h.Photo.Get)
	api.Post("/photos/:id/like", action, h.Photo.Like)
	api.Post("/photos/:id/report", action, h.Photo.Report)
	api.Get("/images/check/:filename", photoLoad, h.Photo.CheckImage)

	// Admin sessions
	api.Post("/auth/login", middleware.Limiter(middleware.AdminLoginLimit, m), h.Auth.Login)
	api.Post("/auth/refresh", strict, h.Auth.Refresh)
	api.Post("/auth/logout", append(adminGate[:len(adminGate):len(adminGate)], h.Auth.Logout)...)

	// Admin panel
	admin := api.Group("/admin", adminGate...)
	admin.Get("/photos", h.Admin.ListPhotos)
	admin.Get("/pending", h.Admin.ListPending)
	admin.Get("/reports", h.Admin.ListReports)
	admin.Post("/photos/:id/approve", h.Admin.Approve)
	admin.Post("/photos/:id/reject", h.Admin.Reject)
	admin.Delete("/photos/:id/delete-reported", h.Admin.DeleteReported)
	admin.Delete("/photos/:id", h.Admin.Delete)
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/system-status", h.Admin.SystemStatus)
	admin.Post("/api-keys", strict, h.Admin.GenerateAPIKey)

	admin.Get("/settings", h.Settings.List)
	admin.Get("/settings/:key", h.Settings.Get)
	admin.Put("/settings/:key", h.Settings.Set)
	admin.Delete("/settings/:key", h.Settings.Delete)
}
