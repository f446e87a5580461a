package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/captcha"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/imaging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/revocation"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/routes"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/storage"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()

	// Structured logging to stdout until the database sink is available
	stdout := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(slog.New(stdout))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Security events and ERROR+ records are also kept in system_logs
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLogHandler)))

	cleanupDone := make(chan struct{})
	database.StartCleanup(database.DB, time.Hour, cfg.LogRetention, cleanupDone)

	ctx := context.Background()

	files, err := storage.New(ctx, cfg)
	if err != nil {
		slog.Error("file store setup failed", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	var imagesDir string
	diskPath := "."
	if local, ok := files.(*storage.LocalStore); ok {
		imagesDir = local.Dir()
		diskPath = local.Dir()
	}

	revoked, err := revocation.New(cfg, database.DB)
	if err != nil {
		slog.Error("revocation store setup failed", "backend", cfg.RevocationBackend, "error", err)
		os.Exit(1)
	}
	if rs, ok := revoked.(*revocation.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			slog.Warn("redis revocation store unreachable", "addr", cfg.RedisAddr, "error", err)
		}
	}

	// Metrics
	var galleryMetrics *metrics.GalleryMetrics
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		galleryMetrics, err = metrics.NewGalleryMetrics(registry)
		if err != nil {
			slog.Error("metrics setup failed", "error", err)
			os.Exit(1)
		}
	}

	// Repositories and services
	photoRepo := repository.NewPhotoRepository(database.DB)
	settingsService := services.NewSettingsService(repository.NewSettingRepository(database.DB))
	authService := services.NewAuthService(repository.NewAdminRepository(database.DB), revoked, cfg)
	processor := imaging.NewProcessor(cfg.ImageMaxWidth, cfg.ImageQuality, cfg.MaxUploadBytes)
	processor.MaxPixels = cfg.ImageMaxPixels
	photoService := services.NewPhotoService(photoRepo, settingsService, files, processor)
	moderationService := services.NewModerationService(photoRepo, files)
	engagementService := services.NewEngagementService(photoRepo)

	if err := settingsService.SeedDefaults(ctx); err != nil {
		slog.Error("seeding settings failed", "error", err)
		os.Exit(1)
	}
	if err := authService.EnsureDefaultAdmin(ctx); err != nil {
		slog.Error("seeding default admin failed", "error", err)
		os.Exit(1)
	}

	verifier := captcha.New(cfg)

	// Handlers
	healthChecker, _ := files.(handlers.HealthChecker)
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, verifier, galleryMetrics),
		Photo:    handlers.NewPhotoHandler(photoService, engagementService, verifier, galleryMetrics, cfg.MaxUploadBytes),
		Admin:    handlers.NewAdminHandler(photoService, moderationService, database.DB, cfg, galleryMetrics, diskPath),
		Settings: handlers.NewSettingsHandler(settingsService),
		Health:   handlers.NewHealthHandler(database.DB, healthChecker, diskPath),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := routes.NewApp(cfg, galleryMetrics)
	if cfg.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))

	routes.Setup(app, cfg, h, middleware.AdminGate(authService, cfg, galleryMetrics), galleryMetrics, imagesDir)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if local, ok := files.(*storage.LocalStore); ok {
		_ = local.Close()
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
