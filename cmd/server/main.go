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
	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/pulse-backend/internal/apps"
	"github.com/civicpulse/pulse-backend/internal/apps/missions"
	"github.com/civicpulse/pulse-backend/internal/apps/reports"
	"github.com/civicpulse/pulse-backend/internal/config"
	"github.com/civicpulse/pulse-backend/internal/database"
	"github.com/civicpulse/pulse-backend/internal/evidence"
	"github.com/civicpulse/pulse-backend/internal/handlers"
	"github.com/civicpulse/pulse-backend/internal/logging"
	"github.com/civicpulse/pulse-backend/internal/middleware"
	"github.com/civicpulse/pulse-backend/internal/notify"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/civicpulse/pulse-backend/internal/routes"
	"github.com/civicpulse/pulse-backend/internal/services"
	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// Migrate shared models
	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Leaderboard cache is optional; without Redis every read hits Postgres.
	var leaderboardCache *reputation.LeaderboardCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unavailable, leaderboard cache disabled", "addr", cfg.RedisAddr, "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			leaderboardCache = reputation.NewLeaderboardCache(redisClient, cfg.LeaderboardTTL)
			slog.Info("leaderboard cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.LeaderboardTTL)
		}
		cancel()
	}
	ledger := reputation.NewLedger(database.DB, leaderboardCache)

	// Vision endpoints: a YAML file wins over the env-derived chain
	endpoints := verification.EndpointsFromConfig(cfg)
	if cfg.VisionEndpointsFile != "" {
		fromFile, err := verification.LoadEndpointsFile(cfg.VisionEndpointsFile)
		if err != nil {
			slog.Error("vision endpoints file invalid", "path", cfg.VisionEndpointsFile, "error", err)
			os.Exit(1)
		}
		endpoints = fromFile
	}
	if len(endpoints) == 0 {
		slog.Warn("no vision endpoints configured, every image verification will fail")
	}
	classifier := verification.NewVisionClassifier(endpoints, cfg.AITimeout, cfg.AIRatePerSec)
	slog.Info("vision classifier configured", "endpoints", len(endpoints))

	evidenceStore, err := evidence.Open(ctx, cfg)
	if err != nil {
		slog.Error("evidence store init failed", "backend", cfg.EvidenceBackend, "error", err)
		os.Exit(1)
	}

	notifier := notify.FromConfig(cfg)

	deps := &apps.Deps{
		DB:         database.DB,
		Config:     cfg,
		Ledger:     ledger,
		Classifier: classifier,
		Evidence:   evidenceStore,
		Notifier:   notifier,
		Filter:     services.NewContentFilter(),
	}

	plugins := []apps.Plugin{
		reports.New(deps),
		missions.New(deps),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Seed default rows
	for _, p := range plugins {
		if s, ok := p.(apps.Seeder); ok {
			if err := s.Seed(ctx); err != nil {
				slog.Error("plugin seed failed", "plugin", p.ID(), "error", err)
			}
		}
	}

	// Services and handlers
	authService := services.NewAuthService(database.DB, cfg, ledger)
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(database.Ping)
	profileHandler := handlers.NewProfileHandler(authService, ledger)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; report photos need more than the default body limit
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxImageBytes + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, authHandler, healthHandler, profileHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Let queued notifications finish before closing their dependencies
	notifier.Wait()

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
