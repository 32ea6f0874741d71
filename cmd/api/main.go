package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/background"
	"github.com/BradenHooton/revue/internal/cache"
	"github.com/BradenHooton/revue/internal/config"
	"github.com/BradenHooton/revue/internal/database"
	"github.com/BradenHooton/revue/internal/handlers"
	"github.com/BradenHooton/revue/internal/metrics"
	middlewareCustom "github.com/BradenHooton/revue/internal/middleware"
	"github.com/BradenHooton/revue/internal/repositories"
	"github.com/BradenHooton/revue/internal/routes"
	"github.com/BradenHooton/revue/internal/services"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
	pkglogger "github.com/BradenHooton/revue/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))
	if cfg.Server.IsProduction() && len(cfg.Server.AllowedOrigins) == 0 {
		logger.Warn("ALLOWED_ORIGINS is empty, browser clients will be refused")
	}

	metrics.Register()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(startCtx); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Dashboard cache is optional
	var statsCache cache.Cache = cache.Noop{}
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(startCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		} else {
			defer redisCache.Close()
			statsCache = redisCache
		}
	}

	var emailService services.EmailService = services.NoopEmailService{}
	if cfg.Email.From != "" {
		sesService, err := services.NewAWSSESEmailService(startCtx, cfg.Email.AWSRegion, cfg.Email.From, cfg.Email.AppURL, logger)
		if err != nil {
			logger.Warn("email disabled", slog.Any("error", err))
		} else {
			emailService = sesService
		}
	}

	var reviewer services.Reviewer
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiReviewer(startCtx, cfg.AI.GeminiAPIKey, cfg.AI.Model, cfg.AI.Timeout)
		if err != nil {
			logger.Warn("ai reviewer disabled", slog.Any("error", err))
		} else {
			reviewer = gemini
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, code reviews will return a fallback message")
	}

	// Initialize repositories and security primitives
	userRepo := repositories.NewUserRepository(db.Pool)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	timingDelay := auth.NewTimingDelay(cfg.Auth.TimingDelayBase, cfg.Auth.TimingDelayRand)
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Initialize services
	adminService := services.NewAdminService(userRepo, db, statsCache, services.AdminServiceOptions{
		StatsTTL:     cfg.Cache.StatsTTL,
		AIConfigured: reviewer != nil,
		Version:      cfg.Server.Version,
		Environment:  cfg.Server.Env,
		Port:         cfg.Server.Port,
	}, logger)
	userService := services.NewUserService(userRepo, adminService, auditLogger, logger)
	authService := services.NewAuthService(userRepo, tokenManager, emailService, timingDelay, adminService, auditLogger, logger)
	reviewService := services.NewReviewService(reviewer, logger)

	var scheduler *background.Scheduler
	if cfg.Cache.RefreshInterval > 0 {
		scheduler, err = background.NewScheduler(adminService, logger, cfg.Cache.RefreshInterval)
		if err != nil {
			logger.Error("failed to create background scheduler", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Bootstrap first admin user if configured
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, created, err := userService.BootstrapAdmin(startCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		switch {
		case err != nil:
			logger.Error("failed to ensure admin user", slog.Any("error", err))
		case created:
			logger.Info("admin user created", slog.String("user_id", admin.ID))
		default:
			logger.Info("admin user already exists")
		}
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(middlewareCustom.RateLimitByIP(middlewareCustom.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		Message:  middlewareCustom.DefaultGlobalRateLimit().Message,
	}, ipConfig))

	// Register routes
	routes.RegisterRoutes(router, routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService, ipConfig, logger),
		Users:  handlers.NewUserHandler(userService, logger),
		Admin:  handlers.NewAdminHandler(adminService, logger),
		Review: handlers.NewReviewHandler(reviewService, logger),
		Health: handlers.NewHealthHandler(db, cfg.Server.Env),
	}, routes.Guard{Tokens: tokenManager, Users: userRepo},
		middlewareCustom.RateLimitConfig{
			Requests: cfg.RateLimit.AuthRequests,
			Window:   cfg.RateLimit.AuthWindow,
			Message:  middlewareCustom.DefaultAuthRateLimit().Message,
		}, ipConfig, logger)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	startCancel()

	if scheduler != nil {
		scheduler.Start()
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			logger.Error("scheduler shutdown error", slog.Any("error", err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
