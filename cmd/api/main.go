package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/hdesk/helpdesk-backend/internal/adapters/primary/http"
	mw "github.com/hdesk/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/websocket"
	"github.com/hdesk/helpdesk-backend/internal/adapters/secondary/directory"
	"github.com/hdesk/helpdesk-backend/internal/adapters/secondary/email"
	"github.com/hdesk/helpdesk-backend/internal/adapters/secondary/postgres"
	"github.com/hdesk/helpdesk-backend/internal/adapters/secondary/storage"
	"github.com/hdesk/helpdesk-backend/internal/auth"
	"github.com/hdesk/helpdesk-backend/internal/config"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
	"github.com/hdesk/helpdesk-backend/internal/core/services"
	"github.com/hdesk/helpdesk-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	evaluationRepo := postgres.NewEvaluationRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	// File Store (Secondary Adapter)
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("failed to initialize upload directory", "error", err, "dir", cfg.Storage.UploadDir)
		os.Exit(1)
	}

	// Directory Authenticator (Secondary Adapter, optional)
	var dirAuth ports.DirectoryAuthenticator
	if ldapAuth := directory.NewLDAPAuthenticator(cfg.LDAP, logger); ldapAuth.Enabled() {
		dirAuth = ldapAuth
		logger.Info("ldap authentication enabled", "url", cfg.LDAP.URL)
	}

	// Notifier (Secondary Adapter)
	notifier := email.NewLogNotifier(userRepo, logger)

	// Services (Core)
	authService := services.NewAuthService(userRepo, tokenManager, dirAuth, logger)
	settingsService := services.NewSettingsService(settingsRepo, cfg.Storage.MaxAttachmentSizeMB, cfg.Storage.AllowedExtensions)
	ticketService := services.NewTicketService(ticketRepo, userRepo, activityRepo, attachmentRepo, txManager, hub, notifier, fileStore, logger)
	commentService := services.NewCommentService(commentRepo, ticketRepo, userRepo, hub)
	attachmentService := services.NewAttachmentService(attachmentRepo, ticketRepo, activityRepo, settingsService, fileStore, logger)
	evaluationService := services.NewEvaluationService(evaluationRepo, ticketRepo, activityRepo, txManager)
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo, logger)
	dashboardService := services.NewDashboardService(dashboardRepo)

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, errorHandler, logger)
	commentHandler := httpAdapter.NewCommentHandler(commentService, errorHandler, logger)
	attachmentHandler := httpAdapter.NewAttachmentHandler(attachmentService, errorHandler, logger)
	evaluationHandler := httpAdapter.NewEvaluationHandler(evaluationService, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(ticketService, commentHandler, attachmentHandler, evaluationHandler, errorHandler, logger)
	categoryHandler := httpAdapter.NewCategoryHandler(categoryService, errorHandler, logger)
	userHandler := httpAdapter.NewUserHandler(userService, errorHandler, logger)
	settingsHandler := httpAdapter.NewSettingsHandler(settingsService, errorHandler, logger)
	dashboardHandler := httpAdapter.NewDashboardHandler(dashboardService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, hub, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			authHandler.RegisterPublicRoutes(r)
		})

		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.HandleConnection)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			authHandler.RegisterProtectedRoutes(r)
			r.Route("/tickets", ticketHandler.RegisterRoutes)
			r.Route("/attachments", attachmentHandler.RegisterRoutes)
			r.Route("/categories", categoryHandler.RegisterRoutes)
			r.Route("/dashboard", dashboardHandler.RegisterRoutes)

			// Staff-only routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireStaff)
				r.Route("/technicians", userHandler.RegisterStaffRoutes)
				r.Route("/evaluations", evaluationHandler.RegisterStaffRoutes)
			})

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Route("/users", userHandler.RegisterRoutes)
				r.Route("/categories", categoryHandler.RegisterAdminRoutes)
				r.Route("/settings", settingsHandler.RegisterRoutes)
			})
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
