package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	auditrepo "github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/database/authors"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/genres"
	"github.com/mrlokans/bookstore/internal/database/readinglists"
	"github.com/mrlokans/bookstore/internal/database/reviews"
	"github.com/mrlokans/bookstore/internal/database/users"
	http_controllers "github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/logging"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM and then shuts it down
// within the configured timeout, calling onShutdown first so background
// workers stop before in-flight requests are drained.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info("starting server",
			zap.String("host", cfg.HTTP.Host),
			zap.Int32("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT.
	// SIGKILL cannot be caught so there is no point adding it.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work (task queue, scheduler) before draining requests
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}

	logger.Info("server exited")
}

// Run wires every component together and starts the server.
func Run(cfg *config.Config, version string) {
	logger, err := logging.New(cfg.Logging, cfg.Global.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting bookstore", zap.String("version", version),
		zap.String("environment", string(cfg.Global.Environment)))

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	authorsRepo := authors.NewRepository(db.DB)
	genresRepo := genres.NewRepository(db.DB)
	reviewsRepo := reviews.NewRepository(db.DB)
	listsRepo := readinglists.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)

	auditor := audit.NewService(auditrepo.NewRepository(db.DB), logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	var metrics *middleware.MetricsAggregator
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetricsAggregator(logger, prometheus.NewRegistry())
	}

	// Task queue lives in a sibling sqlite file next to the main database
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks), logger)
		if err != nil {
			logger.Fatal("failed to initialize task queue", zap.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(auditor, logger),
			tasks.NewRefreshBookStatsQueue(booksRepo, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Audit, logger)
		if err := maintenance.Start(); err != nil {
			logger.Fatal("failed to start maintenance scheduler", zap.Error(err))
		}
	}

	// The auth service and middleware exist in every mode: with
	// AUTH_MODE=none the guards let everyone through.
	authService := auth.NewService(usersRepo, cfg.Auth)

	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info("authentication mode: local")

		sqlDB, err := db.DB.DB()
		if err != nil {
			logger.Fatal("failed to get SQL DB for sessions", zap.Error(err))
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			logger.Fatal("failed to initialize session manager", zap.Error(err))
		}

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				logger.Fatal("failed to generate CSRF secret", zap.Error(err))
			}
			csrfSecret, _ = hex.DecodeString(secret)
			logger.Warn("generated session secret, set AUTH_SESSION_SECRET to persist it across restarts")
		}
	} else {
		logger.Info("authentication mode: none, all requests act as a single anonymous user")
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Logger:         logger,
		Books:          booksRepo,
		Authors:        authorsRepo,
		Genres:         genresRepo,
		Reviews:        reviewsRepo,
		ReadingLists:   listsRepo,
		RateLimiter:    limiter,
		Metrics:        metrics,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		Auditor:        auditor,
		TaskClient:     taskClient,
		Global:         cfg.Global,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		limiter.Stop()
	}

	Serve(router, cfg, logger, onShutdown)
}
