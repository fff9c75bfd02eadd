// Package http exposes the bookstore catalog as a JSON API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/middleware"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// The request pipeline runs first: it assigns the request id every
	// other layer depends on, and rejects rate-limited requests before
	// any handler work happens.
	router.Use(middleware.RequestPipeline(middleware.PipelineConfig{
		Logger:         cfg.Logger,
		Limiter:        cfg.RateLimiter,
		Metrics:        cfg.Metrics,
		Production:     cfg.Global.IsProduction(),
		RequestTimeout: cfg.Global.RequestTimeout,
	}))

	router.Use(middleware.SecurityHeaders(cfg.Global.IsProduction()))

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Identify())
	}

	// Health and observability endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if cfg.Metrics != nil {
		metricsController := NewMetricsController(cfg.Metrics)
		metricsController.RegisterRoutes(router)
	}

	// Authentication endpoints
	var authController *auth.Controller
	if cfg.AuthService != nil && cfg.AuthMiddleware != nil {
		authController = auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.Auditor)
		authController.RegisterRoutes(router, cfg.AuthMiddleware)
	}

	api := router.Group("/api/v1")
	mw := cfg.AuthMiddleware

	// Catalog: reads are public, mutations require an admin
	booksController := NewBooksController(cfg.Books, cfg.Auditor, cfg.TaskClient, cfg.Logger)
	api.GET("/books", booksController.List)
	api.GET("/books/stats", booksController.Stats)
	api.GET("/books/:id", booksController.Get)
	api.POST("/books", mw.RequireAdmin(), booksController.Create)
	api.PUT("/books/:id", mw.RequireAdmin(), booksController.Update)
	api.DELETE("/books/:id", mw.RequireAdmin(), booksController.Delete)

	authorsController := NewAuthorsController(cfg.Authors, cfg.Auditor, cfg.Logger)
	api.GET("/authors", authorsController.List)
	api.GET("/authors/:id", authorsController.Get)
	api.GET("/authors/:id/books", authorsController.ListBooks)
	api.POST("/authors", mw.RequireAdmin(), authorsController.Create)
	api.PUT("/authors/:id", mw.RequireAdmin(), authorsController.Update)
	api.DELETE("/authors/:id", mw.RequireAdmin(), authorsController.Delete)

	genresController := NewGenresController(cfg.Genres, cfg.Auditor, cfg.Logger)
	api.GET("/genres", genresController.List)
	api.GET("/genres/:id", genresController.Get)
	api.POST("/genres", mw.RequireAdmin(), genresController.Create)
	api.PUT("/genres/:id", mw.RequireAdmin(), genresController.Update)
	api.DELETE("/genres/:id", mw.RequireAdmin(), genresController.Delete)

	// Reviews: reading is public, writing requires a logged-in user
	reviewsController := NewReviewsController(cfg.Reviews, cfg.Books, cfg.Auditor, cfg.TaskClient, cfg.Logger)
	api.GET("/books/:id/reviews", reviewsController.ListForBook)
	api.POST("/books/:id/reviews", mw.RequireAuth(), reviewsController.Create)
	api.PUT("/reviews/:id", mw.RequireAuth(), reviewsController.Update)
	api.DELETE("/reviews/:id", mw.RequireAuth(), reviewsController.Delete)

	// Reading lists are always private to their owner
	listsController := NewReadingListsController(cfg.ReadingLists, cfg.AuthConfig.Mode == config.AuthModeLocal, cfg.Logger)
	api.GET("/reading-lists", mw.RequireAuth(), listsController.List)
	api.POST("/reading-lists", mw.RequireAuth(), listsController.Create)
	api.GET("/reading-lists/:id", listsController.Get)
	api.PUT("/reading-lists/:id", mw.RequireAuth(), listsController.Update)
	api.DELETE("/reading-lists/:id", mw.RequireAuth(), listsController.Delete)
	api.POST("/reading-lists/:id/books/:bookId", mw.RequireAuth(), listsController.AddBook)
	api.DELETE("/reading-lists/:id/books/:bookId", mw.RequireAuth(), listsController.RemoveBook)

	// Account management: listing and deletion are admin-only, profile
	// reads and updates enforce ownership in the controller
	usersController := NewUsersController(cfg.AuthService, cfg.Auditor, cfg.Logger)
	if authController != nil {
		// Alias for /auth/register so accounts can be created through
		// the resource-style API as well.
		api.POST("/users", authController.Register)
	}
	api.GET("/users", mw.RequireAdmin(), usersController.List)
	api.GET("/users/me", mw.RequireAuth(), usersController.Me)
	api.GET("/users/:id", mw.RequireAdmin(), usersController.Get)
	api.PUT("/users/:id", mw.RequireAuth(), usersController.Update)
	api.DELETE("/users/:id", mw.RequireAdmin(), usersController.Delete)

	// Audit trail, admins only
	if cfg.Auditor != nil {
		auditController := NewAuditController(cfg.Auditor, cfg.Logger)
		api.GET("/audit/events", mw.RequireAdmin(), auditController.ListEvents)
	}

	return router
}
