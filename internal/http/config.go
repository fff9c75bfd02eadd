package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/authors"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/genres"
	"github.com/mrlokans/bookstore/internal/database/readinglists"
	"github.com/mrlokans/bookstore/internal/database/reviews"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. This replaces a long parameter list in
// NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Logger   *zap.Logger

	// Domain repositories
	Books        *books.Repository
	Authors      *authors.Repository
	Genres       *genres.Repository
	Reviews      *reviews.Repository
	ReadingLists *readinglists.Repository

	// Request pipeline
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.MetricsAggregator

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte

	// Audit trail
	Auditor *audit.Service

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Application behavior
	Global  config.Global
	Version string
}
