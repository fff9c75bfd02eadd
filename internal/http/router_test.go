package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	auditdb "github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/database/authors"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/genres"
	"github.com/mrlokans/bookstore/internal/database/readinglists"
	"github.com/mrlokans/bookstore/internal/database/reviews"
	"github.com/mrlokans/bookstore/internal/database/users"
	"github.com/mrlokans/bookstore/internal/middleware"
)

// testEnv bundles everything the endpoint tests need.
type testEnv struct {
	router  *gin.Engine
	db      *database.Database
	books   *books.Repository
	authSvc *auth.Service
}

// setupRouter builds a full router against a throwaway database. Auth mode
// controls whether route guards are active.
func setupRouter(t *testing.T, authMode config.AuthMode) (*testEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewTestDatabase(dbPath)
	require.NoError(t, err)

	logger := zap.NewNop()
	authCfg := config.Auth{Mode: authMode, BcryptCost: bcrypt.MinCost}

	usersRepo := users.NewRepository(db.DB)
	authSvc := auth.NewService(usersRepo, authCfg)
	authMw := auth.NewMiddleware(authSvc, nil, authCfg)

	auditor := audit.NewService(auditdb.NewRepository(db.DB), logger)

	limiter := middleware.NewRateLimiter(config.RateLimit{PerMinute: 1000, AuthPerMinute: 1000})
	metrics := middleware.NewMetricsAggregator(logger, prometheus.NewRegistry())

	booksRepo := books.NewRepository(db.DB)
	router := NewRouter(RouterConfig{
		Database:       db,
		Logger:         logger,
		Books:          booksRepo,
		Authors:        authors.NewRepository(db.DB),
		Genres:         genres.NewRepository(db.DB),
		Reviews:        reviews.NewRepository(db.DB),
		ReadingLists:   readinglists.NewRepository(db.DB),
		RateLimiter:    limiter,
		Metrics:        metrics,
		AuthService:    authSvc,
		AuthMiddleware: authMw,
		AuthConfig:     authCfg,
		Auditor:        auditor,
		Global:         config.Global{Environment: config.EnvTesting},
		Version:        "test",
	})

	env := &testEnv{
		router:  router,
		db:      db,
		books:   booksRepo,
		authSvc: authSvc,
	}

	cleanup := func() {
		limiter.Stop()
		db.Close()
		os.Remove(dbPath)
		os.Remove(strings.TrimSuffix(dbPath, ".db") + "-tasks.db")
	}
	return env, cleanup
}

func (env *testEnv) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}
