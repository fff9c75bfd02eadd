package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database/users"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

func setupMiddleware(t *testing.T, mode config.AuthMode) (*Middleware, *Service, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_mw_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	cfg := config.Auth{Mode: mode, BcryptCost: bcrypt.MinCost}
	svc := NewService(users.NewRepository(db), cfg)
	mw := NewMiddleware(svc, nil, cfg)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return mw, svc, cleanup
}

func TestMiddleware_BearerAuth(t *testing.T) {
	mw, svc, cleanup := setupMiddleware(t, config.AuthModeLocal)
	defer cleanup()

	user, err := svc.Register("alice", "alice@example.com", "password123", entities.RoleUser)
	require.NoError(t, err)
	token, err := svc.IssueToken(user.ID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw.Identify())
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"auth_type": GetAuthType(c),
			"ctx_user":  requestctx.UserID(c.Request.Context()),
		})
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"auth_type":"bearer"`)
		assert.Contains(t, w.Body.String(), `"ctx_user":"1"`)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"auth_type":"none"`)
	})
}

func TestMiddleware_RequireAuth(t *testing.T) {
	mw, svc, cleanup := setupMiddleware(t, config.AuthModeLocal)
	defer cleanup()

	user, err := svc.Register("alice", "alice@example.com", "password123", entities.RoleUser)
	require.NoError(t, err)
	token, err := svc.IssueToken(user.ID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw.Identify())
	router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("anonymous gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authentication required")
	})

	t.Run("authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	mw, svc, cleanup := setupMiddleware(t, config.AuthModeLocal)
	defer cleanup()

	regular, err := svc.Register("alice", "alice@example.com", "password123", entities.RoleUser)
	require.NoError(t, err)
	regularToken, err := svc.IssueToken(regular.ID)
	require.NoError(t, err)

	admin, err := svc.Register("root", "root@example.com", "password123", entities.RoleAdmin)
	require.NoError(t, err)
	adminToken, err := svc.IssueToken(admin.ID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw.Identify())
	router.DELETE("/admin-only", mw.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("regular user gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+regularToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestMiddleware_AuthDisabled(t *testing.T) {
	mw, _, cleanup := setupMiddleware(t, config.AuthModeNone)
	defer cleanup()

	router := gin.New()
	router.Use(mw.Identify())
	router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.DELETE("/admin-only", mw.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
