package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/entities"
)

// Controller handles authentication HTTP endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	auditor        *audit.Service
}

// NewController creates a new authentication controller.
func NewController(service *Service, sessionManager *SessionManager, auditor *audit.Service) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine, mw *Middleware) {
	group := router.Group("/auth")
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/session", ac.Session)
	group.GET("/me", mw.RequireAuth(), ac.Me)
	group.POST("/token", mw.RequireAuth(), ac.IssueToken)
	group.DELETE("/token", mw.RequireAuth(), ac.RevokeToken)
	group.POST("/change-password", mw.RequireAuth(), ac.ChangePassword)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account.
func (ac *Controller) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := ac.service.Register(req.Username, req.Email, req.Password, entities.RoleUser)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrUserExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ac.auditor.LogAuth(c.Request.Context(), user.ID, "register", entities.AuditStatusSuccess, c.ClientIP(), "")

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and establishes a session.
func (ac *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		ac.auditor.LogAuth(c.Request.Context(), 0, "login_failed", entities.AuditStatusFailed, c.ClientIP(), req.Username)
		// Uniform error regardless of whether the user exists
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	ac.auditor.LogAuth(c.Request.Context(), user.ID, "login", entities.AuditStatusSuccess, c.ClientIP(), "")

	c.JSON(http.StatusOK, user)
}

// Logout destroys the current session.
func (ac *Controller) Logout(c *gin.Context) {
	userID := GetUserID(c)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
			return
		}
	}

	if userID != 0 {
		ac.auditor.LogAuth(c.Request.Context(), userID, "logout", entities.AuditStatusSuccess, c.ClientIP(), "")
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Session reports whether the caller holds an active browser session.
// Browser clients call this on page load to learn who they are and to
// pick up the CSRF token that mutating requests must echo back.
func (ac *Controller) Session(c *gin.Context) {
	resp := gin.H{"authenticated": false}
	if token := GetCSRFToken(c); token != "" {
		resp["csrf_token"] = token
	}

	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		resp["authenticated"] = true
		resp["username"] = ac.sessionManager.GetUsername(c.Request)
		resp["role"] = ac.sessionManager.GetUserRole(c.Request)
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's profile.
func (ac *Controller) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// IssueToken generates a fresh API token for the authenticated user.
// The plaintext token is shown once and never stored.
func (ac *Controller) IssueToken(c *gin.Context) {
	token, err := ac.service.IssueToken(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	ac.auditor.LogAuth(c.Request.Context(), GetUserID(c), "token_issued", entities.AuditStatusSuccess, c.ClientIP(), "")

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RevokeToken invalidates the authenticated user's API token.
func (ac *Controller) RevokeToken(c *gin.Context) {
	if err := ac.service.RevokeToken(GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	ac.auditor.LogAuth(c.Request.Context(), GetUserID(c), "token_revoked", entities.AuditStatusSuccess, c.ClientIP(), "")

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword updates the authenticated user's password.
func (ac *Controller) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	err := ac.service.ChangePassword(GetUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrInvalidPassword) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ac.auditor.LogAuth(c.Request.Context(), GetUserID(c), "password_changed", entities.AuditStatusSuccess, c.ClientIP(), "")

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
