package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
)

// UsersController serves account management endpoints. Registration and
// login live under /auth; this controller covers the admin surface plus
// the caller's own profile.
type UsersController struct {
	service *auth.Service
	auditor *audit.Service
	logger  *zap.Logger
}

func NewUsersController(service *auth.Service, auditor *audit.Service, logger *zap.Logger) *UsersController {
	return &UsersController{service: service, auditor: auditor, logger: logger}
}

// List returns all accounts, admins only.
func (controller *UsersController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	result, total, err := controller.service.ListUsers(limit, offset)
	if err != nil {
		respondInternalError(c, controller.logger, err, "users list")
		return
	}

	c.JSON(http.StatusOK, paginated(result, total, limit, offset))
}

// Me returns the caller's own account.
func (controller *UsersController) Me(c *gin.Context) {
	user, err := controller.service.GetUserByID(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Get returns a single account by id.
func (controller *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := controller.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, controller.logger, err, "users get")
		return
	}

	c.JSON(http.StatusOK, user)
}

type userUpdateRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive *bool  `json:"is_active"`
}

// Update modifies profile fields. Only admins may change another user's
// account or toggle is_active.
func (controller *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	callerID := GetUserID(c)
	isAdmin := auth.GetUserRole(c) == entities.RoleAdmin
	if callerID != 0 && callerID != id && !isAdmin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you can only modify your own account"})
		return
	}

	user, err := controller.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, controller.logger, err, "users update")
		return
	}

	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.IsActive != nil {
		if !isAdmin && callerID != 0 {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "only admins can change account status"})
			return
		}
		user.IsActive = *req.IsActive
	}

	if err := controller.service.UpdateProfile(user); err != nil {
		respondInternalError(c, controller.logger, err, "users update")
		return
	}

	controller.auditor.LogAuth(c.Request.Context(), callerID, "user_updated",
		entities.AuditStatusSuccess, c.ClientIP(), fmt.Sprintf("user %d", user.ID))

	c.JSON(http.StatusOK, user)
}

// Delete removes an account, admins only.
func (controller *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.service.DeleteUser(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, controller.logger, err, "users delete")
		return
	}

	controller.auditor.LogAuth(c.Request.Context(), GetUserID(c), "user_deleted",
		entities.AuditStatusSuccess, c.ClientIP(), fmt.Sprintf("user %d", id))

	c.JSON(http.StatusOK, SuccessResponse{Message: "user deleted"})
}
