package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/database/genres"
	"github.com/mrlokans/bookstore/internal/entities"
)

// GenresController serves the genre endpoints.
type GenresController struct {
	repo    *genres.Repository
	auditor *audit.Service
	logger  *zap.Logger
}

func NewGenresController(repo *genres.Repository, auditor *audit.Service, logger *zap.Logger) *GenresController {
	return &GenresController{repo: repo, auditor: auditor, logger: logger}
}

func (controller *GenresController) List(c *gin.Context) {
	result, err := controller.repo.List()
	if err != nil {
		respondInternalError(c, controller.logger, err, "genres list")
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": result, "count": len(result)})
}

func (controller *GenresController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	genre, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, genres.ErrNotFound) {
			respondNotFound(c, "genre")
			return
		}
		respondInternalError(c, controller.logger, err, "genres get")
		return
	}

	c.JSON(http.StatusOK, genre)
}

type genreRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (controller *GenresController) Create(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	genre := &entities.Genre{Name: req.Name, Description: req.Description}

	if err := controller.repo.Create(genre); err != nil {
		if errors.Is(err, genres.ErrDuplicate) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalError(c, controller.logger, err, "genres create")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "genre_create", "genre", genre.ID, "Created genre: "+genre.Name, nil)

	c.JSON(http.StatusCreated, genre)
}

func (controller *GenresController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	genre, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, genres.ErrNotFound) {
			respondNotFound(c, "genre")
			return
		}
		respondInternalError(c, controller.logger, err, "genres update")
		return
	}

	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	genre.Name = req.Name
	genre.Description = req.Description

	if err := controller.repo.Update(genre); err != nil {
		respondInternalError(c, controller.logger, err, "genres update")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "genre_update", "genre", genre.ID, "Updated genre: "+genre.Name, nil)

	c.JSON(http.StatusOK, genre)
}

func (controller *GenresController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.repo.Delete(id); err != nil {
		if errors.Is(err, genres.ErrNotFound) {
			respondNotFound(c, "genre")
			return
		}
		respondInternalError(c, controller.logger, err, "genres delete")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "genre_delete", "genre", id, fmt.Sprintf("Deleted genre %d", id), nil)

	c.JSON(http.StatusOK, SuccessResponse{Message: "genre deleted"})
}
