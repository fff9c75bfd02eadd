package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/database/authors"
	"github.com/mrlokans/bookstore/internal/entities"
)

// AuthorsController serves the author catalog endpoints.
type AuthorsController struct {
	repo    *authors.Repository
	auditor *audit.Service
	logger  *zap.Logger
}

func NewAuthorsController(repo *authors.Repository, auditor *audit.Service, logger *zap.Logger) *AuthorsController {
	return &AuthorsController{repo: repo, auditor: auditor, logger: logger}
}

func (controller *AuthorsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	result, total, err := controller.repo.List(c.Query("q"), limit, offset)
	if err != nil {
		respondInternalError(c, controller.logger, err, "authors list")
		return
	}

	c.JSON(http.StatusOK, paginated(result, total, limit, offset))
}

func (controller *AuthorsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, authors.ErrNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, controller.logger, err, "authors get")
		return
	}

	c.JSON(http.StatusOK, author)
}

// ListBooks returns the author's books.
func (controller *AuthorsController) ListBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, authors.ErrNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, controller.logger, err, "authors books")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": author.Books, "count": len(author.Books)})
}

type authorRequest struct {
	Name        string     `json:"name" binding:"required"`
	Biography   string     `json:"biography"`
	BirthDate   *time.Time `json:"birth_date"`
	DeathDate   *time.Time `json:"death_date"`
	Nationality string     `json:"nationality"`
}

func (controller *AuthorsController) Create(c *gin.Context) {
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	author := &entities.Author{
		Name:        req.Name,
		Biography:   req.Biography,
		BirthDate:   req.BirthDate,
		DeathDate:   req.DeathDate,
		Nationality: req.Nationality,
	}

	if err := controller.repo.Create(author); err != nil {
		respondInternalError(c, controller.logger, err, "authors create")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "author_create", "author", author.ID, "Created author: "+author.Name, nil)

	c.JSON(http.StatusCreated, author)
}

func (controller *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, authors.ErrNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, controller.logger, err, "authors update")
		return
	}

	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	author.Name = req.Name
	author.Biography = req.Biography
	author.BirthDate = req.BirthDate
	author.DeathDate = req.DeathDate
	author.Nationality = req.Nationality

	if err := controller.repo.Update(author); err != nil {
		respondInternalError(c, controller.logger, err, "authors update")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "author_update", "author", author.ID, "Updated author: "+author.Name, nil)

	c.JSON(http.StatusOK, author)
}

func (controller *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.repo.Delete(id); err != nil {
		if errors.Is(err, authors.ErrNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, controller.logger, err, "authors delete")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "author_delete", "author", id, fmt.Sprintf("Deleted author %d", id), nil)

	c.JSON(http.StatusOK, SuccessResponse{Message: "author deleted"})
}
