package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/database/readinglists"
	"github.com/mrlokans/bookstore/internal/entities"
)

// ReadingListsController serves per-user reading list endpoints.
type ReadingListsController struct {
	repo        *readinglists.Repository
	authEnabled bool
	logger      *zap.Logger
}

func NewReadingListsController(repo *readinglists.Repository, authEnabled bool, logger *zap.Logger) *ReadingListsController {
	return &ReadingListsController{repo: repo, authEnabled: authEnabled, logger: logger}
}

// List returns the caller's reading lists.
func (controller *ReadingListsController) List(c *gin.Context) {
	lists, err := controller.repo.ListByUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, controller.logger, err, "reading lists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading_lists": lists, "count": len(lists)})
}

// Get returns one list. Private lists are visible to their owner only.
func (controller *ReadingListsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, readinglists.ErrNotFound) {
			respondNotFound(c, "reading list")
			return
		}
		respondInternalError(c, controller.logger, err, "reading lists get")
		return
	}

	if !list.IsPublic && !controller.isOwner(c, list) {
		// 404 instead of 403 so private lists are not enumerable
		respondNotFound(c, "reading list")
		return
	}

	c.JSON(http.StatusOK, list)
}

type readingListRequest struct {
	Name     string `json:"name" binding:"required"`
	IsPublic bool   `json:"is_public"`
}

// Create adds a reading list for the caller.
func (controller *ReadingListsController) Create(c *gin.Context) {
	var req readingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	list := &entities.ReadingList{
		UserID:   GetUserID(c),
		Name:     req.Name,
		IsPublic: req.IsPublic,
	}

	if err := controller.repo.Create(list); err != nil {
		respondInternalError(c, controller.logger, err, "reading lists create")
		return
	}

	c.JSON(http.StatusCreated, list)
}

// Update renames a list or toggles its visibility.
func (controller *ReadingListsController) Update(c *gin.Context) {
	list, ok := controller.ownedList(c)
	if !ok {
		return
	}

	var req readingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	list.Name = req.Name
	list.IsPublic = req.IsPublic

	if err := controller.repo.Update(list); err != nil {
		respondInternalError(c, controller.logger, err, "reading lists update")
		return
	}

	c.JSON(http.StatusOK, list)
}

// Delete removes a list.
func (controller *ReadingListsController) Delete(c *gin.Context) {
	list, ok := controller.ownedList(c)
	if !ok {
		return
	}

	if err := controller.repo.Delete(list.ID); err != nil {
		respondInternalError(c, controller.logger, err, "reading lists delete")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "reading list deleted"})
}

// AddBook appends a book to a list.
func (controller *ReadingListsController) AddBook(c *gin.Context) {
	list, ok := controller.ownedList(c)
	if !ok {
		return
	}

	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if err := controller.repo.AddBook(list.ID, bookID); err != nil {
		switch {
		case errors.Is(err, readinglists.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, readinglists.ErrAlreadyInList):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, controller.logger, err, "reading lists add book")
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "book added to list"})
}

// RemoveBook detaches a book from a list.
func (controller *ReadingListsController) RemoveBook(c *gin.Context) {
	list, ok := controller.ownedList(c)
	if !ok {
		return
	}

	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if err := controller.repo.RemoveBook(list.ID, bookID); err != nil {
		if errors.Is(err, readinglists.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, controller.logger, err, "reading lists remove book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "book removed from list"})
}

// ownedList loads the list from the id param and enforces ownership,
// writing the error response itself on failure.
func (controller *ReadingListsController) ownedList(c *gin.Context) (*entities.ReadingList, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	list, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, readinglists.ErrNotFound) {
			respondNotFound(c, "reading list")
			return nil, false
		}
		respondInternalError(c, controller.logger, err, "reading lists")
		return nil, false
	}

	if !controller.isOwner(c, list) {
		respondNotFound(c, "reading list")
		return nil, false
	}

	return list, true
}

func (controller *ReadingListsController) isOwner(c *gin.Context, list *entities.ReadingList) bool {
	if !controller.authEnabled {
		// Single-user mode owns everything
		return true
	}
	return list.UserID == GetUserID(c)
}
