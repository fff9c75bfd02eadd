package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// BooksController serves the book catalog endpoints.
type BooksController struct {
	repo       *books.Repository
	auditor    *audit.Service
	taskClient *tasks.Client
	logger     *zap.Logger
}

func NewBooksController(repo *books.Repository, auditor *audit.Service, taskClient *tasks.Client, logger *zap.Logger) *BooksController {
	return &BooksController{
		repo:       repo,
		auditor:    auditor,
		taskClient: taskClient,
		logger:     logger,
	}
}

// List returns the filtered, sorted, paginated catalog.
func (controller *BooksController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	params := books.SearchParams{
		Query:         c.Query("q"),
		Author:        c.Query("author"),
		Genre:         c.Query("genre"),
		MinPrice:      parseFloatQuery(c, "min_price"),
		MaxPrice:      parseFloatQuery(c, "max_price"),
		Language:      c.Query("language"),
		AvailableOnly: c.Query("available") == "true",
		SortBy:        books.SortBy(c.DefaultQuery("sort_by", "created_at")),
		SortDesc:      c.DefaultQuery("sort_order", "desc") == "desc",
		Limit:         limit,
		Offset:        offset,
	}

	result, total, err := controller.repo.Search(params)
	if err != nil {
		respondInternalError(c, controller.logger, err, "books list")
		return
	}

	c.JSON(http.StatusOK, paginated(result, total, limit, offset))
}

// Get returns a single book with its authors, genres and reviews.
func (controller *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, controller.logger, err, "books get")
		return
	}

	c.JSON(http.StatusOK, book)
}

// Stats returns catalog-wide aggregate numbers.
func (controller *BooksController) Stats(c *gin.Context) {
	stats, err := controller.repo.GetStats()
	if err != nil {
		respondInternalError(c, controller.logger, err, "books stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

type bookRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	ISBN            string     `json:"isbn"`
	Price           float64    `json:"price"`
	Language        string     `json:"language"`
	Pages           int        `json:"pages"`
	PublicationDate *time.Time `json:"publication_date"`
	IsAvailable     *bool      `json:"is_available"`
	StockQuantity   int        `json:"stock_quantity"`
	CoverURL        string     `json:"cover_url"`
	AuthorIDs       []uint     `json:"author_ids"`
	GenreIDs        []uint     `json:"genre_ids"`
}

// Create adds a book to the catalog.
func (controller *BooksController) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	book := &entities.Book{
		Title:           req.Title,
		Description:     req.Description,
		ISBN:            req.ISBN,
		Price:           req.Price,
		Language:        req.Language,
		Pages:           req.Pages,
		PublicationDate: req.PublicationDate,
		IsAvailable:     req.IsAvailable == nil || *req.IsAvailable,
		StockQuantity:   req.StockQuantity,
		CoverURL:        req.CoverURL,
	}

	err := controller.repo.Create(book, req.AuthorIDs, req.GenreIDs)
	if err != nil {
		controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "book_create", "book", 0, "Failed to create book: "+req.Title, err)
		switch {
		case errors.Is(err, books.ErrDuplicateISBN):
			respondConflict(c, err.Error())
		case errors.Is(err, books.ErrUnknownAuthor), errors.Is(err, books.ErrUnknownGenre):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, controller.logger, err, "books create")
		}
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "book_create", "book", book.ID, "Created book: "+book.Title, nil)

	c.JSON(http.StatusCreated, book)
}

// Update modifies an existing book.
func (controller *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, controller.logger, err, "books update")
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	book.Title = req.Title
	book.Description = req.Description
	book.ISBN = req.ISBN
	book.Price = req.Price
	book.Language = req.Language
	book.Pages = req.Pages
	book.PublicationDate = req.PublicationDate
	if req.IsAvailable != nil {
		book.IsAvailable = *req.IsAvailable
	}
	book.StockQuantity = req.StockQuantity
	book.CoverURL = req.CoverURL

	if err := controller.repo.Update(book, req.AuthorIDs, req.GenreIDs); err != nil {
		switch {
		case errors.Is(err, books.ErrUnknownAuthor), errors.Is(err, books.ErrUnknownGenre):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, controller.logger, err, "books update")
		}
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "book_update", "book", book.ID, "Updated book: "+book.Title, nil)

	c.JSON(http.StatusOK, book)
}

// Delete removes a book from the catalog.
func (controller *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.repo.Delete(id); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, controller.logger, err, "books delete")
		return
	}

	controller.auditor.LogCatalogChange(c.Request.Context(), GetUserID(c), "book_delete", "book", id, fmt.Sprintf("Deleted book %d", id), nil)

	c.JSON(http.StatusOK, SuccessResponse{Message: "book deleted"})
}
