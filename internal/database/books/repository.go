// Package books provides database operations for the book catalog.
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

var (
	ErrNotFound       = errors.New("book not found")
	ErrDuplicateISBN  = errors.New("book with this ISBN already exists")
	ErrUnknownAuthor  = errors.New("one or more authors not found")
	ErrUnknownGenre   = errors.New("one or more genres not found")
)

// SortBy enumerates supported sort fields.
type SortBy string

const (
	SortByCreatedAt       SortBy = "created_at"
	SortByTitle           SortBy = "title"
	SortByPrice           SortBy = "price"
	SortByPublicationDate SortBy = "publication_date"
	SortByRating          SortBy = "rating"
)

// SearchParams filters and orders the book listing.
type SearchParams struct {
	Query         string
	Author        string
	Genre         string
	MinPrice      *float64
	MaxPrice      *float64
	Language      string
	AvailableOnly bool
	SortBy        SortBy
	SortDesc      bool
	Limit         int
	Offset        int
}

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a book with authors, genres and reviews preloaded.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Authors").Preload("Genres").Preload("Reviews").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Search returns the filtered, sorted, paginated book listing and the total
// count of matches before pagination.
func (r *Repository) Search(params SearchParams) ([]entities.Book, int64, error) {
	query := r.db.Model(&entities.Book{}).Preload("Authors").Preload("Genres")

	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if params.Author != "" {
		query = query.Joins("JOIN book_authors ON book_authors.book_id = books.id").
			Joins("JOIN authors ON authors.id = book_authors.author_id").
			Where("LOWER(authors.name) LIKE LOWER(?)", "%"+params.Author+"%")
	}
	if params.Genre != "" {
		query = query.Joins("JOIN book_genres ON book_genres.book_id = books.id").
			Joins("JOIN genres ON genres.id = book_genres.genre_id").
			Where("LOWER(genres.name) LIKE LOWER(?)", "%"+params.Genre+"%")
	}
	if params.MinPrice != nil {
		query = query.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}
	if params.Language != "" {
		query = query.Where("language = ?", params.Language)
	}
	if params.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	// Count on a detached session so the narrowed select does not leak
	// into the listing query below.
	var total int64
	if err := query.Session(&gorm.Session{}).Distinct("books.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Distinct().Order(orderClause(params))
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var books []entities.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func orderClause(params SearchParams) string {
	field := "books.created_at"
	switch params.SortBy {
	case SortByTitle:
		field = "books.title"
	case SortByPrice:
		field = "books.price"
	case SortByPublicationDate:
		field = "books.publication_date"
	case SortByRating:
		field = "books.average_rating"
	}
	if params.SortDesc {
		return field + " DESC"
	}
	return field + " ASC"
}

// Create stores a new book linked to existing authors and genres.
func (r *Repository) Create(book *entities.Book, authorIDs, genreIDs []uint) error {
	if book.ISBN != "" {
		var count int64
		if err := r.db.Model(&entities.Book{}).Where("isbn = ?", book.ISBN).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateISBN
		}
	}

	authors, err := r.resolveAuthors(authorIDs)
	if err != nil {
		return err
	}
	genres, err := r.resolveGenres(genreIDs)
	if err != nil {
		return err
	}

	book.Authors = authors
	book.Genres = genres
	return r.db.Create(book).Error
}

// Update applies field changes and, when author or genre ids are provided,
// replaces the corresponding associations.
func (r *Repository) Update(book *entities.Book, authorIDs, genreIDs []uint) error {
	if err := r.db.Save(book).Error; err != nil {
		return err
	}

	if authorIDs != nil {
		authors, err := r.resolveAuthors(authorIDs)
		if err != nil {
			return err
		}
		if err := r.db.Model(book).Association("Authors").Replace(authors); err != nil {
			return fmt.Errorf("failed to replace authors: %w", err)
		}
	}
	if genreIDs != nil {
		genres, err := r.resolveGenres(genreIDs)
		if err != nil {
			return err
		}
		if err := r.db.Model(book).Association("Genres").Replace(genres); err != nil {
			return fmt.Errorf("failed to replace genres: %w", err)
		}
	}
	return nil
}

// Delete soft-deletes a book.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates catalog-wide numbers.
type Stats struct {
	TotalBooks     int64    `json:"total_books"`
	AvailableBooks int64    `json:"available_books"`
	TotalAuthors   int64    `json:"total_authors"`
	TotalGenres    int64    `json:"total_genres"`
	AveragePrice   *float64 `json:"average_price"`
}

// GetStats computes catalog statistics.
func (r *Repository) GetStats() (*Stats, error) {
	var stats Stats
	if err := r.db.Model(&entities.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.Book{}).Where("is_available = ?", true).Count(&stats.AvailableBooks).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.Author{}).Count(&stats.TotalAuthors).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.Genre{}).Count(&stats.TotalGenres).Error; err != nil {
		return nil, err
	}

	var avg *float64
	err := r.db.Model(&entities.Book{}).Where("price IS NOT NULL").
		Select("AVG(price)").Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	stats.AveragePrice = avg
	return &stats, nil
}

// RefreshStats recomputes the denormalized review aggregates for one book.
func (r *Repository) RefreshStats(bookID uint) error {
	var result struct {
		Avg   float64
		Count int64
	}
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ?", bookID).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return err
	}
	return r.db.Model(&entities.Book{}).Where("id = ?", bookID).
		Updates(map[string]any{
			"average_rating": result.Avg,
			"review_count":   result.Count,
		}).Error
}

// RefreshAllStats recomputes review aggregates for every book that has
// reviews. Used by the background refresh task.
func (r *Repository) RefreshAllStats() error {
	var bookIDs []uint
	if err := r.db.Model(&entities.Review{}).Distinct("book_id").Pluck("book_id", &bookIDs).Error; err != nil {
		return err
	}
	for _, id := range bookIDs {
		if err := r.RefreshStats(id); err != nil {
			return fmt.Errorf("failed to refresh stats for book %d: %w", id, err)
		}
	}
	return nil
}

func (r *Repository) resolveAuthors(ids []uint) ([]entities.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var authors []entities.Author
	if err := r.db.Find(&authors, ids).Error; err != nil {
		return nil, err
	}
	if len(authors) != len(ids) {
		return nil, ErrUnknownAuthor
	}
	return authors, nil
}

func (r *Repository) resolveGenres(ids []uint) ([]entities.Genre, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var genres []entities.Genre
	if err := r.db.Find(&genres, ids).Error; err != nil {
		return nil, err
	}
	if len(genres) != len(ids) {
		return nil, ErrUnknownGenre
	}
	return genres, nil
}
