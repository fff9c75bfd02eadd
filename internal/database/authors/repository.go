// Package authors provides database operations for author records.
package authors

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

var ErrNotFound = errors.New("author not found")

// Repository handles author database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns authors ordered by name, optionally filtered by a
// case-insensitive name substring.
func (r *Repository) List(nameQuery string, limit, offset int) ([]entities.Author, int64, error) {
	query := r.db.Model(&entities.Author{})
	if nameQuery != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+nameQuery+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var authors []entities.Author
	if err := query.Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// GetByID retrieves an author with their books preloaded.
func (r *Repository) GetByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Preload("Books").First(&author, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *Repository) Create(author *entities.Author) error {
	return r.db.Create(author).Error
}

func (r *Repository) Update(author *entities.Author) error {
	return r.db.Save(author).Error
}

// Delete soft-deletes an author. Their books remain in the catalog.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Author{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
