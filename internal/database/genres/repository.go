// Package genres provides database operations for genre records.
package genres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

var (
	ErrNotFound  = errors.New("genre not found")
	ErrDuplicate = errors.New("genre with this name already exists")
)

// Repository handles genre database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all genres ordered by name.
func (r *Repository) List() ([]entities.Genre, error) {
	var genres []entities.Genre
	if err := r.db.Order("name ASC").Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *Repository) GetByID(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.First(&genre, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetByName looks a genre up by exact name.
func (r *Repository) GetByName(name string) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.Where("name = ?", name).First(&genre).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *Repository) Create(genre *entities.Genre) error {
	var count int64
	if err := r.db.Model(&entities.Genre{}).Where("name = ?", genre.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return r.db.Create(genre).Error
}

func (r *Repository) Update(genre *entities.Genre) error {
	return r.db.Save(genre).Error
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Genre{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
