// Package readinglists provides database operations for user reading lists.
package readinglists

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

var (
	ErrNotFound      = errors.New("reading list not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrAlreadyInList = errors.New("book is already in this list")
)

// Repository handles reading list database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns all reading lists belonging to a user.
func (r *Repository) ListByUser(userID uint) ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// GetByID retrieves a list with its books preloaded.
func (r *Repository) GetByID(id uint) (*entities.ReadingList, error) {
	var list entities.ReadingList
	err := r.db.Preload("Books").First(&list, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *Repository) Create(list *entities.ReadingList) error {
	return r.db.Create(list).Error
}

func (r *Repository) Update(list *entities.ReadingList) error {
	return r.db.Save(list).Error
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.ReadingList{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBook appends a book to a list.
func (r *Repository) AddBook(listID, bookID uint) error {
	list, err := r.GetByID(listID)
	if err != nil {
		return err
	}

	for _, b := range list.Books {
		if b.ID == bookID {
			return ErrAlreadyInList
		}
	}

	var book entities.Book
	if err := r.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	return r.db.Model(list).Association("Books").Append(&book)
}

// RemoveBook detaches a book from a list.
func (r *Repository) RemoveBook(listID, bookID uint) error {
	list, err := r.GetByID(listID)
	if err != nil {
		return err
	}

	var book entities.Book
	if err := r.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	return r.db.Model(list).Association("Books").Delete(&book)
}
