package entities

import (
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"index;size:512" json:"title"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	// Unique only for non-empty values so books without an ISBN don't
	// collide on the empty string.
	ISBN            string         `gorm:"uniqueIndex:idx_books_isbn,where:isbn <> '';size:20" json:"isbn,omitempty"`
	Price           float64        `gorm:"index" json:"price"`
	Language        string         `gorm:"index;size:10" json:"language,omitempty"`
	Pages           int            `json:"pages,omitempty"`
	PublicationDate *time.Time     `json:"publication_date,omitempty"`
	// No column default: GORM skips zero-valued fields on insert when a
	// default is declared, which would silently turn false into true.
	// Callers decide availability explicitly.
	IsAvailable     bool           `gorm:"index" json:"is_available"`
	StockQuantity   int            `gorm:"default:0" json:"stock_quantity"`
	CoverURL        string         `gorm:"size:2048" json:"cover_url,omitempty"`

	// Denormalized review stats, refreshed by the refresh_book_stats task
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`

	Authors []Author `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Genres  []Genre  `gorm:"many2many:book_genres;" json:"genres,omitempty"`
	Reviews []Review `gorm:"foreignKey:BookID" json:"reviews,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"index;size:255" json:"name"`
	Biography   string     `gorm:"type:text" json:"biography,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	DeathDate   *time.Time `json:"death_date,omitempty"`
	Nationality string     `gorm:"size:100" json:"nationality,omitempty"`

	Books []Book `gorm:"many2many:book_authors;" json:"books,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Genre struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Review struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	BookID  uint   `gorm:"index;uniqueIndex:idx_review_book_user" json:"book_id"`
	UserID  uint   `gorm:"index;uniqueIndex:idx_review_book_user" json:"user_id"`
	Rating  int    `gorm:"check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
