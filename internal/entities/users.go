package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:50" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	FullName     string   `gorm:"size:255" json:"full_name,omitempty"`
	PasswordHash string   `gorm:"size:255" json:"-"`
	TokenHash    string   `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	Role         UserRole `gorm:"size:20;default:'user'" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// IsAdmin reports whether the user may mutate catalog resources.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type ReadingList struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index" json:"user_id"`
	Name     string `gorm:"size:255" json:"name"`
	IsPublic bool   `gorm:"default:false" json:"is_public"`

	User  User   `gorm:"foreignKey:UserID" json:"-"`
	Books []Book `gorm:"many2many:reading_list_books;" json:"books,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
