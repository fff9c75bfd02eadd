package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/entities"
)

var defaultGenres = []entities.Genre{
	{Name: "fiction", Description: "Fiction"},
	{Name: "non-fiction", Description: "Non-fiction"},
	{Name: "science-fiction", Description: "Science fiction"},
	{Name: "fantasy", Description: "Fantasy"},
	{Name: "mystery", Description: "Mystery and crime"},
	{Name: "biography", Description: "Biographies and memoirs"},
	{Name: "history", Description: "History"},
	{Name: "poetry", Description: "Poetry"},
	{Name: "technical", Description: "Technical and programming"},
	{Name: "children", Description: "Children's books"},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Warn))
}

// NewTestDatabase opens a database with query logging silenced for tests.
func NewTestDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Silent))
}

func newDatabase(dbPath string, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Genre{},
		&entities.Book{},
		&entities.Review{},
		&entities.ReadingList{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedGenres(); err != nil {
		return nil, fmt.Errorf("failed to seed genres: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedGenres() error {
	for _, genre := range defaultGenres {
		var existing entities.Genre
		result := d.DB.Where("name = ?", genre.Name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&genre).Error; err != nil {
				return fmt.Errorf("failed to create genre %s: %w", genre.Name, err)
			}
		}
	}
	return nil
}
