package users

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.CreateUser("testuser", "test@example.com", "hashed-password", entities.RoleUser)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, entities.RoleUser, user.Role)
	assert.True(t, user.IsActive)
}

func TestRepository_CreateUser_Duplicates(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateUser("testuser", "test@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	_, err = repo.CreateUser("testuser", "other@example.com", "hash", entities.RoleUser)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.CreateUser("otheruser", "test@example.com", "hash", entities.RoleUser)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_IssueToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.CreateUser("testuser", "test@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	token, err := repo.IssueToken(user.ID)
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 bytes hex encoded

	// The plaintext token is not stored
	stored, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, token, stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)

	found, err := repo.GetUserByToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRepository_IssueToken_Rotation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.CreateUser("testuser", "test@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	first, err := repo.IssueToken(user.ID)
	require.NoError(t, err)
	second, err := repo.IssueToken(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = repo.GetUserByToken(first)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := repo.GetUserByToken(second)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRepository_GetUserByToken_InactiveUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.CreateUser("testuser", "test@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	token, err := repo.IssueToken(user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(user.ID, false))

	_, err = repo.GetUserByToken(token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetUserByUsername(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.CreateUser("admin", "admin@example.com", "hash", entities.RoleAdmin)
	require.NoError(t, err)

	user, err := repo.GetUserByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.IsAdmin())

	_, err = repo.GetUserByUsername("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
