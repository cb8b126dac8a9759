package users

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lendingroom/lendingroom/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.HistoryEvent{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func createTestUser(t *testing.T, repo *Repository, username string, admin bool) *entities.User {
	user := &entities.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     username,
		Admin:        admin,
	}
	require.NoError(t, repo.Create(user))
	return user
}

func TestRepository_Create(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", false)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.Admin)
}

func TestRepository_Create_DuplicateUsername(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	createTestUser(t, repo, "alice", false)

	err := repo.Create(&entities.User{
		Username:     "alice",
		PasswordHash: "hash",
		FirstName:    "Other",
		LastName:     "Alice",
	})

	assert.Error(t, err)
}

func TestRepository_GetByID(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	created := createTestUser(t, repo, "alice", false)

	user, err := repo.GetByID(created.ID)

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(999)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_GetByUsername(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	created := createTestUser(t, repo, "alice", false)

	user, err := repo.GetByUsername("alice")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_GetByUsername_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByUsername("nobody")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_List_OrderedByFirstName(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.User{Username: "u1", PasswordHash: "h", FirstName: "charlie", LastName: "X"}))
	require.NoError(t, repo.Create(&entities.User{Username: "u2", PasswordHash: "h", FirstName: "Alice", LastName: "X"}))
	require.NoError(t, repo.Create(&entities.User{Username: "u3", PasswordHash: "h", FirstName: "bob", LastName: "X"}))

	users, err := repo.List()

	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Alice", users[0].FirstName)
	assert.Equal(t, "bob", users[1].FirstName)
	assert.Equal(t, "charlie", users[2].FirstName)
}

func TestRepository_Count(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	createTestUser(t, repo, "alice", false)
	createTestUser(t, repo, "bob", false)

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_SetAdmin(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", false)

	require.NoError(t, repo.SetAdmin(user.ID, true))

	updated, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Admin)

	require.NoError(t, repo.SetAdmin(user.ID, false))

	updated, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.False(t, updated.Admin)
}

func TestRepository_SetAdmin_AlreadyInState(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", true)

	// Promoting an admin again is a silent no-op
	require.NoError(t, repo.SetAdmin(user.ID, true))

	updated, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Admin)
}

func TestRepository_UpdatePasswordHash(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", false)

	require.NoError(t, repo.UpdatePasswordHash(user.ID, "new-hash"))

	updated, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)
}

func TestRepository_UpdatePasswordHash_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdatePasswordHash(999, "new-hash")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", false)

	require.NoError(t, repo.Delete(user.ID))

	_, err := repo.GetByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_Delete_AdminRefused(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, repo, "root", true)

	err := repo.Delete(admin.ID)

	assert.ErrorIs(t, err, ErrUserIsAdmin)

	_, err = repo.GetByID(admin.ID)
	assert.NoError(t, err)
}

func TestRepository_Delete_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Delete(999)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_Delete_OrphansHistoryAndReleasesBooks(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, repo, "alice", false)

	now := time.Now()
	book := entities.Book{
		Title:      "The Go Programming Language",
		Author:     "Donovan & Kernighan",
		BorrowerID: &user.ID,
		BorrowedAt: &now,
	}
	require.NoError(t, db.Create(&book).Error)

	event := entities.HistoryEvent{
		Action:     entities.HistoryActionBorrow,
		OccurredAt: now,
		UserID:     &user.ID,
		BookID:     &book.ID,
	}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, repo.Delete(user.ID))

	// The held book is released on both fields
	var reloaded entities.Book
	require.NoError(t, db.First(&reloaded, book.ID).Error)
	assert.Nil(t, reloaded.BorrowerID)
	assert.Nil(t, reloaded.BorrowedAt)

	// The history event survives without its user reference
	var kept entities.HistoryEvent
	require.NoError(t, db.First(&kept, event.ID).Error)
	assert.Nil(t, kept.UserID)
	assert.Equal(t, entities.HistoryActionBorrow, kept.Action)
}
