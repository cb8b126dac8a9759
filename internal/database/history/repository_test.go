package history

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
	dbPath := "./test_history_" + t.Name() + ".db"

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

func createEvent(t *testing.T, db *gorm.DB, bookID uint, userID *uint, action entities.HistoryAction, at time.Time) entities.HistoryEvent {
	event := entities.HistoryEvent{
		Action:     action,
		OccurredAt: at,
		UserID:     userID,
		BookID:     &bookID,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestRepository_ForBook_NewestFirst(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book := entities.Book{Title: "Dune", Author: "A"}
	require.NoError(t, db.Create(&book).Error)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	createEvent(t, db, book.ID, nil, entities.HistoryActionBorrow, base)
	createEvent(t, db, book.ID, nil, entities.HistoryActionReturn, base.Add(24*time.Hour))
	createEvent(t, db, book.ID, nil, entities.HistoryActionBorrow, base.Add(48*time.Hour))

	events, err := repo.ForBook(book.ID, 0)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, entities.HistoryActionBorrow, events[0].Action)
	assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt))
	assert.True(t, events[1].OccurredAt.After(events[2].OccurredAt))
}

func TestRepository_ForBook_SameTimestampBreaksTiesByID(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book := entities.Book{Title: "Dune", Author: "A"}
	require.NoError(t, db.Create(&book).Error)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := createEvent(t, db, book.ID, nil, entities.HistoryActionBorrow, at)
	second := createEvent(t, db, book.ID, nil, entities.HistoryActionReturn, at)

	events, err := repo.ForBook(book.ID, 0)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
}

func TestRepository_ForBook_Limit(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	book := entities.Book{Title: "Dune", Author: "A"}
	require.NoError(t, db.Create(&book).Error)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultLimit+5; i++ {
		createEvent(t, db, book.ID, nil, entities.HistoryActionBorrow, base.Add(time.Duration(i)*time.Hour))
	}

	events, err := repo.ForBook(book.ID, 0)

	require.NoError(t, err)
	// The default window keeps only the most recent events
	require.Len(t, events, DefaultLimit)
	assert.Equal(t, base.Add(time.Duration(DefaultLimit+4)*time.Hour).Unix(), events[0].OccurredAt.Unix())
}

func TestRepository_ForBook_PreloadsUser(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	user := entities.User{Username: "alice", PasswordHash: "h", FirstName: "Alice", LastName: "A"}
	require.NoError(t, db.Create(&user).Error)
	book := entities.Book{Title: "Dune", Author: "A"}
	require.NoError(t, db.Create(&book).Error)

	createEvent(t, db, book.ID, &user.ID, entities.HistoryActionBorrow, time.Now())

	events, err := repo.ForBook(book.ID, 0)

	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].User)
	assert.Equal(t, "alice", events[0].User.Username)
}

func TestRepository_ForBook_ScopedToBook(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	first := entities.Book{Title: "Dune", Author: "A"}
	second := entities.Book{Title: "Hyperion", Author: "B"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	createEvent(t, db, first.ID, nil, entities.HistoryActionBorrow, time.Now())
	createEvent(t, db, second.ID, nil, entities.HistoryActionBorrow, time.Now())

	events, err := repo.ForBook(first.ID, 0)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, *events[0].BookID)
}
