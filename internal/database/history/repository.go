// Package history reads the append-only borrow/return event log. Events are
// written by the books repository as part of the borrow and return
// transactions; this package only queries them.
package history

import (
	"gorm.io/gorm"

	"github.com/lendingroom/lendingroom/internal/entities"
)

// DefaultLimit is the number of events shown on a book's detail page.
const DefaultLimit = 15

// Repository handles history event queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new history repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ForBook returns the most recent events for a book, newest first. The event
// ID breaks ties between same-timestamp events so the ordering is
// deterministic. A limit <= 0 falls back to DefaultLimit.
func (r *Repository) ForBook(bookID uint, limit int) ([]entities.HistoryEvent, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var events []entities.HistoryEvent
	err := r.db.Preload("User").
		Where("book_id = ?", bookID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
