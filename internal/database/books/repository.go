// Package books provides database operations for the catalogue and the
// borrow/return state machine. Every write that touches a book row together
// with a history row runs in a single transaction so a partially applied
// borrow or return is never observable.
package books

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lendingroom/lendingroom/internal/entities"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrTitleExists     = errors.New("a book with this title already exists")
	ErrAlreadyBorrowed = errors.New("book is already borrowed")
	ErrNotBorrower     = errors.New("only the current borrower or an administrator may return a book")
)

// BorrowedBook annotates a borrowed book with the elapsed whole days since it
// was taken out, for the statistics view.
type BorrowedBook struct {
	entities.Book
	BorrowedDays int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TitleTaken reports whether a different book already uses the title.
func (r *Repository) TitleTaken(title string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).
		Where("title = ? AND id <> ?", title, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new book. Titles are unique across the catalogue.
func (r *Repository) Create(book *entities.Book) error {
	taken, err := r.TitleTaken(book.Title, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrTitleExists
	}

	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetByID retrieves a book with its current borrower preloaded.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Borrower").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListPartitioned returns the catalogue split into available and borrowed
// books. Borrowed books carry their borrower.
func (r *Repository) ListPartitioned() (available, borrowed []entities.Book, err error) {
	if err = r.db.Where("borrower_id IS NULL").Find(&available).Error; err != nil {
		return nil, nil, err
	}
	if err = r.db.Preload("Borrower").Where("borrower_id IS NOT NULL").Find(&borrowed).Error; err != nil {
		return nil, nil, err
	}
	return available, borrowed, nil
}

// Update persists changes to a book's catalogue fields.
func (r *Repository) Update(book *entities.Book) error {
	// Reject a rename onto another book's title
	taken, err := r.TitleTaken(book.Title, book.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrTitleExists
	}

	return r.db.Save(book).Error
}

// SetNote stores the free-text admin annotation.
func (r *Repository) SetNote(id uint, text string) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("admin_notes", text)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Delete removes the book row and orphans its history events. The caller is
// responsible for the cover artifact; a failure here is logged upstream and
// never blocks the visible deletion outcome.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if err := tx.Model(&entities.HistoryEvent{}).
			Where("book_id = ?", book.ID).
			Update("book_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach history: %w", err)
		}

		return tx.Delete(&book).Error
	})
}

// Borrow transitions an available book to borrowed by the acting user and
// appends the matching history event, atomically. Borrowing a book that is
// already out is refused.
func (r *Repository) Borrow(bookID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if book.BorrowerID != nil {
			return ErrAlreadyBorrowed
		}

		now := time.Now()
		book.BorrowerID = &userID
		book.BorrowedAt = &now
		if err := tx.Save(&book).Error; err != nil {
			return fmt.Errorf("failed to borrow book: %w", err)
		}

		event := entities.HistoryEvent{
			Action:     entities.HistoryActionBorrow,
			OccurredAt: now,
			UserID:     &userID,
			BookID:     &book.ID,
		}
		return tx.Create(&event).Error
	})
}

// Return transitions a borrowed book back to available and appends a return
// event attributed to the acting user. Only the current borrower or an
// administrator may return a book; anyone else gets ErrNotBorrower and the
// book is left untouched.
func (r *Repository) Return(bookID uint, actor *entities.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if book.BorrowerID == nil {
			// Nothing out, nothing to do
			return nil
		}

		if *book.BorrowerID != actor.ID && !actor.Admin {
			return ErrNotBorrower
		}

		if err := tx.Model(&book).Updates(map[string]any{
			"borrower_id": nil,
			"borrowed_at": nil,
		}).Error; err != nil {
			return fmt.Errorf("failed to return book: %w", err)
		}

		// Attributed to the actor, not necessarily the original borrower
		event := entities.HistoryEvent{
			Action:     entities.HistoryActionReturn,
			OccurredAt: time.Now(),
			UserID:     &actor.ID,
			BookID:     &book.ID,
		}
		return tx.Create(&event).Error
	})
}

// Borrowed returns all currently-borrowed books ascending by borrow date,
// each annotated with the whole days elapsed since it was taken out.
func (r *Repository) Borrowed(now time.Time) ([]BorrowedBook, error) {
	var books []entities.Book
	err := r.db.Preload("Borrower").
		Where("borrower_id IS NOT NULL").
		Order("borrowed_at ASC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}

	annotated := make([]BorrowedBook, 0, len(books))
	for _, book := range books {
		days := 0
		if book.BorrowedAt != nil {
			days = wholeDaysBetween(*book.BorrowedAt, now)
		}
		annotated = append(annotated, BorrowedBook{Book: book, BorrowedDays: days})
	}
	return annotated, nil
}

// wholeDaysBetween counts calendar days from one date to another, ignoring
// the time of day on either side.
func wholeDaysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}
