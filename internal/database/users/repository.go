// Package users provides database operations for account management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByUsername("alice")
package users

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lendingroom/lendingroom/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserIsAdmin  = errors.New("administrator accounts cannot be deleted")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user row.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by first name, case-insensitive.
func (r *Repository) List() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("first_name COLLATE NOCASE ASC").Find(&users).Error
	return users, err
}

// Count returns the number of registered users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// SetAdmin flips the admin flag. A target already in the requested state is a
// no-op.
func (r *Repository) SetAdmin(id uint, admin bool) error {
	result := r.db.Model(&entities.User{}).
		Where("id = ? AND admin = ?", id, !admin).
		Update("admin", admin)
	if result.Error != nil {
		return fmt.Errorf("failed to update admin flag: %w", result.Error)
	}
	return nil
}

// UpdatePasswordHash replaces a user's stored password hash.
func (r *Repository) UpdatePasswordHash(id uint, hash string) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a non-admin user. History rows keep their data but lose the
// user reference, and any books the user still holds are released so the
// borrower/borrow-date invariant survives the deletion. All of it runs in one
// transaction.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Admin {
			return ErrUserIsAdmin
		}

		// Orphan the history rows instead of deleting them
		if err := tx.Model(&entities.HistoryEvent{}).
			Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach history: %w", err)
		}

		// Release any books the user still has out
		if err := tx.Model(&entities.Book{}).
			Where("borrower_id = ?", user.ID).
			Updates(map[string]any{
				"borrower_id": nil,
				"borrowed_at": nil,
			}).Error; err != nil {
			return fmt.Errorf("failed to release borrowed books: %w", err)
		}

		return tx.Delete(&user).Error
	})
}
