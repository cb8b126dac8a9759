package entities

import "time"

type HistoryAction string

const (
	HistoryActionBorrow HistoryAction = "borrow"
	HistoryActionReturn HistoryAction = "return"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64" json:"username"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	FirstName    string    `gorm:"size:64" json:"first_name"`
	LastName     string    `gorm:"size:64" json:"last_name"`
	Admin        bool      `gorm:"not null;default:false" json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"uniqueIndex;size:128" json:"title"`
	Author        string     `gorm:"size:128" json:"author"`
	PublishedDate time.Time  `json:"published_date"`
	CoverPath     string     `gorm:"size:256" json:"cover_path,omitempty"` // web path under /static/uploads
	AdminNotes    string     `gorm:"size:512" json:"admin_notes,omitempty"`
	BorrowerID    *uint      `gorm:"index" json:"borrower_id,omitempty"`
	Borrower      *User      `gorm:"foreignKey:BorrowerID" json:"-"`
	BorrowedAt    *time.Time `json:"borrowed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Available reports whether the book can currently be borrowed.
// Invariant: BorrowerID and BorrowedAt are either both nil or both set.
func (b *Book) Available() bool {
	return b.BorrowerID == nil
}

// HistoryEvent is an immutable audit record of a borrow or return action.
// Rows are never updated; deleting a referenced user or book nulls the
// reference instead of removing the event.
type HistoryEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Action     HistoryAction `gorm:"size:16;not null" json:"action"`
	OccurredAt time.Time     `gorm:"index" json:"occurred_at"`
	UserID     *uint         `gorm:"index" json:"user_id,omitempty"`
	User       *User         `gorm:"foreignKey:UserID" json:"-"`
	BookID     *uint         `gorm:"index" json:"book_id,omitempty"`
	Book       *Book         `gorm:"foreignKey:BookID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (HistoryEvent) TableName() string {
	return "history_events"
}
