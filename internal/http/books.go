package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
	"github.com/lendingroom/lendingroom/internal/covers"
	"github.com/lendingroom/lendingroom/internal/database/books"
	"github.com/lendingroom/lendingroom/internal/database/history"
	"github.com/lendingroom/lendingroom/internal/entities"
)

// BooksController serves the catalogue pages: library listing, add/edit
// forms, the book detail page with its borrow action, notes, returns and
// deletion.
type BooksController struct {
	books   *books.Repository
	history *history.Repository
	covers  *covers.Store
}

func NewBooksController(booksRepo *books.Repository, historyRepo *history.Repository, coverStore *covers.Store) *BooksController {
	return &BooksController{
		books:   booksRepo,
		history: historyRepo,
		covers:  coverStore,
	}
}

// LibraryPage lists the catalogue partitioned into available and borrowed
// books.
func (bc *BooksController) LibraryPage(c *gin.Context) {
	available, borrowed, err := bc.books.ListPartitioned()
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books: %s", err.Error())
		return
	}

	render(c, http.StatusOK, "library", gin.H{
		"Title":     "Library",
		"Available": available,
		"Borrowed":  borrowed,
	})
}

// AddBookPage renders the new-book form. The route is admin-gated.
func (bc *BooksController) AddBookPage(c *gin.Context) {
	render(c, http.StatusOK, "add_book", gin.H{"Title": "Add book"})
}

// AddBook creates a catalogue entry from the submitted form. The cover image
// is stored keyed by the sanitized title, never by the client filename.
func (bc *BooksController) AddBook(c *gin.Context) {
	title := c.PostForm("title")
	author := c.PostForm("author")

	publishedDate, err := parsePublishedDate(c.PostForm("published_date"))
	if err != nil {
		bc.renderAddBook(c, title, author, "Published date must be in YYYY-MM-DD format")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader.Filename == "" {
		bc.renderAddBook(c, title, author, "A cover image is required")
		return
	}
	if !covers.AllowedExtension(fileHeader.Filename) {
		bc.renderAddBook(c, title, author, "Cover image must be a png, jpg or jpeg file")
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		bc.renderAddBook(c, title, author, "Could not read the uploaded cover image")
		return
	}
	defer upload.Close()

	coverPath, err := bc.covers.Save(title, fileHeader.Filename, upload)
	if err != nil {
		bc.renderAddBook(c, title, author, "Could not store the cover image")
		return
	}

	book := &entities.Book{
		Title:         title,
		Author:        author,
		PublishedDate: publishedDate,
		CoverPath:     coverPath,
	}
	if err := bc.books.Create(book); err != nil {
		if removeErr := bc.covers.Remove(coverPath); removeErr != nil {
			logWarning("removing cover after failed create", removeErr)
		}
		if errors.Is(err, books.ErrTitleExists) {
			bc.renderAddBook(c, title, author, "A book with this title already exists")
			return
		}
		c.String(http.StatusInternalServerError, "Error creating book: %s", err.Error())
		return
	}

	c.Redirect(http.StatusFound, "/library")
}

func (bc *BooksController) renderAddBook(c *gin.Context, title, author, errorMsg string) {
	render(c, http.StatusOK, "add_book", gin.H{
		"Title":      "Add book",
		"BookTitle":  title,
		"BookAuthor": author,
		"Error":      errorMsg,
	})
}

// EditBookPage renders the edit form for a book.
func (bc *BooksController) EditBookPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}

	render(c, http.StatusOK, "edit_book", gin.H{
		"Title": "Edit book",
		"Book":  book,
	})
}

// EditBook updates a book's catalogue fields. A title change renames the
// stored cover artifact to the new sanitized title; a rename failure is
// logged and swallowed so the row update still goes through. A freshly
// uploaded cover replaces the old artifact.
func (bc *BooksController) EditBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/book/%d", id)

	// Silent refusal for non-admins, back to the detail page
	if !auth.IsAdmin(c) {
		c.Redirect(http.StatusFound, detailURL)
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}

	newTitle := c.PostForm("title")
	publishedDate, err := parsePublishedDate(c.PostForm("published_date"))
	if err != nil {
		render(c, http.StatusOK, "edit_book", gin.H{
			"Title": "Edit book",
			"Book":  book,
			"Error": "Published date must be in YYYY-MM-DD format",
		})
		return
	}

	// Settle the uniqueness question before touching the cover artifact, so
	// a rejected rename never leaves the artifact moved under a title the
	// row will not take
	if newTitle != book.Title {
		taken, takenErr := bc.books.TitleTaken(newTitle, book.ID)
		if takenErr != nil {
			c.String(http.StatusInternalServerError, "Error updating book: %s", takenErr.Error())
			return
		}
		if taken {
			render(c, http.StatusOK, "edit_book", gin.H{
				"Title": "Edit book",
				"Book":  book,
				"Error": "A book with this title already exists",
			})
			return
		}
	}

	if newTitle != book.Title && book.CoverPath != "" {
		newPath, renameErr := bc.covers.Rename(book.CoverPath, newTitle)
		if renameErr != nil {
			logWarning("renaming cover artifact", renameErr)
		} else {
			book.CoverPath = newPath
		}
	}

	book.Title = newTitle
	book.Author = c.PostForm("author")
	book.PublishedDate = publishedDate

	// An uploaded replacement cover is optional on edit
	if fileHeader, fileErr := c.FormFile("image"); fileErr == nil && fileHeader.Filename != "" {
		if covers.AllowedExtension(fileHeader.Filename) {
			if upload, openErr := fileHeader.Open(); openErr == nil {
				newPath, saveErr := bc.covers.Save(book.Title, fileHeader.Filename, upload)
				upload.Close()
				if saveErr != nil {
					logWarning("replacing cover artifact", saveErr)
				} else {
					book.CoverPath = newPath
				}
			}
		}
	}

	if err := bc.books.Update(book); err != nil {
		errorMsg := "Error updating book"
		if errors.Is(err, books.ErrTitleExists) {
			errorMsg = "A book with this title already exists"
		}
		render(c, http.StatusOK, "edit_book", gin.H{
			"Title": "Edit book",
			"Book":  book,
			"Error": errorMsg,
		})
		return
	}

	c.Redirect(http.StatusFound, detailURL)
}

// BookPage shows a book's details and its most recent borrow/return history.
func (bc *BooksController) BookPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}

	events, err := bc.history.ForBook(book.ID, history.DefaultLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading history: %s", err.Error())
		return
	}

	render(c, http.StatusOK, "book_detail", gin.H{
		"Title":   book.Title,
		"Book":    book,
		"History": events,
	})
}

// Borrow takes the book out for the current user and records the history
// event. A book that is already out is left untouched.
func (bc *BooksController) Borrow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := bc.books.Borrow(id, user.ID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			c.String(http.StatusNotFound, "Book not found")
			return
		}
		if !errors.Is(err, books.ErrAlreadyBorrowed) {
			c.String(http.StatusInternalServerError, "Error borrowing book: %s", err.Error())
			return
		}
		// Already out: fall through to the detail page unchanged
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/book/%d", id))
}

// SaveNote stores the admin annotation on a book. Non-admins are silently
// bounced back to the detail page.
func (bc *BooksController) SaveNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/book/%d", id)

	if !auth.IsAdmin(c) {
		c.Redirect(http.StatusFound, detailURL)
		return
	}

	if err := bc.books.SetNote(id, c.PostForm("textarea")); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			c.String(http.StatusNotFound, "Book not found")
			return
		}
		c.String(http.StatusInternalServerError, "Error saving note: %s", err.Error())
		return
	}

	c.Redirect(http.StatusFound, detailURL)
}

// ReturnBook puts a borrowed book back. Only the current borrower or an
// administrator may do this; anyone else is redirected with nothing changed.
func (bc *BooksController) ReturnBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor := auth.CurrentUser(c)
	if err := bc.books.Return(id, actor); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			c.String(http.StatusNotFound, "Book not found")
			return
		}
		if !errors.Is(err, books.ErrNotBorrower) {
			c.String(http.StatusInternalServerError, "Error returning book: %s", err.Error())
			return
		}
		// Not the borrower, not an admin: silent no-op
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/book/%d", id))
}

// DeleteBook removes the book and its cover artifact. Both removals are best
// effort: a missing artifact or a failed row delete is logged and the user
// still lands back on the library page. The route is admin-gated.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		c.Redirect(http.StatusFound, "/library")
		return
	}

	if err := bc.covers.Remove(book.CoverPath); err != nil {
		logWarning("removing cover artifact for "+book.Title, err)
	}

	if err := bc.books.Delete(book.ID); err != nil {
		logWarning("deleting book "+book.Title, err)
	}

	c.Redirect(http.StatusFound, "/library")
}
