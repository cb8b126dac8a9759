package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/database/books"
)

// StatisticsController serves the borrowing-duration report. The route is
// admin-gated.
type StatisticsController struct {
	books *books.Repository
}

func NewStatisticsController(booksRepo *books.Repository) *StatisticsController {
	return &StatisticsController{books: booksRepo}
}

// StatisticsPage lists every currently-borrowed book ascending by borrow
// date, annotated with the whole days it has been out.
func (sc *StatisticsController) StatisticsPage(c *gin.Context) {
	borrowed, err := sc.books.Borrowed(time.Now())
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading statistics: %s", err.Error())
		return
	}

	render(c, http.StatusOK, "statistics", gin.H{
		"Title": "Statistics",
		"Books": borrowed,
	})
}
