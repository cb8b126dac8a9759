package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
)

// publishedDateLayout is the format used by the date inputs on the add/edit
// book forms.
const publishedDateLayout = "2006-01-02"

// render executes an HTML template with the auth/CSRF fields every page needs
// merged into the handler's data.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["LoggedIn"]; !ok {
		data["LoggedIn"] = auth.IsAuthenticated(c)
	}
	data["IsAdmin"] = auth.IsAdmin(c)
	data["CurrentUser"] = auth.CurrentUser(c)
	data["CSRFToken"] = auth.GetCSRFToken(c)
	if _, ok := data["Error"]; !ok {
		data["Error"] = c.Query("error")
	}

	c.HTML(status, name, data)
}

// parseIDParam extracts an unsigned integer ID from URL parameters. On a
// malformed ID it responds 404 and returns false; the pages only ever link to
// real IDs, so anything else is treated like a missing record.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return 0, false
	}
	return uint(id), true
}

// parseFormID extracts an unsigned integer ID from a posted form field.
func parseFormID(c *gin.Context, field string) (uint, bool) {
	idStr := c.PostForm(field)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// parsePublishedDate parses the YYYY-MM-DD value from the book forms.
func parsePublishedDate(value string) (time.Time, error) {
	return time.Parse(publishedDateLayout, value)
}

// logWarning records a non-fatal failure, typically around cover artifacts,
// that must not abort the surrounding operation.
func logWarning(context string, err error) {
	log.Printf("WARNING: %s: %v", context, err)
}
