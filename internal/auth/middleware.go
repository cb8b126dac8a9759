package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/entities"
)

// ContextKeyUser is the Gin context key holding the authenticated
// *entities.User for the current request.
const ContextKeyUser = "auth_user"

// Middleware resolves the session cookie to a user row on every request and
// enforces login for protected paths.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/":            true,
		"/health":      true,
		"/login":       true,
		"/register":    true,
		"/favicon.ico": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler authenticates requests. The user row is loaded fresh on every
// request so a promotion or demotion applies immediately, without waiting for
// the session to expire.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := m.resolveUser(c); user != nil {
			c.Set(ContextKeyUser, user)
			c.Next()
			return
		}

		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
		c.Abort()
	}
}

// RequireAdmin gates a route to administrators. Non-admins are silently
// redirected to a safe page rather than shown an error, matching the
// forgiving UX of the rest of the app.
func (m *Middleware) RequireAdmin(redirectTo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.Redirect(http.StatusFound, redirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *Middleware) resolveUser(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}

	return user
}

func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}

	return strings.HasPrefix(path, "/static/")
}

// CurrentUser retrieves the authenticated user from the Gin context, or nil.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// IsAuthenticated returns true if the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUser(c) != nil
}

// IsAdmin returns true if the authenticated user is an administrator.
func IsAdmin(c *gin.Context) bool {
	user := CurrentUser(c)
	return user != nil && user.Admin
}
