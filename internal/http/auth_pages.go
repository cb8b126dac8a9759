package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
)

// AuthController serves the login and registration pages and the logout
// action.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager) *AuthController {
	return &AuthController{
		service:  service,
		sessions: sessions,
	}
}

// LoginPage renders the login form. An already-authenticated visitor is sent
// straight to the catalogue.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if auth.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/library")
		return
	}

	render(c, http.StatusOK, "login", gin.H{
		"Title": "Login",
		"Next":  c.Query("next"),
	})
}

// Login handles the login form submission. A next form value set by the auth
// middleware's redirect sends the user back to the page they asked for.
func (ac *AuthController) Login(c *gin.Context) {
	if auth.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/library")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")
	next := c.PostForm("next")

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		render(c, http.StatusUnauthorized, "login", gin.H{
			"Title":    "Login",
			"Username": username,
			"Next":     next,
			"Error":    "Invalid username or password",
		})
		return
	}

	if err := ac.sessions.CreateSession(c.Request, user); err != nil {
		render(c, http.StatusInternalServerError, "login", gin.H{
			"Title":    "Login",
			"Username": username,
			"Next":     next,
			"Error":    "Failed to create session",
		})
		return
	}

	c.Redirect(http.StatusFound, safeNextPath(next))
}

// safeNextPath keeps post-login redirects on this site. Only a plain local
// path qualifies; anything else falls back to the catalogue.
func safeNextPath(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/library"
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if auth.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/library")
		return
	}

	render(c, http.StatusOK, "registration", gin.H{"Title": "Register"})
}

// Register handles the registration form submission. The first account ever
// created becomes the administrator.
func (ac *AuthController) Register(c *gin.Context) {
	if auth.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/library")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")
	firstName := c.PostForm("firstname")
	lastName := c.PostForm("lastname")

	_, err := ac.service.Register(username, password, firstName, lastName)
	if err != nil {
		errorMsg := "Failed to create account"
		switch {
		case errors.Is(err, auth.ErrUserExists):
			errorMsg = "This username is already taken"
		case errors.Is(err, auth.ErrUsernameRequired), errors.Is(err, auth.ErrUsernameInvalid):
			errorMsg = "Username must be 2-64 characters, alphanumeric with underscore/hyphen only"
		case errors.Is(err, auth.ErrNameRequired):
			errorMsg = "First and last name are required"
		case errors.Is(err, auth.ErrPasswordRequired):
			errorMsg = "Password is required"
		case errors.Is(err, auth.ErrPasswordTooLong):
			errorMsg = "Password exceeds maximum length of 72 characters"
		}

		render(c, http.StatusOK, "registration", gin.H{
			"Title":     "Register",
			"Username":  username,
			"FirstName": firstName,
			"LastName":  lastName,
			"Error":     errorMsg,
		})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

// Logout destroys the session unconditionally and redirects to the login
// page.
func (ac *AuthController) Logout(c *gin.Context) {
	_ = ac.sessions.DestroySession(c.Request)
	c.Redirect(http.StatusFound, "/login")
}
