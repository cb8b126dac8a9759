package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
	"github.com/lendingroom/lendingroom/internal/database/users"
)

// UsersController serves the member list and the admin actions on accounts:
// deletion, promotion, demotion and password resets.
type UsersController struct {
	users   *users.Repository
	service *auth.Service
}

func NewUsersController(usersRepo *users.Repository, service *auth.Service) *UsersController {
	return &UsersController{
		users:   usersRepo,
		service: service,
	}
}

// UsersPage lists all members ordered by first name, case-insensitive.
func (uc *UsersController) UsersPage(c *gin.Context) {
	members, err := uc.users.List()
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading users: %s", err.Error())
		return
	}

	render(c, http.StatusOK, "users", gin.H{
		"Title": "Members",
		"Users": members,
	})
}

// DeleteUser removes a non-admin account. Administrators cannot be deleted
// through this path, and non-admin callers are silently bounced back to the
// member list.
func (uc *UsersController) DeleteUser(c *gin.Context) {
	if !auth.IsAdmin(c) {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	id, ok := parseFormID(c, "user_id")
	if !ok {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	if err := uc.users.Delete(id); err != nil {
		// Admin targets and vanished rows both resolve to the same redirect
		if !errors.Is(err, users.ErrUserIsAdmin) && !errors.Is(err, users.ErrUserNotFound) {
			c.String(http.StatusInternalServerError, "Error deleting user: %s", err.Error())
			return
		}
	}

	c.Redirect(http.StatusFound, "/users")
}

// Promote grants the administrator flag. Already-admin targets are a no-op.
// The route is admin-gated.
func (uc *UsersController) Promote(c *gin.Context) {
	uc.setAdmin(c, true)
}

// Demote revokes the administrator flag. Non-admin targets are a no-op. The
// route is admin-gated.
func (uc *UsersController) Demote(c *gin.Context) {
	uc.setAdmin(c, false)
}

func (uc *UsersController) setAdmin(c *gin.Context, admin bool) {
	id, ok := parseFormID(c, "user_id")
	if !ok {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	if err := uc.users.SetAdmin(id, admin); err != nil {
		c.String(http.StatusInternalServerError, "Error updating user: %s", err.Error())
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/user/%d", id))
}

// UserPage shows a single member's detail page with the books they currently
// hold.
func (uc *UsersController) UserPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := uc.users.GetByID(id)
	if err != nil {
		c.String(http.StatusNotFound, "User not found")
		return
	}

	render(c, http.StatusOK, "user", gin.H{
		"Title": member.FirstName + " " + member.LastName,
		"User":  member,
	})
}

// ResetPassword sets a new password for the target user. Allowed for the
// user themselves or any administrator; everyone else is silently refused.
func (uc *UsersController) ResetPassword(c *gin.Context) {
	actor := auth.CurrentUser(c)

	targetID, ok := parseFormID(c, "user_id")
	if !ok {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	err := uc.service.ResetPassword(actor, targetID, c.PostForm("new_password"))
	if err != nil && !errors.Is(err, auth.ErrResetNotPermitted) {
		if errors.Is(err, auth.ErrPasswordRequired) || errors.Is(err, auth.ErrPasswordTooLong) {
			c.Redirect(http.StatusFound, "/users?error=Invalid+password")
			return
		}
		c.String(http.StatusInternalServerError, "Error resetting password: %s", err.Error())
		return
	}

	c.Redirect(http.StatusFound, "/users")
}
