package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
)

// HomeController serves the landing page, which varies by auth state.
type HomeController struct{}

func NewHomeController() *HomeController {
	return &HomeController{}
}

func (hc *HomeController) HomePage(c *gin.Context) {
	if auth.IsAuthenticated(c) {
		render(c, http.StatusOK, "home_logged_in", gin.H{"Title": "Home"})
		return
	}
	render(c, http.StatusOK, "home_logged_out", gin.H{"Title": "Welcome"})
}
