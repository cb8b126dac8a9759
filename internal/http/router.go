package http

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/auth"
	"github.com/lendingroom/lendingroom/internal/covers"
	"github.com/lendingroom/lendingroom/internal/database"
	"github.com/lendingroom/lendingroom/internal/database/books"
	"github.com/lendingroom/lendingroom/internal/database/history"
	"github.com/lendingroom/lendingroom/internal/database/users"
)

// RouterConfig carries all dependencies for router construction, improving
// testability and reducing parameter count.
type RouterConfig struct {
	Database       *database.Database
	BooksRepo      *books.Repository
	UsersRepo      *users.Repository
	HistoryRepo    *history.Repository
	CoverStore     *covers.Store
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool
	TemplatesPath  string
	StaticPath     string
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before the session middleware so that session context is
	// layered on top of CSRF's request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}
	router.Use(cfg.AuthMiddleware.Handler())

	funcMap := template.FuncMap{
		"fullName": func(first, last string) string {
			return first + " " + last
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.Static("/static", cfg.StaticPath)

	home := NewHomeController()
	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService, cfg.SessionManager)
	booksController := NewBooksController(cfg.BooksRepo, cfg.HistoryRepo, cfg.CoverStore)
	usersController := NewUsersController(cfg.UsersRepo, cfg.AuthService)
	statsController := NewStatisticsController(cfg.BooksRepo)

	router.GET("/", home.HomePage)
	router.GET("/health", health.Status)

	// Auth pages
	router.GET("/login", authController.LoginPage)
	router.POST("/login", authController.Login)
	router.GET("/register", authController.RegisterPage)
	router.POST("/register", authController.Register)
	router.GET("/logout", authController.Logout)

	// Catalogue
	adminToLibrary := cfg.AuthMiddleware.RequireAdmin("/library")
	router.GET("/library", booksController.LibraryPage)
	router.GET("/addbook", adminToLibrary, booksController.AddBookPage)
	router.POST("/addbook", adminToLibrary, booksController.AddBook)
	router.GET("/editbook/:id", booksController.EditBookPage)
	router.POST("/editbook/:id", booksController.EditBook) // admin check inline, redirects to the book
	router.GET("/book/:id", booksController.BookPage)
	router.POST("/book/:id", booksController.Borrow)
	router.POST("/book/:id/note", booksController.SaveNote) // admin check inline
	router.POST("/bookreturn/:id", booksController.ReturnBook)
	router.POST("/deletebook/:id", adminToLibrary, booksController.DeleteBook)

	// Members and administration
	adminToUsers := cfg.AuthMiddleware.RequireAdmin("/users")
	router.GET("/users", usersController.UsersPage)
	router.POST("/users", usersController.DeleteUser) // admin check inline
	router.POST("/upgrade", adminToUsers, usersController.Promote)
	router.POST("/downgrade", adminToUsers, usersController.Demote)
	router.GET("/user/:id", usersController.UserPage)
	router.POST("/pwreset", usersController.ResetPassword)

	// Statistics report
	router.GET("/statistics", cfg.AuthMiddleware.RequireAdmin("/"), statsController.StatisticsPage)

	return router
}
