package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./lendingroom.db"

	// DefaultUploadsDir is the default directory for uploaded cover images
	DefaultUploadsDir = "./static/uploads"

	// UploadsWebPrefix is the URL prefix cover images are served under
	UploadsWebPrefix = "/static/uploads"

	// DefaultBcryptCost is the default bcrypt cost factor for password hashing
	DefaultBcryptCost = 12
)
