package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Uploads
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Uploads struct {
		Dir       string // Directory on disk for cover images
		WebPrefix string // URL prefix the directory is served under
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")
	v.SetDefault("uploads_dir", DefaultUploadsDir)

	// Auth defaults
	v.SetDefault("session_secret", "")      // Auto-generated if empty
	v.SetDefault("session_lifetime", "24h") // 24 hours
	v.SetDefault("bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("secure_cookies", true)    // HTTPS-only cookies

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Uploads: Uploads{
			Dir:       v.GetString("UPLOADS_DIR"),
			WebPrefix: UploadsWebPrefix,
		},
		Auth: Auth{
			SessionSecret:   v.GetString("SESSION_SECRET"),
			SessionLifetime: v.GetDuration("SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("BCRYPT_COST"),
			SecureCookies:   v.GetBool("SECURE_COOKIES"),
		},
	}
}
