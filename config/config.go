package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultThumbnailsSubDir = "thumbs"
	DefaultDatabasePath     = "comic_relay.sqlite"
)

const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// database path
	DatabasePath string `env:"DATABASE_PATH" envDefault:"comic_relay.sqlite"`

	// upload storage
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir        string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	ThumbnailsSubDir string `env:"THUMBNAILS_SUBDIR" envDefault:"thumbs"`
	ThumbnailMaxSize int    `env:"THUMBNAIL_MAX_SIZE" envDefault:"400"`
	MaxUploadBytes   int64  `env:"MAX_UPLOAD_BYTES" envDefault:"16777216"`
	CloudinaryURL    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"CLOUDINARY_FOLDER" envDefault:"manga-relay"`

	// admin basic auth; ADMIN_PASSWORD_HASH wins over ADMIN_PASSWORD
	AdminUsername     string `env:"ADMIN_USERNAME"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// outbound notification
	PublicBaseURL   string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	LineToken       string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineUserID      string `env:"LINE_USER_ID"`
	NotifyQueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"32"`
	NumNotifyWorker int    `env:"NUM_NOTIFY_WORKERS" envDefault:"1"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Env      string `env:"ENV" envDefault:"production"`
}

// ThumbnailsPath is the absolute directory thumbnails are written to
func (c Config) ThumbnailsPath() string {
	return filepath.Join(c.UploadDir, c.ThumbnailsSubDir)
}

// AdminEnabled reports whether a credential pair is configured
func (c Config) AdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPasswordHash != ""
}

// NotifyEnabled reports whether LINE push credentials are present
func (c Config) NotifyEnabled() bool {
	return c.LineToken != "" && c.LineUserID != ""
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return finalize(cfg)
}

// finalize resolves paths and validates values after parsing
func finalize(cfg Config) (Config, error) {
	absUploads, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for upload dir '%s': %w", cfg.UploadDir, err)
	}
	cfg.UploadDir = absUploads

	if strings.ContainsAny(cfg.ThumbnailsSubDir, `/\`) || cfg.ThumbnailsSubDir == ".." {
		return Config{}, fmt.Errorf("invalid THUMBNAILS_SUBDIR '%s'", cfg.ThumbnailsSubDir)
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	switch cfg.StorageBackend {
	case StorageLocal:
	case StorageCloudinary:
		if cfg.CloudinaryURL == "" {
			return Config{}, fmt.Errorf("CLOUDINARY_URL is required when STORAGE_BACKEND=%s", StorageCloudinary)
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND '%s'", cfg.StorageBackend)
	}

	if cfg.ThumbnailMaxSize <= 0 {
		return Config{}, fmt.Errorf("THUMBNAIL_MAX_SIZE must be positive, got %d", cfg.ThumbnailMaxSize)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}

	if cfg.AdminPasswordHash == "" && cfg.AdminPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return Config{}, fmt.Errorf("failed to hash admin password: %w", err)
		}
		cfg.AdminPasswordHash = string(hashed)
	}
	// plaintext is not kept around once hashed
	cfg.AdminPassword = ""

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}
