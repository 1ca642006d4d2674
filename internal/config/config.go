package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for unsupported settings.
var ErrInvalidConfig = errors.New("invalid configuration")

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Single librarian password, session based
)

// LibraryMode selects which front end owns the index page.
type LibraryMode string

const (
	LibraryModeCatalog LibraryMode = "catalog"
	LibraryModeShelf   LibraryMode = "shelf"
)

type CatalogBackend string

const (
	CatalogBackendCSV      CatalogBackend = "csv"
	CatalogBackendSQLite   CatalogBackend = "sqlite"
	CatalogBackendPostgres CatalogBackend = "postgres"
	CatalogBackendRedis    CatalogBackend = "redis"
)

type (
	Config struct {
		HTTP
		Global
		Library
		Database
		Redis
		UI
		Auth
		Tasks
		Backup
		Audit
		ReadOnly
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Library struct {
		Mode              LibraryMode
		Backend           CatalogBackend
		DataDir           string
		BooksFile         string
		BorrowedBooksFile string
		ShelfFile         string
		ShelfEncoding     string // "presence" or "flag"
		IDPolicy          string // "monotonic" or "count"
	}
	Database struct {
		Path string // SQLite application database
		URL  string // Postgres DSN, used when Backend is postgres
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	UI struct {
		TemplatesPath string // Empty means the embedded templates
	}
	Auth struct {
		Mode            AuthMode
		PasswordHash    string
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		CSRFEnabled     bool
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Backup struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string
	}
	ReadOnly struct {
		Enabled bool
	}
)

// BooksPath returns the absolute-or-relative path of the catalog books file.
func (l Library) BooksPath() string {
	return filepath.Join(l.DataDir, l.BooksFile)
}

// BorrowedBooksPath returns the path of the catalog borrow mapping file.
func (l Library) BorrowedBooksPath() string {
	return filepath.Join(l.DataDir, l.BorrowedBooksFile)
}

// ShelfPath returns the path of the shelf file.
func (l Library) ShelfPath() string {
	return filepath.Join(l.DataDir, l.ShelfFile)
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Library defaults
	v.SetDefault("library_mode", string(LibraryModeCatalog))
	v.SetDefault("catalog_backend", string(CatalogBackendCSV))
	v.SetDefault("data_dir", ".")
	v.SetDefault("books_file", DefaultBooksFile)
	v.SetDefault("borrowed_books_file", DefaultBorrowedBooksFile)
	v.SetDefault("shelf_file", DefaultShelfFile)
	v.SetDefault("shelf_borrow_encoding", "presence")
	v.SetDefault("catalog_id_policy", "monotonic")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "librarian")

	v.SetDefault("templates_path", "")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_password_hash", "")
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", false)   // The library usually runs on a LAN without TLS
	v.SetDefault("csrf_enabled", true)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Backup defaults
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_dir", "./backups")
	v.SetDefault("backup_schedule", "0 3 * * *") // Daily at 03:00

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	v.SetDefault("read_only", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Library: Library{
			Mode:              LibraryMode(v.GetString("LIBRARY_MODE")),
			Backend:           CatalogBackend(v.GetString("CATALOG_BACKEND")),
			DataDir:           v.GetString("DATA_DIR"),
			BooksFile:         v.GetString("BOOKS_FILE"),
			BorrowedBooksFile: v.GetString("BORROWED_BOOKS_FILE"),
			ShelfFile:         v.GetString("SHELF_FILE"),
			ShelfEncoding:     v.GetString("SHELF_BORROW_ENCODING"),
			IDPolicy:          v.GetString("CATALOG_ID_POLICY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
			URL:  v.GetString("DATABASE_URL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			PasswordHash:    v.GetString("AUTH_PASSWORD_HASH"),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFEnabled:     v.GetBool("CSRF_ENABLED"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Backup: Backup{
			Enabled:  v.GetBool("BACKUP_ENABLED"),
			Dir:      v.GetString("BACKUP_DIR"),
			Schedule: v.GetString("BACKUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		ReadOnly: ReadOnly{
			Enabled: v.GetBool("READ_ONLY"),
		},
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Library.Mode {
	case LibraryModeCatalog, LibraryModeShelf:
	default:
		return fmt.Errorf("%w: unknown LIBRARY_MODE %q", ErrInvalidConfig, c.Library.Mode)
	}

	switch c.Library.Backend {
	case CatalogBackendCSV, CatalogBackendSQLite, CatalogBackendRedis:
	case CatalogBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown CATALOG_BACKEND %q", ErrInvalidConfig, c.Library.Backend)
	}

	switch c.Library.ShelfEncoding {
	case "presence", "flag":
	default:
		return fmt.Errorf("%w: unknown SHELF_BORROW_ENCODING %q", ErrInvalidConfig, c.Library.ShelfEncoding)
	}

	switch c.Library.IDPolicy {
	case "monotonic", "count":
	default:
		return fmt.Errorf("%w: unknown CATALOG_ID_POLICY %q", ErrInvalidConfig, c.Library.IDPolicy)
	}

	switch c.Auth.Mode {
	case AuthModeNone:
	case AuthModeLocal:
		if c.Auth.PasswordHash == "" {
			return fmt.Errorf("%w: AUTH_PASSWORD_HASH is required when AUTH_MODE=local", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown AUTH_MODE %q", ErrInvalidConfig, c.Auth.Mode)
	}

	return nil
}
