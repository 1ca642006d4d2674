package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/readonly"
	"github.com/mrlokans/librarian/internal/shelf"
	"github.com/mrlokans/librarian/internal/tasks"
)

// TaskQueue is the part of the task client the HTTP layer needs.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TaskSchedule reports when a scheduled task type fires next; nil means it
// is not scheduled.
type TaskSchedule interface {
	NextRun(name string) *time.Time
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog catalog.Store
	Shelf   *shelf.Shelf
	Mode    config.LibraryMode

	// Application database, nil when nothing but the flat files is in use
	Database *database.Database
	Audit    *audit.Service

	// Authentication
	AuthConfig     config.Auth
	SessionManager *auth.SessionManager
	CSRFSecret     []byte // Empty disables CSRF protection

	ReadOnly *readonly.Middleware

	// Task queue (optional)
	TaskQueue    TaskQueue
	TaskDefaults tasks.Defaults
	Schedule     TaskSchedule

	// Empty means the embedded templates
	TemplatesPath string

	Version string
}
