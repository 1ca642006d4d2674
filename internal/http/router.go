package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/readonly"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	router.Use(auth.NewMiddleware(cfg.SessionManager, cfg.AuthConfig).Handler())

	readOnly := cfg.ReadOnly
	if readOnly == nil {
		readOnly = readonly.NewMiddleware(false)
	}
	router.Use(readOnly.Handler())

	router.SetHTMLTemplate(tmpl)

	// Health endpoints
	health := NewHealthController(cfg.Catalog, cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	router.GET("/api/readonly/status", readOnly.StatusHandler)

	if cfg.AuthConfig.Mode == config.AuthModeLocal && cfg.SessionManager != nil {
		auth.NewAuthController(cfg.AuthConfig, cfg.SessionManager, cfg.Audit).RegisterRoutes(router)
	}

	catalogIndex, shelfIndex := "/catalog", "/shelf"
	if cfg.Mode == config.LibraryModeShelf {
		shelfIndex = "/"
	} else {
		catalogIndex = "/"
	}

	// Catalog pages
	catalogController := NewCatalogController(cfg.Catalog, cfg.Audit, catalogIndex)
	catalogController.RegisterRoutes(router)
	router.GET("/catalog", catalogController.Index)

	// Shelf pages
	if cfg.Shelf != nil {
		shelfController := NewShelfController(cfg.Shelf, cfg.SessionManager, cfg.Audit, shelfIndex)
		shelfController.RegisterRoutes(router)
		router.GET("/shelf", shelfController.Index)
		if cfg.Mode == config.LibraryModeShelf {
			router.GET("/", shelfController.Index)
		}
	}
	if cfg.Mode != config.LibraryModeShelf || cfg.Shelf == nil {
		router.GET("/", catalogController.Index)
	}

	// JSON API
	NewBooksAPIController(cfg.Catalog, cfg.Shelf, cfg.Audit).RegisterRoutes(router)

	// CSV downloads
	exportController := NewExportController(cfg.Catalog)
	router.GET("/export/books.csv", exportController.Books)
	router.GET("/export/borrowed_books.csv", exportController.Borrowed)

	// Audit log
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		router.GET("/api/audit", auditController.ListEvents)
		router.GET("/api/audit/:collection/:id", auditController.EntityHistory)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.TaskDefaults, cfg.Schedule)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router, nil
}
