package entrypoint

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog/backend"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/readonly"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/shelf"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server so nothing new is enqueued
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarian v%s", version)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize database (audit trail, sessions, and the catalog for the sqlite/postgres backends)
	db, err := database.Open(cfg.Database, cfg.Library.Backend)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	store, err := backend.Open(context.Background(), cfg, db)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing catalog: %v", err)
		}
	}()

	bookShelf, err := shelf.New(cfg.Library.ShelfPath(), shelf.Encoding(cfg.Library.ShelfEncoding))
	if err != nil {
		log.Fatalf("Failed to open shelf: %v", err)
	}
	log.Printf("Shelf: %s (%s encoding), index page: %s", bookShelf.Path(), bookShelf.Encoding(), cfg.Library.Mode)

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	defer auditService.Wait()

	// Sessions carry flash messages in every mode and the librarian login in local mode.
	// They live in the SQLite application database when there is one.
	var sessionDB *sql.DB
	if db.Dialect == "sqlite" {
		sessionDB, err = db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
	}
	sessionManager, err := auth.NewSessionManager(sessionDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	var csrfSecret []byte
	if cfg.Auth.CSRFEnabled {
		secret := cfg.Auth.SessionSecret
		if secret == "" {
			secret, err = auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}
		csrfSecret = auth.SecretKey(secret)
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local (changes require the librarian password)")
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	if cfg.ReadOnly.Enabled {
		log.Printf("Read-only mode enabled - write operations will be blocked")
	}

	taskDefaults := tasks.Defaults{
		BackupDir:          cfg.Backup.Dir,
		AuditRetentionDays: cfg.Audit.RetentionDays,
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var sched *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks),
			tasks.NewBackupCatalogQueue(store, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		sched = scheduler.New(taskClient)
		if cfg.Backup.Enabled {
			task, _ := taskDefaults.Build(tasks.QueueBackupCatalog)
			if err := sched.Add(tasks.QueueBackupCatalog, cfg.Backup.Schedule, task); err != nil {
				log.Fatalf("Failed to schedule backups: %v", err)
			}
		}
		if cfg.Audit.CleanupSchedule != "" {
			task, _ := taskDefaults.Build(tasks.QueueCleanupAuditEvents)
			if err := sched.Add(tasks.QueueCleanupAuditEvents, cfg.Audit.CleanupSchedule, task); err != nil {
				log.Fatalf("Failed to schedule audit cleanup: %v", err)
			}
		}
		sched.Start(taskCtx)
	} else if cfg.Backup.Enabled {
		log.Printf("WARNING: BACKUP_ENABLED is set but TASKS_ENABLED is false; no backups will run")
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:        store,
		Shelf:          bookShelf,
		Mode:           cfg.Library.Mode,
		Database:       db,
		Audit:          auditService,
		AuthConfig:     cfg.Auth,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		ReadOnly:       readonly.NewMiddleware(cfg.ReadOnly.Enabled),
		TaskDefaults:   taskDefaults,
		TemplatesPath:  cfg.UI.TemplatesPath,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
		routerCfg.Schedule = sched
	}

	router, err := http_controllers.NewRouter(routerCfg)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
