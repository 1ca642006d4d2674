package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/exporters"
)

// QueueBackupCatalog is the queue and task type name.
const QueueBackupCatalog = "backup_catalog"

// BackupCatalogTask writes a timestamped CSV snapshot of the catalog and
// its borrow mapping into Dir.
type BackupCatalogTask struct {
	Dir string `json:"dir"`
}

// Config returns the queue configuration for backup tasks.
func (t BackupCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueBackupCatalog,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 7 * 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BackupCatalogProcessor creates a processor function for BackupCatalogTask.
// auditService may be nil.
func BackupCatalogProcessor(store catalog.Store, auditService *audit.Service, now func() time.Time) backlite.QueueProcessor[BackupCatalogTask] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, task BackupCatalogTask) error {
		if store == nil {
			return errors.New("catalog store not configured")
		}
		if task.Dir == "" {
			return errors.New("backup directory not set")
		}

		result, err := exporters.ExportCatalog(ctx, store, task.Dir, now())
		if err != nil {
			auditService.LogBackup(nil, err)
			return fmt.Errorf("backup catalog: %w", err)
		}

		auditService.LogBackup(result.Files(), nil)
		log.Printf("[TASK] Backed up %d books (%d borrowed) to %s", result.BooksExported, result.BooksBorrowed, result.BooksFile)
		return nil
	}
}

// NewBackupCatalogQueue creates a backlite queue for backup tasks.
func NewBackupCatalogQueue(store catalog.Store, auditService *audit.Service) backlite.Queue {
	return backlite.NewQueue(BackupCatalogProcessor(store, auditService, nil))
}
