package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/catalog"
)

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, f.err
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, QueueCleanupAuditEvents, cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{deleted: 4}
		err := CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
	})

	t.Run("defaults to thirty days", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		require.NoError(t, CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{}))
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	})

	t.Run("propagates errors", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		err := CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{})
		assert.ErrorContains(t, err, "locked")
	})

	t.Run("requires a cleaner", func(t *testing.T) {
		assert.Error(t, CleanupAuditEventsProcessor(nil)(ctx, CleanupAuditEventsTask{}))
	})
}

func TestBackupCatalogProcessor(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	store, err := catalog.NewCSVStore(filepath.Join(dataDir, "books.csv"), filepath.Join(dataDir, "borrowed_books.csv"), catalog.IDPolicyMonotonic)
	require.NoError(t, err)
	_, err = store.Add(ctx, "Dune", "Frank Herbert", "1965")
	require.NoError(t, err)

	stamp := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	process := BackupCatalogProcessor(store, nil, func() time.Time { return stamp })

	t.Run("writes stamped snapshots", func(t *testing.T) {
		backupDir := filepath.Join(t.TempDir(), "backups")
		require.NoError(t, process(ctx, BackupCatalogTask{Dir: backupDir}))

		data, err := os.ReadFile(filepath.Join(backupDir, "books-20240506T070809Z.csv"))
		require.NoError(t, err)
		assert.Equal(t, "book_id,title,author,year\r\n1,Dune,Frank Herbert,1965\r\n", string(data))
		assert.FileExists(t, filepath.Join(backupDir, "borrowed_books-20240506T070809Z.csv"))
	})

	t.Run("requires a directory", func(t *testing.T) {
		assert.Error(t, process(ctx, BackupCatalogTask{}))
	})
}

func TestBackupCatalogTaskConfig(t *testing.T) {
	cfg := BackupCatalogTask{Dir: "backups"}.Config()

	assert.Equal(t, QueueBackupCatalog, cfg.Name)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestDefaults_Build(t *testing.T) {
	d := Defaults{BackupDir: "backups", AuditRetentionDays: 10}

	task, err := d.Build(QueueBackupCatalog)
	require.NoError(t, err)
	assert.Equal(t, BackupCatalogTask{Dir: "backups"}, task)

	task, err = d.Build(QueueCleanupAuditEvents)
	require.NoError(t, err)
	assert.Equal(t, CleanupAuditEventsTask{RetentionDays: 10}, task)

	_, err = d.Build("enrich_book")
	assert.ErrorIs(t, err, ErrUnknownTaskType)

	assert.Len(t, Types(), 2)
}
