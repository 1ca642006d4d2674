package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "librarian.db")

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Dialect)
	assert.NoError(t, db.Ping())

	for _, table := range []string{"books", "borrowed_books", "catalog_sequences", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "table %s should exist", table)
	}
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "close.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
