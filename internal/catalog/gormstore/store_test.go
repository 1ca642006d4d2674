package gormstore

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupStore(t *testing.T) (*Store, *database.Database) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := New(db.DB)
	require.NoError(t, err)
	return store, db
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns increasing ids from one", func(t *testing.T) {
		store, _ := setupStore(t)

		for i := 1; i <= 3; i++ {
			book, err := store.Add(ctx, "Title "+strconv.Itoa(i), "Author", "1999")
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(i), book.BookID)
		}

		books, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "Title 1", books[0].Title)
		assert.Equal(t, "1999", books[2].Year)
	})

	t.Run("never reuses an id after removal or reopen", func(t *testing.T) {
		store, db := setupStore(t)

		_, err := store.Add(ctx, "A", "X", "")
		require.NoError(t, err)
		_, err = store.Add(ctx, "B", "X", "")
		require.NoError(t, err)
		_, err = store.Remove(ctx, "2")
		require.NoError(t, err)

		reopened, err := New(db.DB)
		require.NoError(t, err)
		book, err := reopened.Add(ctx, "C", "X", "")
		require.NoError(t, err)
		assert.Equal(t, "3", book.BookID)
	})
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	_, err := store.Add(ctx, "A", "X", "")
	require.NoError(t, err)
	_, err = store.Borrow(ctx, "1", "alice")
	require.NoError(t, err)

	removed, err := store.Remove(ctx, "1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Remove(ctx, "404")
	require.NoError(t, err)
	assert.False(t, removed)

	books, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	borrowed, err := store.Borrowed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", borrowed["1"])
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	for _, b := range [][2]string{{"Dune", "Frank Herbert"}, {"Emma", "Jane Austen"}, {"Émile", "Rousseau"}} {
		_, err := store.Add(ctx, b[0], b[1], "")
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "HERB")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune", results[0].Title)

	results, err = store.Search(ctx, "émile")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = store.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStore_BorrowReturn(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	changed, err := store.Borrow(ctx, "1", "alice")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Borrow(ctx, "1", "bob")
	require.NoError(t, err)
	assert.False(t, changed)

	borrowed, err := store.Borrowed(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "alice"}, borrowed)

	changed, err = store.Return(ctx, "2")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = store.Return(ctx, "1")
	require.NoError(t, err)
	assert.True(t, changed)

	borrowed, err = store.Borrowed(ctx)
	require.NoError(t, err)
	assert.Empty(t, borrowed)
}

func TestStore_BorrowAcceptsAnyID(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	// Postgres enforces varchar lengths, so these columns must be unbounded.
	borrowSchema, err := schema.Parse(&entities.BorrowRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Zero(t, borrowSchema.LookUpField("BookID").Size)
	assert.Zero(t, borrowSchema.LookUpField("User").Size)

	longID := strings.Repeat("9", 64)
	changed, err := store.Borrow(ctx, longID, strings.Repeat("u", 300))
	require.NoError(t, err)
	assert.True(t, changed)

	borrowed, err := store.Borrowed(ctx)
	require.NoError(t, err)
	assert.Len(t, borrowed[longID], 300)
}
