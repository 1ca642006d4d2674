package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb, "test")
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Dial(context.Background(), mr.Addr(), "", 0, "")
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, "librarian", store.prefix)
}

func TestStore_AddList(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	books, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	first, err := store.Add(ctx, "Dune", "Frank Herbert", "1965")
	require.NoError(t, err)
	assert.Equal(t, "1", first.BookID)

	second, err := store.Add(ctx, "Emma", "Jane Austen", "1815")
	require.NoError(t, err)
	assert.Equal(t, "2", second.BookID)

	books, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Jane Austen", books[1].Author)

	assert.Equal(t, "Dune", mr.HGet("test:catalog:book:1", "title"))
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	_, err := store.Add(ctx, "A", "X", "")
	require.NoError(t, err)
	_, err = store.Add(ctx, "B", "Y", "")
	require.NoError(t, err)

	removed, err := store.Remove(ctx, "1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Remove(ctx, "99")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, mr.Exists("test:catalog:book:1"))

	books, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "2", books[0].BookID)

	book, err := store.Add(ctx, "C", "Z", "")
	require.NoError(t, err)
	assert.Equal(t, "3", book.BookID)
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	_, err := store.Add(ctx, "Dune", "Frank Herbert", "")
	require.NoError(t, err)
	_, err = store.Add(ctx, "Emma", "Jane Austen", "")
	require.NoError(t, err)

	results, err := store.Search(ctx, "AUSTEN")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Emma", results[0].Title)

	results, err = store.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
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

	changed, err = store.Return(ctx, "1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Return(ctx, "1")
	require.NoError(t, err)
	assert.False(t, changed)
}
