package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
)

// followFlash requests the page a form post redirected to, carrying the
// session cookie so the flash messages show up.
func followFlash(t *testing.T, app *testApp, w *httptest.ResponseRecorder, location string) string {
	t.Helper()
	resp := w.Result()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))

	cookie := sessionCookie(w)
	require.NotNil(t, cookie, "flash needs a session cookie")

	page := app.get(location, cookie)
	require.Equal(t, http.StatusOK, page.Code)
	return page.Body.String()
}

func TestShelfController_AddAndList(t *testing.T) {
	app := setupTestApp(t, withMode(config.LibraryModeShelf))

	w := app.postForm("/add", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}})
	body := followFlash(t, app, w, "/")
	assert.Contains(t, body, `Added &#34;Dune&#34;`)
	assert.Contains(t, body, "Frank Herbert")

	assert.Equal(t, "title,author,borrowed\r\nDune,Frank Herbert,False\r\n", readFile(t, app.shelf.Path()))
}

func TestShelfController_IndexFilter(t *testing.T) {
	app := setupTestApp(t, withMode(config.LibraryModeShelf))
	ctx := context.Background()
	require.NoError(t, app.shelf.Write(ctx, "Dune", "Frank Herbert"))
	require.NoError(t, app.shelf.Write(ctx, "Emma", "Jane Austen"))

	w := app.get("/?search=austen")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Emma")
	assert.NotContains(t, w.Body.String(), "Dune")

	w = app.get("/shelf")
	assert.Contains(t, w.Body.String(), "Emma")
	assert.Contains(t, w.Body.String(), "Dune")
}

func TestShelfController_BorrowAndReturn(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, app.shelf.Write(context.Background(), "Dune", "Frank Herbert"))

	w := app.postForm("/borrow", url.Values{"title": {"Dune"}})
	body := followFlash(t, app, w, "/shelf")
	assert.Contains(t, body, `You borrowed &#34;Dune&#34;`)
	assert.Equal(t, "title,author,borrowed\r\n", readFile(t, app.shelf.Path()))

	w = app.postForm("/borrow", url.Values{"title": {"Dune"}})
	body = followFlash(t, app, w, "/shelf")
	assert.Contains(t, body, `&#34;Dune&#34; is not available`)

	w = app.postForm("/return", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}})
	body = followFlash(t, app, w, "/shelf")
	assert.Contains(t, body, `&#34;Dune&#34; is back on the shelf`)
	assert.Equal(t, "title,author,borrowed\r\nDune,Frank Herbert,False\r\n", readFile(t, app.shelf.Path()))

	w = app.postForm("/return", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}})
	body = followFlash(t, app, w, "/shelf")
	assert.Contains(t, body, `&#34;Dune&#34; is already on the shelf`)
	assert.Equal(t, "title,author,borrowed\r\nDune,Frank Herbert,False\r\n", readFile(t, app.shelf.Path()))
}

func TestShelfController_RemoveDropsEveryAuthor(t *testing.T) {
	app := setupTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.shelf.Write(ctx, "Poems", "Emily Dickinson"))
	require.NoError(t, app.shelf.Write(ctx, "Poems", "Walt Whitman"))
	require.NoError(t, app.shelf.Write(ctx, "Emma", "Jane Austen"))

	w := app.postForm("/remove", url.Values{"title": {"Poems"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "title,author,borrowed\r\nEmma,Jane Austen,False\r\n", readFile(t, app.shelf.Path()))
}

func TestShelfController_Search(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, app.shelf.Write(context.Background(), "Dune", "Frank Herbert"))

	w := app.get("/search")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Dune by")

	w = app.get("/search?query=dune")
	assert.Contains(t, w.Body.String(), "Dune by Frank Herbert")

	w = app.postForm("/search", url.Values{"query": {"tolkien"}})
	assert.Contains(t, w.Body.String(), "No matches.")
}

func TestShelfController_MissingField(t *testing.T) {
	app := setupTestApp(t)

	w := app.postForm("/return", url.Values{"title": {"Dune"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShelfController_PermissionDeniedBecomesFlash(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	app := setupTestApp(t)
	require.NoError(t, app.shelf.Write(context.Background(), "Dune", "Frank Herbert"))
	require.NoError(t, os.Chmod(app.shelf.Path(), 0o000))
	t.Cleanup(func() { _ = os.Chmod(app.shelf.Path(), 0o644) })

	w := app.postForm("/borrow", url.Values{"title": {"Dune"}})
	body := followFlash(t, app, w, "/shelf")
	assert.Contains(t, body, "Permission denied")
}
