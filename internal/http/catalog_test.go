package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

func TestCatalogController_AddBook(t *testing.T) {
	app := setupTestApp(t)

	w := app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = app.postForm("/add_book", url.Values{"title": {"Emma"}, "author": {"Jane Austen"}, "year": {"1815"}})
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t,
		"book_id,title,author,year\r\n1,Dune,Frank Herbert,1965\r\n2,Emma,Jane Austen,1815\r\n",
		readFile(t, app.booksPath))

	w = app.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dune")
	assert.Contains(t, w.Body.String(), "Jane Austen")
}

func TestCatalogController_MissingFieldIsBadRequest(t *testing.T) {
	app := setupTestApp(t)

	w := app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "year")

	w = app.postForm("/borrow_book", url.Values{"book_id": {"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, "book_id,title,author,year\r\n", readFile(t, app.booksPath))
}

func TestCatalogController_EmptyFieldsAreAccepted(t *testing.T) {
	app := setupTestApp(t)

	w := app.postForm("/add_book", url.Values{"title": {""}, "author": {""}, "year": {""}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "book_id,title,author,year\r\n1,,,\r\n", readFile(t, app.booksPath))
}

func TestCatalogController_FormPages(t *testing.T) {
	app := setupTestApp(t)

	for path, field := range map[string]string{
		"/add_book":    `name="year"`,
		"/remove_book": `name="book_id"`,
		"/search_book": `name="query"`,
		"/borrow_book": `name="user"`,
		"/return_book": `name="book_id"`,
	} {
		t.Run(path, func(t *testing.T) {
			w := app.get(path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), field)
		})
	}
}

func TestCatalogController_Search(t *testing.T) {
	app := setupTestApp(t)
	app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	app.postForm("/add_book", url.Values{"title": {"Emma"}, "author": {"Jane Austen"}, "year": {"1815"}})

	w := app.postForm("/search_book", url.Values{"query": {"HERBERT"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1 - Dune by Frank Herbert (1965)")
	assert.NotContains(t, w.Body.String(), "Emma by")

	w = app.postForm("/search_book", url.Values{"query": {""}})
	assert.Contains(t, w.Body.String(), "Dune by")
	assert.Contains(t, w.Body.String(), "Emma by")

	w = app.get("/search_book")
	assert.NotContains(t, w.Body.String(), "Dune by")
}

func TestCatalogController_BorrowFirstWins(t *testing.T) {
	app := setupTestApp(t)
	app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})

	w := app.postForm("/borrow_book", url.Values{"book_id": {"1"}, "user": {"alice"}})
	assert.Equal(t, http.StatusFound, w.Code)
	w = app.postForm("/borrow_book", url.Values{"book_id": {"1"}, "user": {"bob"}})
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, "book_id,user\r\n1,alice\r\n", readFile(t, app.borrowedPath))

	w = app.get("/")
	assert.Contains(t, w.Body.String(), "alice")
}

func TestCatalogController_ReturnWithoutBorrowIsNoop(t *testing.T) {
	app := setupTestApp(t)
	before := readFile(t, app.borrowedPath)

	w := app.postForm("/return_book", url.Values{"book_id": {"7"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, before, readFile(t, app.borrowedPath))

	app.postForm("/borrow_book", url.Values{"book_id": {"7"}, "user": {"carol"}})
	app.postForm("/return_book", url.Values{"book_id": {"7"}})
	assert.Equal(t, "book_id,user\r\n", readFile(t, app.borrowedPath))
}

func TestCatalogController_RemoveKeepsBorrowMapping(t *testing.T) {
	app := setupTestApp(t)
	app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	app.postForm("/borrow_book", url.Values{"book_id": {"1"}, "user": {"alice"}})

	w := app.postForm("/remove_book", url.Values{"book_id": {"1"}})
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, "book_id,title,author,year\r\n", readFile(t, app.booksPath))
	assert.Equal(t, "book_id,user\r\n1,alice\r\n", readFile(t, app.borrowedPath))

	// Removing an unknown id is not an error.
	w = app.postForm("/remove_book", url.Values{"book_id": {"42"}})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCatalogController_AuditsMutations(t *testing.T) {
	app := setupTestApp(t)
	app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	app.postForm("/borrow_book", url.Values{"book_id": {"1"}, "user": {"alice"}})
	app.postForm("/borrow_book", url.Values{"book_id": {"1"}, "user": {"bob"}})
	app.audit.Wait()

	events, err := app.audit.GetEventsForEntity(audit.CollectionCatalog, "1")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, entities.AuditEventAdd, events[0].EventType)
	assert.Equal(t, entities.AuditStatusSuccess, events[1].Status)
	assert.Equal(t, entities.AuditStatusNoop, events[2].Status)
	assert.NotEmpty(t, events[0].RequestID)
}

func TestCatalogController_AuditsRemovalOfUnknownIDAsNoop(t *testing.T) {
	app := setupTestApp(t)
	app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	app.postForm("/remove_book", url.Values{"book_id": {"1"}})
	app.postForm("/remove_book", url.Values{"book_id": {"1"}})
	app.doJSON(http.MethodDelete, "/api/books/1", nil)
	app.audit.Wait()

	events, err := app.audit.GetEventsForEntity(audit.CollectionCatalog, "1")
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, entities.AuditEventRemove, events[1].EventType)
	assert.Equal(t, entities.AuditStatusSuccess, events[1].Status)
	assert.Equal(t, entities.AuditStatusNoop, events[2].Status)
	assert.Equal(t, entities.AuditStatusNoop, events[3].Status)
}

func TestCatalogController_ShelfModeMovesCatalog(t *testing.T) {
	app := setupTestApp(t, withMode("shelf"))

	w := app.postForm("/add_book", url.Values{"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/catalog", w.Header().Get("Location"))

	w = app.get("/catalog")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dune")
}
