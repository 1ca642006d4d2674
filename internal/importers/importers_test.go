package importers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/catalog"
)

func TestParseCatalogCSV(t *testing.T) {
	t.Run("reads columns by header", func(t *testing.T) {
		input := "author,title,book_id\r\nFrank Herbert,Dune,9\r\nJane Austen,\"Emma, a novel\",10\r\n"
		books, problems, err := ParseCatalogCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, problems)
		assert.Equal(t, []RawBook{
			{Title: "Dune", Author: "Frank Herbert"},
			{Title: "Emma, a novel", Author: "Jane Austen"},
		}, books)
	})

	t.Run("keeps the year", func(t *testing.T) {
		books, _, err := ParseCatalogCSV(strings.NewReader("title,author,year\nDune,Frank Herbert,1965\n"))
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "1965", books[0].Year)
	})

	t.Run("missing required header", func(t *testing.T) {
		_, _, err := ParseCatalogCSV(strings.NewReader("title,year\nDune,1965\n"))
		assert.ErrorContains(t, err, "missing required header: author")
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := ParseCatalogCSV(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("rows without a title are reported", func(t *testing.T) {
		books, problems, err := ParseCatalogCSV(strings.NewReader("title,author\n,Nobody\nDune,Frank Herbert\n"))
		require.NoError(t, err)
		assert.Len(t, books, 1)
		assert.Equal(t, []string{"Line 2: missing title"}, problems)
	})
}

func TestParseCatalogYAML(t *testing.T) {
	input := `
books:
  - title: Dune
    author: Frank Herbert
    year: 1965
  - title: Emma
    author: Jane Austen
    year: "1815"
  - title: Anonymous pamphlet
  - author: Missing Title
`
	books, problems, err := ParseCatalogYAML(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []RawBook{
		{Title: "Dune", Author: "Frank Herbert", Year: "1965"},
		{Title: "Emma", Author: "Jane Austen", Year: "1815"},
		{Title: "Anonymous pamphlet"},
	}, books)
	assert.Equal(t, []string{"Entry 4: missing title"}, problems)

	_, _, err = ParseCatalogYAML(strings.NewReader("books: [unclosed"))
	assert.Error(t, err)

	books, _, err = ParseCatalogYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("title,author\nDune,Frank Herbert\n"), 0644))
	books, _, err := ParseFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	yamlPath := filepath.Join(dir, "seed.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("books:\n  - title: Dune\n"), 0644))
	books, _, err = ParseFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, _, err = ParseFile(filepath.Join(dir, "seed.json"))
	assert.Error(t, err)
}

func TestPipeline_Import(t *testing.T) {
	dir := t.TempDir()
	store, err := catalog.NewCSVStore(filepath.Join(dir, "books.csv"), filepath.Join(dir, "borrowed_books.csv"), catalog.IDPolicyMonotonic)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := NewPipeline(store).Import(ctx, []RawBook{
		{Title: "Dune", Author: "Frank Herbert", Year: "1965"},
		{Title: "Emma", Author: "Jane Austen"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksImported)
	assert.Zero(t, result.BooksFailed)

	books, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "1", books[0].BookID)
	assert.Equal(t, "2", books[1].BookID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewPipeline(store).Import(cancelled, []RawBook{{Title: "Late"}})
	assert.ErrorIs(t, err, context.Canceled)
}
