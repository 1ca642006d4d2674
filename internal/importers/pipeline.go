package importers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/librarian/internal/catalog"
)

// RawBook is one book read from an import file.
type RawBook struct {
	Title  string
	Author string
	Year   string
}

// ImportResult summarises one import.
type ImportResult struct {
	BooksImported int      `json:"books_imported"`
	BooksFailed   int      `json:"books_failed"`
	Errors        []string `json:"errors,omitempty"`
}

// ParseFile reads path with the parser matching its extension.
func ParseFile(path string) ([]RawBook, []string, error) {
	var parse func(*os.File) ([]RawBook, []string, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		parse = func(f *os.File) ([]RawBook, []string, error) { return ParseCatalogCSV(f) }
	case ".yaml", ".yml":
		parse = func(f *os.File) ([]RawBook, []string, error) { return ParseCatalogYAML(f) }
	default:
		return nil, nil, fmt.Errorf("unsupported import format %q", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

// Pipeline adds parsed books to a catalog store.
type Pipeline struct {
	store catalog.Store
}

// NewPipeline creates a new import pipeline writing to store.
func NewPipeline(store catalog.Store) *Pipeline {
	return &Pipeline{store: store}
}

// Import adds every book in order. A failed book is recorded and the import
// continues; only a cancelled context stops it early.
func (p *Pipeline) Import(ctx context.Context, books []RawBook) (ImportResult, error) {
	var result ImportResult
	for _, b := range books {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := p.store.Add(ctx, b.Title, b.Author, b.Year); err != nil {
			result.BooksFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", b.Title, err))
			continue
		}
		result.BooksImported++
	}
	return result, nil
}
