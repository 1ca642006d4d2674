// Package exporters writes the catalog out in the same CSV format the CSV
// store keeps on disk, whatever backend actually holds it.
package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// WriteBooksCSV writes books with the book_id,title,author,year header.
func WriteBooksCSV(w io.Writer, books []entities.Book) error {
	rows := make([][]string, 0, len(books)+1)
	rows = append(rows, catalog.BooksHeader)
	for _, b := range books {
		rows = append(rows, []string{b.BookID, b.Title, b.Author, b.Year})
	}
	return writeAll(w, rows)
}

// WriteBorrowedCSV writes the borrow mapping with the book_id,user header,
// ordered by book id.
func WriteBorrowedCSV(w io.Writer, borrowed map[string]string) error {
	ids := make([]string, 0, len(borrowed))
	for id := range borrowed {
		ids = append(ids, id)
	}
	sortIDs(ids)

	rows := make([][]string, 0, len(ids)+1)
	rows = append(rows, catalog.BorrowedHeader)
	for _, id := range ids {
		rows = append(rows, []string{id, borrowed[id]})
	}
	return writeAll(w, rows)
}

// ExportResult lists the files written by ExportCatalog.
type ExportResult struct {
	BooksFile     string `json:"books_file"`
	BorrowedFile  string `json:"borrowed_file"`
	BooksExported int    `json:"books_exported"`
	BooksBorrowed int    `json:"books_borrowed"`
}

// Files returns the written paths.
func (r ExportResult) Files() []string {
	return []string{r.BooksFile, r.BorrowedFile}
}

// ExportCatalog writes books.csv and borrowed_books.csv into dir. A non-zero
// stamp is added to both names, which is how backups are kept apart.
func ExportCatalog(ctx context.Context, store catalog.Store, dir string, stamp time.Time) (ExportResult, error) {
	books, err := store.List(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to list books: %w", err)
	}
	borrowed, err := store.Borrowed(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to list borrowed books: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	suffix := ""
	if !stamp.IsZero() {
		suffix = "-" + stamp.UTC().Format("20060102T150405Z")
	}

	result := ExportResult{
		BooksFile:     filepath.Join(dir, "books"+suffix+".csv"),
		BorrowedFile:  filepath.Join(dir, "borrowed_books"+suffix+".csv"),
		BooksExported: len(books),
		BooksBorrowed: len(borrowed),
	}
	if err := writeFile(result.BooksFile, func(w io.Writer) error { return WriteBooksCSV(w, books) }); err != nil {
		return ExportResult{}, err
	}
	if err := writeFile(result.BorrowedFile, func(w io.Writer) error { return WriteBorrowedCSV(w, borrowed) }); err != nil {
		return ExportResult{}, err
	}
	return result, nil
}

// sortIDs orders numeric ids numerically and puts anything else after them.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseUint(ids[i], 10, 64)
		b, errB := strconv.ParseUint(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw.WriteAll(rows)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
