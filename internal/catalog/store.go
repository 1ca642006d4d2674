// Package catalog implements the id-keyed library catalog: a list of books and
// a separate borrow mapping from book id to borrower.
//
// Store is the repository interface the HTTP handlers, the CLI and the task
// queue work against. CSVStore keeps the flat-file format of books.csv and
// borrowed_books.csv; the gormstore and redisstore sub-packages provide the
// same operations over a database or a key-value store.
package catalog

import (
	"context"
	"strings"

	"github.com/mrlokans/librarian/internal/entities"
)

// Store is the catalog repository.
//
// Remove and Return are no-ops for unknown ids. Borrow does not check that the
// id refers to a book and never overwrites an existing borrower; the boolean
// results report whether anything changed.
type Store interface {
	List(ctx context.Context) ([]entities.Book, error)
	Borrowed(ctx context.Context) (map[string]string, error)
	Add(ctx context.Context, title, author, year string) (entities.Book, error)
	Remove(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string) ([]entities.Book, error)
	Borrow(ctx context.Context, id, user string) (bool, error)
	Return(ctx context.Context, id string) (bool, error)
	Close() error
}

// Match reports whether query is a case-insensitive substring of the book's
// title or author. The empty query matches every book.
func Match(title, author, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) || strings.Contains(strings.ToLower(author), q)
}

// Filter returns the books matching query, preserving order.
func Filter(books []entities.Book, query string) []entities.Book {
	results := make([]entities.Book, 0, len(books))
	for _, book := range books {
		if Match(book.Title, book.Author, query) {
			results = append(results, book)
		}
	}
	return results
}
