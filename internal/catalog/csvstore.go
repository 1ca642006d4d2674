package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/mrlokans/librarian/internal/entities"
)

// Header rows of the two catalog files.
var (
	BooksHeader    = []string{"book_id", "title", "author", "year"}
	BorrowedHeader = []string{"book_id", "user"}
)

// IDPolicy controls how CSVStore numbers new books.
type IDPolicy string

const (
	// IDPolicyMonotonic hands out one more than the highest id ever seen by
	// this process, so ids are never repeated while it runs.
	IDPolicyMonotonic IDPolicy = "monotonic"
	// IDPolicyCount uses len(books)+1, which repeats ids after removals.
	// Kept for installations that depend on the historical numbering.
	IDPolicyCount IDPolicy = "count"
)

// CSVStore is a Store over books.csv and borrowed_books.csv.
//
// Both files are read once at construction. Every mutation rewrites the whole
// affected file. The mutex only serialises requests inside this process;
// another process writing the same files will race with it.
type CSVStore struct {
	booksPath    string
	borrowedPath string
	policy       IDPolicy

	mu          sync.Mutex
	books       []entities.Book
	borrowed    map[string]string
	borrowOrder []string
	lastID      uint64
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore creates missing files with their header row and loads both.
func NewCSVStore(booksPath, borrowedPath string, policy IDPolicy) (*CSVStore, error) {
	if policy == "" {
		policy = IDPolicyMonotonic
	}
	if policy != IDPolicyMonotonic && policy != IDPolicyCount {
		return nil, fmt.Errorf("unknown id policy %q", policy)
	}

	s := &CSVStore{
		booksPath:    booksPath,
		borrowedPath: borrowedPath,
		policy:       policy,
		borrowed:     make(map[string]string),
	}

	if err := ensureFile(booksPath, BooksHeader); err != nil {
		return nil, err
	}
	if err := ensureFile(borrowedPath, BorrowedHeader); err != nil {
		return nil, err
	}
	if err := s.loadBooks(); err != nil {
		return nil, err
	}
	if err := s.loadBorrowed(); err != nil {
		return nil, err
	}

	return s, nil
}

func ensureFile(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	return writeCSV(path, header, nil)
}

func (s *CSVStore) loadBooks() error {
	records, err := readCSV(s.booksPath)
	if err != nil {
		return err
	}
	for _, r := range records {
		book := entities.Book{
			BookID: r.get("book_id"),
			Title:  r.get("title"),
			Author: r.get("author"),
			Year:   r.get("year"),
		}
		s.books = append(s.books, book)
		s.raiseLastID(book.BookID)
	}
	return nil
}

// raiseLastID keeps the high-water mark above every numeric id on disk.
func (s *CSVStore) raiseLastID(id string) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil && n > s.lastID {
		s.lastID = n
	}
}

func (s *CSVStore) loadBorrowed() error {
	records, err := readCSV(s.borrowedPath)
	if err != nil {
		return err
	}
	for _, r := range records {
		id := r.get("book_id")
		if _, exists := s.borrowed[id]; !exists {
			s.borrowOrder = append(s.borrowOrder, id)
		}
		s.borrowed[id] = r.get("user")
		// A removed book may still be lent out; its id must not come back.
		s.raiseLastID(id)
	}
	return nil
}

func (s *CSVStore) List(ctx context.Context) ([]entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Book(nil), s.books...), nil
}

func (s *CSVStore) Borrowed(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.borrowed))
	for id, user := range s.borrowed {
		out[id] = user
	}
	return out, nil
}

func (s *CSVStore) Add(ctx context.Context, title, author, year string) (entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.lastID + 1
	if s.policy == IDPolicyCount {
		next = uint64(len(s.books) + 1)
	}

	book := entities.Book{
		BookID: strconv.FormatUint(next, 10),
		Title:  title,
		Author: author,
		Year:   year,
	}
	books := append(append([]entities.Book(nil), s.books...), book)
	if err := s.saveBooks(books); err != nil {
		return entities.Book{}, err
	}

	s.books = books
	if next > s.lastID {
		s.lastID = next
	}
	return book, nil
}

func (s *CSVStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := make([]entities.Book, 0, len(s.books))
	for _, book := range s.books {
		if book.BookID != id {
			books = append(books, book)
		}
	}
	if len(books) == len(s.books) {
		return false, nil
	}
	if err := s.saveBooks(books); err != nil {
		return false, err
	}
	s.books = books
	return true, nil
}

func (s *CSVStore) Search(ctx context.Context, query string) ([]entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.books, query), nil
}

func (s *CSVStore) Borrow(ctx context.Context, id, user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.borrowed[id]; exists {
		return false, nil
	}

	order := append(append([]string(nil), s.borrowOrder...), id)
	borrowed := make(map[string]string, len(s.borrowed)+1)
	for k, v := range s.borrowed {
		borrowed[k] = v
	}
	borrowed[id] = user

	if err := s.saveBorrowed(order, borrowed); err != nil {
		return false, err
	}
	s.borrowOrder, s.borrowed = order, borrowed
	return true, nil
}

func (s *CSVStore) Return(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.borrowed[id]; !exists {
		return false, nil
	}

	order := make([]string, 0, len(s.borrowOrder))
	borrowed := make(map[string]string, len(s.borrowed))
	for _, k := range s.borrowOrder {
		if k == id {
			continue
		}
		order = append(order, k)
		borrowed[k] = s.borrowed[k]
	}

	if err := s.saveBorrowed(order, borrowed); err != nil {
		return false, err
	}
	s.borrowOrder, s.borrowed = order, borrowed
	return true, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) saveBooks(books []entities.Book) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{b.BookID, b.Title, b.Author, b.Year})
	}
	return writeCSV(s.booksPath, BooksHeader, rows)
}

func (s *CSVStore) saveBorrowed(order []string, borrowed map[string]string) error {
	rows := make([][]string, 0, len(order))
	for _, id := range order {
		rows = append(rows, []string{id, borrowed[id]})
	}
	return writeCSV(s.borrowedPath, BorrowedHeader, rows)
}

// record is a CSV row addressed by header name.
type record struct {
	index  map[string]int
	fields []string
}

func (r record) get(name string) string {
	if idx, ok := r.index[name]; ok && idx < len(r.fields) {
		return r.fields[idx]
	}
	return ""
}

// readCSV reads a headed CSV file. A missing or empty file yields no records.
func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, record{index: index, fields: fields})
	}
	return records, nil
}

// writeCSV truncates path and writes the header followed by rows, using CRLF
// line endings like the files produced by the original tooling.
func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
