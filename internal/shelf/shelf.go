// Package shelf implements the title/author keyed library: a single CSV file
// with a title, author and borrowed column, re-read on every operation.
//
// With the presence encoding (the historical behaviour) a borrowed book is
// removed from the file and re-appended when it comes back, so the borrowed
// column of every stored row reads False. The flag encoding keeps the row and
// flips the column instead.
package shelf

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// ErrPermissionDenied wraps file access errors caused by permissions.
// Handlers report it to the user instead of failing the request.
var ErrPermissionDenied = errors.New("permission denied")

// Header is the header row of the shelf file.
var Header = []string{"title", "author", "borrowed"}

const (
	flagTrue  = "True"
	flagFalse = "False"
)

// Encoding selects how the borrowed state is stored.
type Encoding string

const (
	EncodingPresence Encoding = "presence"
	EncodingFlag     Encoding = "flag"
)

// Shelf is the file-backed collection. The mutex serialises the
// read-modify-write cycles of this process only.
type Shelf struct {
	path     string
	encoding Encoding
	mu       sync.Mutex
}

// New returns a shelf over path. The file itself is created lazily by the
// first Write; its directory is created here.
func New(path string, encoding Encoding) (*Shelf, error) {
	if encoding == "" {
		encoding = EncodingPresence
	}
	if encoding != EncodingPresence && encoding != EncodingFlag {
		return nil, fmt.Errorf("unknown shelf encoding %q", encoding)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, wrapErr("create directory for", path, err)
	}
	return &Shelf{path: path, encoding: encoding}, nil
}

// Path returns the backing file.
func (s *Shelf) Path() string {
	return s.path
}

// Encoding returns the configured borrowed-state encoding.
func (s *Shelf) Encoding() Encoding {
	return s.encoding
}

// Read returns every row. A missing file is an empty shelf.
func (s *Shelf) Read(ctx context.Context) ([]entities.ShelfBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Search returns the rows whose title or author contains query,
// case-insensitively. The empty query returns every row.
func (s *Shelf) Search(ctx context.Context, query string) ([]entities.ShelfBook, error) {
	books, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return books, nil
	}
	results := make([]entities.ShelfBook, 0, len(books))
	for _, b := range books {
		if catalog.Match(b.Title, b.Author, query) {
			results = append(results, b)
		}
	}
	return results, nil
}

// Write appends an available book. Duplicates are not checked.
func (s *Shelf) Write(ctx context.Context, title, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(entities.ShelfBook{Title: title, Author: author})
}

// Remove drops every row with the given title, whatever its author.
func (s *Shelf) Remove(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.read()
	if err != nil {
		return err
	}
	kept := make([]entities.ShelfBook, 0, len(books))
	for _, b := range books {
		if b.Title != title {
			kept = append(kept, b)
		}
	}
	return s.rewrite(kept)
}

// Borrow takes the first available row with the given title and reports
// whether one was found.
func (s *Shelf) Borrow(ctx context.Context, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.read()
	if err != nil {
		return false, err
	}

	idx := -1
	for i, b := range books {
		if b.Title == title && !b.Borrowed {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	switch s.encoding {
	case EncodingFlag:
		books[idx].Borrowed = true
	default:
		books = append(books[:idx], books[idx+1:]...)
	}
	if err := s.rewrite(books); err != nil {
		return false, err
	}
	return true, nil
}

// Return puts a book back and reports whether the file changed.
//
// With the presence encoding a row is appended when no row with exactly this
// title and author exists; an existing row means nothing to do. With the flag
// encoding a borrowed row is flipped back, and an unknown pair is appended.
func (s *Shelf) Return(ctx context.Context, title, author string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.read()
	if err != nil {
		return false, err
	}

	found := false
	for i, b := range books {
		if b.Title != title || b.Author != author {
			continue
		}
		found = true
		if s.encoding == EncodingFlag && b.Borrowed {
			books[i].Borrowed = false
			if err := s.rewrite(books); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	if found {
		return false, nil
	}

	if err := s.append(entities.ShelfBook{Title: title, Author: author}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Shelf) read() ([]entities.ShelfBook, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entities.ShelfBook{}, nil
	}
	if err != nil {
		return nil, wrapErr("open", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []entities.ShelfBook{}, nil
	}
	if err != nil {
		return nil, wrapErr("read header of", s.path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	get := func(fields []string, name string) string {
		if idx, ok := index[name]; ok && idx < len(fields) {
			return fields[idx]
		}
		return ""
	}

	books := []entities.ShelfBook{}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapErr("parse", s.path, err)
		}
		books = append(books, entities.ShelfBook{
			Title:  get(fields, "title"),
			Author: get(fields, "author"),
			// Only an explicit False counts as available.
			Borrowed: get(fields, "borrowed") != flagFalse,
		})
	}
	return books, nil
}

// append adds one row, writing the header first if the file is empty at the
// moment of appending.
func (s *Shelf) append(book entities.ShelfBook) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return wrapErr("open", s.path, err)
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return wrapErr("seek", s.path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if offset == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return wrapErr("write", s.path, err)
		}
	}
	if err := w.Write(toRecord(book)); err != nil {
		f.Close()
		return wrapErr("write", s.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return wrapErr("write", s.path, err)
	}
	if err := f.Close(); err != nil {
		return wrapErr("write", s.path, err)
	}
	return nil
}

func (s *Shelf) rewrite(books []entities.ShelfBook) error {
	f, err := os.Create(s.path)
	if err != nil {
		return wrapErr("write", s.path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	records := make([][]string, 0, len(books)+1)
	records = append(records, Header)
	for _, b := range books {
		records = append(records, toRecord(b))
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return wrapErr("write", s.path, err)
	}
	if err := f.Close(); err != nil {
		return wrapErr("write", s.path, err)
	}
	return nil
}

func toRecord(b entities.ShelfBook) []string {
	flag := flagFalse
	if b.Borrowed {
		flag = flagTrue
	}
	return []string{b.Title, b.Author, flag}
}

func wrapErr(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s %s: %w", ErrPermissionDenied, op, path, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, path, err)
}
