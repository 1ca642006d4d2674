// Package gormstore implements catalog.Store on top of gorm, for SQLite or
// Postgres databases opened by the database package.
//
// Book ids come from a row in catalog_sequences, so unlike the flat-file
// store they are never handed out twice, even across restarts.
package gormstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

const bookIDSequence = "book_id"

// Store handles catalog persistence in a relational database.
type Store struct {
	db *gorm.DB
}

var _ catalog.Store = (*Store)(nil)

// New creates a store over an already migrated connection and makes sure the
// id sequence starts above any book already present.
func New(db *gorm.DB) (*Store, error) {
	var maxSeq uint64
	if err := db.Model(&entities.Book{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return nil, fmt.Errorf("failed to read highest book id: %w", err)
	}

	seq := entities.Sequence{Name: bookIDSequence}
	if err := db.Where(entities.Sequence{Name: bookIDSequence}).Attrs(entities.Sequence{Value: maxSeq}).FirstOrCreate(&seq).Error; err != nil {
		return nil, fmt.Errorf("failed to initialise book id sequence: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := s.db.WithContext(ctx).Order("seq ASC").Find(&books).Error
	return books, err
}

func (s *Store) Borrowed(ctx context.Context) (map[string]string, error) {
	var records []entities.BorrowRecord
	if err := s.db.WithContext(ctx).Order("borrowed_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	borrowed := make(map[string]string, len(records))
	for _, r := range records {
		borrowed[r.BookID] = r.User
	}
	return borrowed, nil
}

func (s *Store) Add(ctx context.Context, title, author, year string) (entities.Book, error) {
	var book entities.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entities.Sequence{}).
			Where("name = ?", bookIDSequence).
			UpdateColumn("value", gorm.Expr("value + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to advance book id sequence: %w", err)
		}

		var seq entities.Sequence
		if err := tx.First(&seq, "name = ?", bookIDSequence).Error; err != nil {
			return fmt.Errorf("failed to read book id sequence: %w", err)
		}

		book = entities.Book{
			BookID:    strconv.FormatUint(seq.Value, 10),
			Seq:       seq.Value,
			Title:     title,
			Author:    author,
			Year:      year,
			CreatedAt: time.Now(),
		}
		return tx.Create(&book).Error
	})
	if err != nil {
		return entities.Book{}, err
	}
	return book, nil
}

func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Where("book_id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove book %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Search filters in Go rather than with LIKE: SQLite's LOWER only folds ASCII
// and the result has to match the other backends exactly.
func (s *Store) Search(ctx context.Context, query string) ([]entities.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(books, query), nil
}

func (s *Store) Borrow(ctx context.Context, id, user string) (bool, error) {
	record := entities.BorrowRecord{BookID: id, User: user, BorrowedAt: time.Now()}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) Return(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Where("book_id = ?", id).Delete(&entities.BorrowRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Close is a no-op; the connection belongs to the database package.
func (s *Store) Close() error {
	return nil
}
