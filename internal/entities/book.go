package entities

import "time"

// Book is a catalog entry. BookID is the decimal identifier handed out when the
// book is added; it is what borrow records and forms refer to.
type Book struct {
	BookID    string    `gorm:"primaryKey;size:20" json:"book_id" yaml:"book_id"`
	Seq       uint64    `gorm:"index" json:"-" yaml:"-"`
	Title     string    `gorm:"index" json:"title" yaml:"title"`
	Author    string    `gorm:"index" json:"author" yaml:"author"`
	Year      string    `json:"year" yaml:"year"`
	CreatedAt time.Time `json:"-" yaml:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BorrowRecord marks a catalog book as lent out. Presence of a record is the
// borrowed state; the book itself is not consulted, so BookID and User are
// whatever the caller sent and carry no length limit.
type BorrowRecord struct {
	BookID     string    `gorm:"primaryKey" json:"book_id"`
	User       string    `json:"user"`
	BorrowedAt time.Time `json:"borrowed_at"`
}

func (BorrowRecord) TableName() string {
	return "borrowed_books"
}

// Sequence is a named persistent counter used to hand out book ids.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value uint64
}

func (Sequence) TableName() string {
	return "catalog_sequences"
}

// ShelfBook is one row of the shelf file, identified by its title and author.
type ShelfBook struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Borrowed bool   `json:"borrowed"`
}
