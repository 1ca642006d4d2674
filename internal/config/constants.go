package config

// Default paths for the flat files and databases
const (
	// DefaultDatabasePath is the default path for the application database (audit, sessions)
	DefaultDatabasePath = "./librarian.db"

	// DefaultBooksFile is the catalog books file, relative to the data directory
	DefaultBooksFile = "books.csv"

	// DefaultBorrowedBooksFile is the catalog borrow mapping file, relative to the data directory
	DefaultBorrowedBooksFile = "borrowed_books.csv"

	// DefaultShelfFile is the shelf file, relative to the data directory
	DefaultShelfFile = "shelf/books.csv"
)
