// Package database provides the gorm connection used by the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (SQLite or Postgres) and migrations
//	└── audit/           # Audit event persistence
//
// The catalog tables (books, borrowed_books, catalog_sequences) are migrated
// here as well so that catalog/gormstore can share the connection with the
// audit trail.
//
// # Usage
//
//	db, err := database.NewDatabase("./librarian.db")
//	auditRepo := audit.NewRepository(db.DB)
//	store, err := gormstore.New(db.DB)
package database
