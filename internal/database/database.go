package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

type Database struct {
	DB      *gorm.DB
	Dialect string
}

// NewDatabase opens (creating if needed) the SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := open(sqlite.Open(dbPath))
	if err != nil {
		return nil, err
	}
	log.Printf("Database initialized successfully at %s", dbPath)
	return db, nil
}

// NewPostgresDatabase connects to the Postgres server described by dsn.
func NewPostgresDatabase(dsn string) (*Database, error) {
	db, err := open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	log.Printf("Database initialized successfully on postgres")
	return db, nil
}

// Open connects to Postgres when the catalog lives there and to the SQLite
// file at cfg.Path otherwise.
func Open(cfg config.Database, backend config.CatalogBackend) (*Database, error) {
	if backend == config.CatalogBackendPostgres {
		return NewPostgresDatabase(cfg.URL)
	}
	return NewDatabase(cfg.Path)
}

func open(dialector gorm.Dialector) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Book{},
		&entities.BorrowRecord{},
		&entities.Sequence{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db, Dialect: dialector.Name()}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
