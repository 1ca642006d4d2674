// Package backend opens the catalog.Store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/catalog/gormstore"
	"github.com/mrlokans/librarian/internal/catalog/redisstore"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
)

// ErrUnknownBackend is returned for a CATALOG_BACKEND value with no implementation.
var ErrUnknownBackend = errors.New("unknown catalog backend")

// Open returns the configured store. db is required for the sqlite and
// postgres backends and ignored otherwise.
func Open(ctx context.Context, cfg *config.Config, db *database.Database) (catalog.Store, error) {
	switch cfg.Library.Backend {
	case config.CatalogBackendCSV:
		store, err := catalog.NewCSVStore(
			cfg.Library.BooksPath(),
			cfg.Library.BorrowedBooksPath(),
			catalog.IDPolicy(cfg.Library.IDPolicy),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv catalog: %w", err)
		}
		log.Printf("Catalog: csv files %s, %s", cfg.Library.BooksPath(), cfg.Library.BorrowedBooksPath())
		return store, nil

	case config.CatalogBackendSQLite, config.CatalogBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("catalog backend %s needs a database connection", cfg.Library.Backend)
		}
		store, err := gormstore.New(db.DB)
		if err != nil {
			return nil, err
		}
		log.Printf("Catalog: %s database", db.Dialect)
		return store, nil

	case config.CatalogBackendRedis:
		store, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		log.Printf("Catalog: redis at %s (prefix %q)", cfg.Redis.Addr, cfg.Redis.Prefix)
		return store, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Library.Backend)
}
