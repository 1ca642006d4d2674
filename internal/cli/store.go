// Package cli implements the librarian's command line subcommands. Each
// command parses its own flags and reads the rest of its settings from the
// same environment as the server.
package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/catalog/backend"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
)

// library bundles what a command opens and must close again.
type library struct {
	store catalog.Store
	db    *database.Database
	audit *audit.Service
}

func openLibrary(ctx context.Context, cfg *config.Config) (*library, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database, cfg.Library.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := backend.Open(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &library{
		store: store,
		db:    db,
		audit: audit.NewService(auditRepo.NewRepository(db.DB)),
	}, nil
}

func (l *library) Close() {
	l.audit.Wait()
	if err := l.store.Close(); err != nil {
		log.Printf("Error closing catalog: %v", err)
	}
	if err := l.db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
