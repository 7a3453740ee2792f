// Package postgres implements the journal on PostgreSQL through the shared
// gorm backend.
package postgres

import (
	"fmt"

	"github.com/felipedec/airport/internal/database"
	"github.com/felipedec/airport/internal/logging"
	gormstorage "github.com/felipedec/airport/internal/storage/gorm"
	"gorm.io/gorm"
)

const maxOpenConns = 10

// Dependencies holds the injected collaborators. A nil DB is opened from
// the db.* config keys on Init.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend is the gorm backend on a pinged Postgres pool.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// Init connects when needed, validates the connection and migrates the
// schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.OpenPostgres()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, LogManager: b.deps.LogManager})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.LogManager.WriteLog("storage:postgres", "Database setup complete", "INFO")
	return nil
}

// Close closes the pool. It is a no-op before Init.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
