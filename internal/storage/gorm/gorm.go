// Package gormstorage implements storage.Backend on any gorm dialect. The
// sqlite and postgres backends embed it.
package gormstorage

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/felipedec/airport/internal/database"
	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/storage"
	"gorm.io/gorm"
)

const batchSize = 500

// Dependencies holds the injected collaborators.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend writes the journal through gorm.
type Backend struct {
	deps      Dependencies
	sessionID atomic.Uint64
}

// New creates a gorm backend. Init must be called before use.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the journal schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}
	b.deps.LogManager.WriteLog("storage:gorm", "Schema migrated", "DEBUG")
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) StartSession(s *model.Session) error {
	if err := b.deps.DB.Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	b.sessionID.Store(uint64(s.ID))
	b.deps.LogManager.WriteLog("storage:gorm", fmt.Sprintf("Session %d started", s.ID), "INFO")
	return nil
}

func (b *Backend) EndSession() error {
	id, err := b.current()
	if err != nil {
		return err
	}
	err = b.deps.DB.Model(&model.Session{}).Where("id = ?", id).Update("ended_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("end session %d: %w", id, err)
	}
	return nil
}

func (b *Backend) RecordTransition(t *model.Transition) error {
	return b.RecordTransitions([]model.Transition{*t})
}

func (b *Backend) RecordFlight(f *model.Flight) error {
	return b.RecordFlights([]model.Flight{*f})
}

// RecordTransitions inserts transitions in batches.
func (b *Backend) RecordTransitions(ts []model.Transition) error {
	return insert(b, ts, func(t *model.Transition, id uint) { t.SessionID = id })
}

// RecordFlights inserts flights in batches.
func (b *Backend) RecordFlights(fs []model.Flight) error {
	return insert(b, fs, func(f *model.Flight, id uint) { f.SessionID = id })
}

func insert[T any](b *Backend, items []T, stamp func(*T, uint)) error {
	if len(items) == 0 {
		return nil
	}
	id, err := b.current()
	if err != nil {
		return err
	}
	for i := range items {
		stamp(&items[i], id)
	}
	if err := b.deps.DB.Omit("Session").CreateInBatches(items, batchSize).Error; err != nil {
		return fmt.Errorf("insert %d rows: %w", len(items), err)
	}
	return nil
}

func (b *Backend) Recent(n int) ([]model.Transition, error) {
	return latest[model.Transition](b, n)
}

func (b *Backend) Flights(n int) ([]model.Flight, error) {
	return latest[model.Flight](b, n)
}

func latest[T any](b *Backend, n int) ([]T, error) {
	id, err := b.current()
	if err != nil {
		return nil, err
	}
	q := b.deps.DB.Where("session_id = ?", id).Order("id desc")
	if n > 0 {
		q = q.Limit(n)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (b *Backend) current() (uint, error) {
	id := b.sessionID.Load()
	if id == 0 {
		return 0, storage.ErrNoSession
	}
	return uint(id), nil
}
