package main

import (
	"fmt"
	"path/filepath"

	"github.com/felipedec/airport/internal/config"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/sim"
	"github.com/felipedec/airport/internal/storage"
	"github.com/felipedec/airport/internal/storage/memory"
	pgstorage "github.com/felipedec/airport/internal/storage/postgres"
	sqlitestorage "github.com/felipedec/airport/internal/storage/sqlite"
	"github.com/felipedec/airport/internal/worker"
)

var sessionContext = session.NewContext()

func initStorage() error {
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return err
	}
	storageBackend = backend

	journal = worker.NewJournal(worker.Dependencies{
		LogManager: SlogManager,
		Session:    sessionContext,
	}, storageBackend)
	return nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{LogManager: SlogManager}), nil

	case "sqlite":
		path := storageCfg.SQLite.Path
		if path == "" {
			path = filepath.Join(LogsDir, fmt.Sprintf("%s_%s.db", AppName, SessionStartTime.Format("20060102_150405")))
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     path,
		}, SlogManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", path)
		return backend, nil

	default:
		Logger.Info("Memory storage backend initialized")
		return memory.New(), nil
	}
}

// startSession opens the journal session the simulation records into.
func startSession(s *sim.Simulation) error {
	sess := newSession(s.Vars().TimeScale.Float())
	if err := storageBackend.StartSession(sess); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	sessionContext.Set(sess)
	Logger.Info("Session started", "id", sess.ID, "name", sess.Name)
	return nil
}

func closeStorage() {
	if journal != nil {
		if err := journal.Stop(); err != nil {
			Logger.Error("Failed to flush journal", "error", err)
		}
	}
	if storageBackend == nil {
		return
	}
	if err := storageBackend.EndSession(); err != nil {
		Logger.Error("Failed to end session", "error", err)
	}
	if err := storageBackend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
}
