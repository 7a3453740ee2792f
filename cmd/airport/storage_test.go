package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/felipedec/airport/internal/config"
	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/storage/memory"
	pgstorage "github.com/felipedec/airport/internal/storage/postgres"
	sqlitestorage "github.com/felipedec/airport/internal/storage/sqlite"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(viper.Reset)
	SlogManager = logging.NewSlogManager()
	Logger = SlogManager.Logger()
	LogsDir = t.TempDir()
}

func TestCreateStorageBackend(t *testing.T) {
	setupTestGlobals(t)

	tests := []struct {
		name string
		typ  string
		want any
	}{
		{"default", "", &memory.Backend{}},
		{"memory", "memory", &memory.Backend{}},
		{"postgres", "postgres", &pgstorage.Backend{}},
		{"sqlite", "sqlite", &sqlitestorage.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := createStorageBackend(config.StorageConfig{
				Type:   tt.typ,
				SQLite: config.SQLiteConfig{DumpInterval: time.Minute},
			})
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			t.Cleanup(func() { _ = b.Close() })
		})
	}
}

func TestInitStorageAndSession(t *testing.T) {
	setupTestGlobals(t)
	viper.Set("storage.type", "sqlite")
	viper.Set("storage.sqlite.dumpInterval", "1h")
	viper.Set("sessionName", "night shift")

	require.NoError(t, initStorage())
	require.NotNil(t, journal)

	sess := newSession(2)
	require.NoError(t, storageBackend.StartSession(sess))
	assert.NotZero(t, sess.ID)
	assert.Equal(t, "night shift", sess.Name)
	assert.Equal(t, 2.0, sess.TimeScale)

	closeStorage()

	matches, err := filepath.Glob(filepath.Join(LogsDir, AppName+"_*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
