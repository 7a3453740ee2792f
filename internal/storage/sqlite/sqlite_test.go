package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felipedec/airport/internal/database"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Backend = (*Backend)(nil)

func TestDumpLoopWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	b, err := New(Config{DumpInterval: 20 * time.Millisecond, DumpPath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&model.Session{Name: "dump"}))
	require.NoError(t, b.RecordFlight(&model.Flight{Transponder: "0007", Outcome: "arrived"}))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())

	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	var flights []model.Flight
	require.NoError(t, db.Find(&flights).Error)
	require.Len(t, flights, 1)
	assert.Equal(t, "0007", flights[0].Transponder)
}

func TestCloseWithoutDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}
