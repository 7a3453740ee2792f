package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felipedec/airport/internal/sim"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() sim.Snapshot {
	return sim.Snapshot{
		Session:    "morning",
		Frame:      10,
		SimTime:    12.5,
		TimeScale:  2,
		RunwayBusy: true,
		Aircraft:   3,
		States:     map[string]int{"Airborne": 2, "OnGate": 1},
		Taken:      time.Unix(1700000000, 0),
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Airborne":          "airborne",
		"OnGate":            "on_gate",
		"AirborneOutOfFuel": "airborne_out_of_fuel",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestSnapshotPoint(t *testing.T) {
	line := influxdb2_write.PointToLineProtocol(SnapshotPoint(testSnapshot()), time.Second)

	assert.True(t, strings.HasPrefix(line, Measurement+",session=morning "))
	for _, field := range []string{"sim_time=12.5", "runway_busy=true", "timescale=2", "airborne=2i", "on_gate=1i", "landing=0i", "aircraft=3i"} {
		assert.Contains(t, line, field)
	}
	assert.Contains(t, line, " 1700000000")
}

func TestSnapshotPoint_NoSession(t *testing.T) {
	snap := testSnapshot()
	snap.Session = ""
	line := influxdb2_write.PointToLineProtocol(SnapshotPoint(snap), time.Second)
	assert.Contains(t, line, "session=none")
}

func TestConnect_Disabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", false)

	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "influx.gz"))
	assert.ErrorIs(t, m.Connect(), ErrDisabled)
	assert.ErrorContains(t, m.WritePoint(SnapshotPoint(testSnapshot())), "not initialized")
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")
	viper.Set("influx.bucket", "airport_telemetry")

	path := filepath.Join(t.TempDir(), "influx.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.Connect())
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	require.NoError(t, m.WriteSnapshot(context.Background(), testSnapshot()))
	require.NoError(t, m.WriteSnapshot(context.Background(), testSnapshot()))
	assert.Equal(t, uint64(2), m.Written())
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], Measurement+",session=morning "))
}

func TestClose_Idempotent(t *testing.T) {
	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "influx.gz"))
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
