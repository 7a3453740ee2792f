package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"storage": { "type": "sqlite", "sqlite": { "dumpInterval": "1m" } },
		"sim": { "timescale": 4, "tw_capacity": 3 }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, StorageConfig{
		Type:   "sqlite",
		SQLite: SQLiteConfig{DumpInterval: time.Minute},
	}, GetStorageConfig())

	sim := RegisterSim(NewTunables())
	assert.Equal(t, 4.0, sim.TimeScale.Float())
	assert.Equal(t, 3, sim.TaxiCapacity.Int())
	assert.Equal(t, 2.0, sim.TaxiDuration.Float())
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./airportlogs", viper.GetString("logsDir"))
	assert.Equal(t, "autoexec", viper.GetString("autoexec"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, 30*time.Second, GetDuration("storage.sqlite.dumpInterval"))
	assert.Equal(t, "airport", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "airport_telemetry", viper.GetString("influx.bucket"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "airport", viper.GetString("otel.serviceName"))
	assert.Equal(t, true, viper.GetBool("monitor.enabled"))
	assert.Equal(t, "status.json", viper.GetString("monitor.statusFile"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	// defaults are still in place
	assert.Equal(t, "memory", GetString("storage.type"))
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("a", "text")
	viper.Set("b", 12)
	viper.Set("c", true)

	assert.Equal(t, "text", GetString("a"))
	assert.Equal(t, 12, GetInt("b"))
	assert.True(t, GetBool("c"))
}
