package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{"relative", "airportlogs", filepath.Join("airportlogs", "airport.20260212_213836.log")},
		{"dot prefix", "./airportlogs", filepath.Join(".", "airportlogs", "airport.20260212_213836.log")},
		{"absolute", filepath.Join("/var", "log"), filepath.Join("/var", "log", "airport.20260212_213836.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "airport", start))
		})
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airport.log")
	f := NewRotatingFile(path)
	t.Cleanup(func() { _ = f.Close() })

	_, err := f.Write([]byte("hello\n"))
	assert.NoError(t, err)
	assert.Equal(t, 32, f.MaxSize)
	assert.FileExists(t, path)
}
