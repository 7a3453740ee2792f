package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJournal struct{}

func (fakeJournal) Pending() int                          { return 4 }
func (fakeJournal) Written() uint64                       { return 10 }
func (fakeJournal) Failed() uint64                        { return 1 }
func (fakeJournal) GetLastDBWriteDuration() time.Duration { return 1500 * time.Microsecond }

type recorder struct {
	mu    sync.Mutex
	snaps []sim.Snapshot
	err   error
}

func (r *recorder) WriteSnapshot(_ context.Context, snap sim.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validSnapshot() sim.Snapshot {
	return sim.Snapshot{Session: "s1", Frame: 3, SimTime: 1.5, States: map[string]int{"OnGate": 2}}
}

func TestGetProgramStatus(t *testing.T) {
	sess := session.NewContext()
	sess.Set(&model.Session{Name: "s1", StartedAt: start})

	svc := NewService(Dependencies{
		Session:  sess,
		Snapshot: validSnapshot,
		Journal:  fakeJournal{},
		Now:      func() time.Time { return start.Add(90 * time.Second) },
	})

	st := svc.GetProgramStatus()
	assert.Equal(t, 3, st.Simulation.Frame)
	assert.Equal(t, 90.0, st.Process.Uptime)
	assert.Positive(t, st.Process.Goroutines)
	assert.Zero(t, st.Process.LogFailures)
	require.NotNil(t, st.Journal)
	assert.Equal(t, 4, st.Journal.Pending)
	assert.Equal(t, 1.5, st.Journal.LastWriteDurationMs)
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name      string
		snapshot  sim.Snapshot
		wantFile  bool
		wantPoint int
	}{
		{"before first tick", sim.Snapshot{}, false, 0},
		{"valid", validSnapshot(), true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "status.json")
			rec := &recorder{}
			svc := NewService(Dependencies{
				Snapshot:   func() sim.Snapshot { return tt.snapshot },
				Telemetry:  rec,
				StatusFile: path,
			})

			require.NoError(t, svc.Publish(context.Background()))
			assert.Equal(t, tt.wantPoint, rec.count())

			data, err := os.ReadFile(path)
			if !tt.wantFile {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			var st Status
			require.NoError(t, json.Unmarshal(data, &st))
			assert.Equal(t, "s1", st.Simulation.Session)
			assert.Equal(t, 2, st.Simulation.States["OnGate"])
			assert.Nil(t, st.Journal)
		})
	}
}

func TestPublish_TelemetryError(t *testing.T) {
	rec := &recorder{err: errors.New("closed")}
	svc := NewService(Dependencies{Snapshot: validSnapshot, Telemetry: rec})
	assert.ErrorContains(t, svc.Publish(context.Background()), "closed")
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	rec := &recorder{}
	svc := NewService(Dependencies{
		Snapshot:   validSnapshot,
		Telemetry:  rec,
		StatusFile: path,
		Interval:   5 * time.Millisecond,
	})

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	assert.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, 5*time.Millisecond)
	assert.FileExists(t, path)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	svc.Stop()
}

func TestStart_RequiresSnapshot(t *testing.T) {
	svc := NewService(Dependencies{})
	assert.Error(t, svc.Start())
	assert.False(t, svc.IsRunning())
}
