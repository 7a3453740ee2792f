// Package monitor periodically publishes the simulation status to a JSON
// file and to the telemetry sink.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/sim"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = time.Second

// JournalStats is the part of the journal worker the monitor reports.
type JournalStats interface {
	Pending() int
	Written() uint64
	Failed() uint64
	GetLastDBWriteDuration() time.Duration
}

// SnapshotWriter receives every valid snapshot.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap sim.Snapshot) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Snapshot   func() sim.Snapshot
	Journal    JournalStats
	Telemetry  SnapshotWriter
	StatusFile string
	Interval   time.Duration
	Now        func() time.Time
}

// JournalStatus is the journal section of the status file.
type JournalStatus struct {
	Pending             int     `json:"pending"`
	Written             uint64  `json:"written"`
	Failed              uint64  `json:"failed"`
	LastWriteDurationMs float64 `json:"lastWriteDurationMs"`
}

// ProcessStatus is the runtime section of the status file.
type ProcessStatus struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heapAlloc"`
	Uptime      float64 `json:"uptimeSeconds"`
	LogFailures uint64  `json:"logFailures"`
}

// Status is the document written to the status file.
type Status struct {
	Time       time.Time      `json:"time"`
	Simulation sim.Snapshot   `json:"simulation"`
	Journal    *JournalStatus `json:"journal,omitempty"`
	Process    ProcessStatus  `json:"process"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus collects the current status.
func (s *Service) GetProgramStatus() Status {
	now := s.deps.Now()
	st := Status{
		Time:       now,
		Simulation: s.deps.Snapshot(),
		Process: ProcessStatus{
			Goroutines:  runtime.NumGoroutine(),
			Uptime:      s.deps.Session.Uptime(now).Seconds(),
			LogFailures: s.deps.LogManager.Failures(),
		},
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	st.Process.HeapAlloc = mem.HeapAlloc

	if j := s.deps.Journal; j != nil {
		st.Journal = &JournalStatus{
			Pending:             j.Pending(),
			Written:             j.Written(),
			Failed:              j.Failed(),
			LastWriteDurationMs: float64(j.GetLastDBWriteDuration().Microseconds()) / 1000,
		}
	}
	return st
}

// Publish writes one status document. Nothing is written before the first
// tick.
func (s *Service) Publish(ctx context.Context) error {
	st := s.GetProgramStatus()
	if !st.Simulation.Valid() {
		return nil
	}

	if s.deps.StatusFile != "" {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding status: %w", err)
		}
		if err := os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing status file: %w", err)
		}
	}
	if s.deps.Telemetry != nil {
		if err := s.deps.Telemetry.WriteSnapshot(ctx, st.Simulation); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.Snapshot == nil {
		return fmt.Errorf("monitor: no snapshot source")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval, "file", s.deps.StatusFile)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.Publish(context.Background()); err != nil {
					logger.Error("Error publishing status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning || s.stopChan == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.stopChan = nil
	done := s.done
	s.mu.Unlock()
	<-done
}
