package worker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/fsm"
	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/queue"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/storage"
)

// DefaultInterval is how often the writer drains the queues.
const DefaultInterval = 250 * time.Millisecond

// Dependencies holds the collaborators of the journal.
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Interval   time.Duration
}

// Journal records aircraft transitions and finished flights. OnTransition
// runs on the simulation goroutine and only queues; a writer goroutine
// moves the queues into the backend.
type Journal struct {
	deps    Dependencies
	backend storage.Backend

	transitions *queue.Queue[model.Transition]
	flights     *queue.Queue[model.Flight]

	// owned by the simulation goroutine
	maxPriority map[int]int

	writeMu   sync.Mutex
	lastWrite atomic.Int64
	written   atomic.Uint64
	failed    atomic.Uint64

	started  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewJournal creates a journal writing to backend.
func NewJournal(deps Dependencies, backend storage.Backend) *Journal {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Journal{
		deps:        deps,
		backend:     backend,
		transitions: queue.New[model.Transition](),
		flights:     queue.New[model.Flight](),
		maxPriority: make(map[int]int),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

var _ aircraft.Observer = (*Journal)(nil)

// OnTransition queues the transition and, on exit, the flight summary.
func (j *Journal) OnTransition(a *aircraft.Aircraft, tr fsm.Transition[aircraft.State]) {
	snap, err := model.JSON(a.Snapshot())
	if err != nil {
		j.deps.LogManager.WriteLog("journal", err.Error(), "ERROR")
		return
	}

	if !tr.HasFrom && j.deps.Session != nil {
		j.deps.Session.Spawned()
	}
	if p, ok := j.maxPriority[a.Code]; !ok || a.Priority > p {
		j.maxPriority[a.Code] = a.Priority
	}

	rec := model.Transition{
		Transponder: a.Transponder(),
		ToState:     tr.To.String(),
		Silent:      tr.Silent,
		SimTime:     tr.Time,
		Aircraft:    snap,
	}
	if tr.HasFrom {
		rec.FromState = tr.From.String()
	}
	j.transitions.Push(rec)

	if tr.To != aircraft.Exit {
		return
	}
	j.flights.Push(model.Flight{
		Transponder: a.Transponder(),
		FlightID:    a.FlightID,
		Outcome:     string(aircraft.TransitionOutcome(tr)),
		SpawnedAt:   a.SpawnedAt,
		ExitedAt:    tr.Time,
		MaxPriority: j.maxPriority[a.Code],
		Aircraft:    snap,
	})
	delete(j.maxPriority, a.Code)
}

// Start launches the writer goroutine.
func (j *Journal) Start() {
	if j.started.Swap(true) {
		return
	}
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.stopChan:
				return
			case <-ticker.C:
				if err := j.Flush(); err != nil {
					j.deps.LogManager.WriteLog("journal", fmt.Sprintf("write failed: %v", err), "ERROR")
				}
			}
		}
	}()
}

// Stop ends the writer and flushes what is left.
func (j *Journal) Stop() error {
	if j.started.Load() {
		j.stopOnce.Do(func() { close(j.stopChan) })
		<-j.done
	}
	return j.Flush()
}

// Flush writes every queued record now.
func (j *Journal) Flush() error {
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	transitions := j.transitions.GetAndEmpty()
	flights := j.flights.GetAndEmpty()
	if len(transitions) == 0 && len(flights) == 0 {
		return nil
	}

	start := time.Now()
	err := j.write(transitions, flights)
	j.lastWrite.Store(int64(time.Since(start)))
	if err != nil {
		j.failed.Add(uint64(len(transitions) + len(flights)))
		return err
	}
	j.written.Add(uint64(len(transitions) + len(flights)))
	return nil
}

func (j *Journal) write(transitions []model.Transition, flights []model.Flight) error {
	if batch, ok := j.backend.(storage.BatchRecorder); ok {
		if err := batch.RecordTransitions(transitions); err != nil {
			return err
		}
		return batch.RecordFlights(flights)
	}

	for i := range transitions {
		if err := j.backend.RecordTransition(&transitions[i]); err != nil {
			return err
		}
	}
	for i := range flights {
		if err := j.backend.RecordFlight(&flights[i]); err != nil {
			return err
		}
	}
	return nil
}

// Recent flushes the queues and returns the last n transitions.
func (j *Journal) Recent(n int) ([]model.Transition, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}
	return j.backend.Recent(n)
}

// Pending is the number of queued records.
func (j *Journal) Pending() int {
	return j.transitions.Len() + j.flights.Len()
}

// Written is the number of records stored so far.
func (j *Journal) Written() uint64 {
	return j.written.Load()
}

// Failed is the number of records lost to backend errors.
func (j *Journal) Failed() uint64 {
	return j.failed.Load()
}

// GetLastDBWriteDuration returns the duration of the last write cycle.
func (j *Journal) GetLastDBWriteDuration() time.Duration {
	return time.Duration(j.lastWrite.Load())
}
