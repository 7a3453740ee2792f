package memory

import (
	"sync"
	"time"

	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/storage"
)

// Backend keeps the journal in memory. It is the default when no database
// is configured.
type Backend struct {
	mu          sync.RWMutex
	session     *model.Session
	transitions []model.Transition
	flights     []model.Flight
	idCounter   uint
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

// StartSession begins a new session and drops the previous records.
func (b *Backend) StartSession(s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	b.session = s
	b.transitions = nil
	b.flights = nil
	return nil
}

// EndSession stamps the end time of the current session.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	now := time.Now()
	b.session.EndedAt = &now
	return nil
}

// Session returns the current session.
func (b *Backend) Session() *model.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

func (b *Backend) RecordTransition(t *model.Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	t.SessionID = b.session.ID
	t.ID = uint(len(b.transitions) + 1)
	b.transitions = append(b.transitions, *t)
	return nil
}

func (b *Backend) RecordFlight(f *model.Flight) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	f.SessionID = b.session.ID
	f.ID = uint(len(b.flights) + 1)
	b.flights = append(b.flights, *f)
	return nil
}

func (b *Backend) Recent(n int) ([]model.Transition, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return tail(b.transitions, n), nil
}

func (b *Backend) Flights(n int) ([]model.Flight, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return tail(b.flights, n), nil
}

func tail[T any](items []T, n int) []T {
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[len(items)-n:])
	return out
}
