package storage

import (
	"errors"

	"github.com/felipedec/airport/internal/model"
)

// ErrNoSession is returned when records arrive before StartSession.
var ErrNoSession = errors.New("no session started")

// Backend is the interface all journal implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *model.Session) error
	EndSession() error

	// Recording. The backend stamps the current session ID.
	RecordTransition(t *model.Transition) error
	RecordFlight(f *model.Flight) error

	// Recent returns up to n transitions of the current session, oldest
	// first.
	Recent(n int) ([]model.Transition, error)
}

// BatchRecorder is an optional interface for backends that insert many
// rows at once.
type BatchRecorder interface {
	RecordTransitions(ts []model.Transition) error
	RecordFlights(fs []model.Flight) error
}

// FlightLister is an optional interface for backends that can list
// finished flights.
type FlightLister interface {
	Flights(n int) ([]model.Flight, error)
}
