package sim

import (
	"time"

	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/fsm"
)

// Snapshot is an immutable view of the simulation after a tick. Other
// goroutines read it instead of the fleet.
type Snapshot struct {
	Session    string         `json:"session"`
	SessionID  uint           `json:"sessionId"`
	Frame      int            `json:"frame"`
	SimTime    float64        `json:"simTime"`
	Unscaled   float64        `json:"unscaledTime"`
	TimeScale  float64        `json:"timeScale"`
	Paused     bool           `json:"paused"`
	RunwayBusy bool           `json:"runwayBusy"`
	States     map[string]int `json:"states"`
	Aircraft   int            `json:"aircraft"`
	Crashes    uint64         `json:"crashes"`
	Departures uint64         `json:"departures"`
	Arrivals   uint64         `json:"arrivals"`
	Dropped    uint64         `json:"droppedMessages"`
	Taken      time.Time      `json:"taken"`
}

// Valid reports whether at least one tick has run.
func (s Snapshot) Valid() bool {
	return s.Frame > 0
}

// Count returns the aircraft in state st.
func (s Snapshot) Count(st aircraft.State) int {
	return s.States[st.String()]
}

func (s *Simulation) publish() {
	states := make(map[string]int, len(aircraft.States()))
	for _, st := range aircraft.AllMask.IDs() {
		states[st.String()] = s.fleet.Count(fsm.Union(st))
	}

	sess := s.deps.Session.Get()
	s.snapshot.Store(&Snapshot{
		Session:    sess.Name,
		SessionID:  sess.ID,
		Frame:      s.clock.Frame(),
		SimTime:    s.clock.Time(),
		Unscaled:   s.clock.Unscaled(),
		TimeScale:  s.vars.TimeScale.Float(),
		Paused:     s.clock.IsPaused(),
		RunwayBusy: !s.runway.Available(),
		States:     states,
		Aircraft:   s.fleet.Len(),
		Crashes:    s.crashes.Load(),
		Departures: s.departures.Load(),
		Arrivals:   s.arrivals.Load(),
		Dropped:    s.board.Dropped(),
		Taken:      s.deps.Now(),
	})
}

// Snapshot returns the state published after the last tick.
func (s *Simulation) Snapshot() Snapshot {
	if p := s.snapshot.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}
