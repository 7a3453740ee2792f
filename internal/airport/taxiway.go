package airport

import (
	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/fsm"
)

var outbound = fsm.Union(aircraft.LinedUp, aircraft.TaxiwayLeaving)

// TaxiwayConfig holds the live tunables of the taxiway.
type TaxiwayConfig struct {
	Capacity     func() int
	LineCapacity func() int
	LandingTime  func() float64
}

// Move is one aircraft entering the taxiway.
type Move struct {
	Aircraft *aircraft.Aircraft
	From     aircraft.State
	To       aircraft.State
}

// Taxiway moves aircraft between the runway and the gates.
type Taxiway struct {
	fleet Fleet
	cfg   TaxiwayConfig
}

// NewTaxiway creates a taxiway scheduler.
func NewTaxiway(fleet Fleet, cfg TaxiwayConfig) *Taxiway {
	return &Taxiway{fleet: fleet, cfg: cfg}
}

// Available reports whether the taxiway has a free slot.
func (t *Taxiway) Available() bool {
	return t.fleet.Count(aircraft.TaxingMask) < t.cfg.Capacity()
}

// Consume fills the taxiway. Landed aircraft leave the runway first; then
// gate aircraft with the highest priority head for the line-up while it
// has room. Aircraft already taxiing out count against the line-up.
func (t *Taxiway) Consume() []Move {
	var moves []Move
	for t.Available() {
		if a, ok := t.fleet.First(aircraft.Landing); ok && a.StateTime() >= t.cfg.LandingTime() {
			moves = append(moves, t.move(a, aircraft.TaxiwayArriving))
			continue
		}
		if t.fleet.Count(outbound) < t.cfg.LineCapacity() {
			if a, ok := t.fleet.Select(aircraft.OnGate, higherPriority); ok {
				moves = append(moves, t.move(a, aircraft.TaxiwayLeaving))
				continue
			}
		}
		break
	}
	return moves
}

func (t *Taxiway) move(a *aircraft.Aircraft, to aircraft.State) Move {
	m := Move{Aircraft: a, From: a.State(), To: to}
	t.fleet.SwitchTo(a, to)
	return m
}
