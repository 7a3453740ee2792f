// Package airport arbitrates the shared ground resources: a single runway
// and a taxiway of limited capacity.
package airport

import (
	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/fsm"
)

// Fleet is the part of the aircraft fleet the schedulers drive.
type Fleet interface {
	Empty(mask fsm.Mask[aircraft.State]) bool
	Count(mask fsm.Mask[aircraft.State]) int
	First(s aircraft.State) (*aircraft.Aircraft, bool)
	Select(s aircraft.State, better func(a, b *aircraft.Aircraft) bool) (*aircraft.Aircraft, bool)
	ForEach(mask fsm.Mask[aircraft.State], fn func(a *aircraft.Aircraft))
	Range(a *aircraft.Aircraft) float64
	SwitchTo(a *aircraft.Aircraft, s aircraft.State)
}

// Reason tells why the runway was granted.
type Reason string

const (
	ReasonOutOfFuel   Reason = "out_of_fuel"
	ReasonSafetyRange Reason = "safety_range"
	ReasonPriority    Reason = "priority"
)

// Grant is the outcome of a runway arbitration.
type Grant struct {
	Aircraft *aircraft.Aircraft
	From     aircraft.State
	To       aircraft.State
	Reason   Reason
}

// RunwayConfig holds the live tunables of the runway.
type RunwayConfig struct {
	SafetyRange func() float64
}

// Runway grants the single runway to one aircraft at a time.
type Runway struct {
	fleet Fleet
	cfg   RunwayConfig
}

// NewRunway creates a runway scheduler.
func NewRunway(fleet Fleet, cfg RunwayConfig) *Runway {
	return &Runway{fleet: fleet, cfg: cfg}
}

// Available reports whether nobody is landing or taking off.
func (r *Runway) Available() bool {
	return r.fleet.Empty(aircraft.RunwayMask)
}

// Consume grants the runway to the most deserving aircraft, if the runway
// is free and anybody is waiting for it.
func (r *Runway) Consume() (Grant, bool) {
	if !r.Available() {
		return Grant{}, false
	}
	next, reason, ok := r.next()
	if !ok {
		return Grant{}, false
	}

	g := Grant{Aircraft: next, From: next.State(), Reason: reason}
	// starvation: whoever was not served waits with a higher priority
	if aircraft.AllAirborneMask.Has(g.From) {
		g.To = aircraft.Landing
		r.fleet.ForEach(fsm.Union(aircraft.OnGate, aircraft.LinedUp, aircraft.TaxiwayLeaving), bump)
	} else {
		g.To = aircraft.TakingOff
		r.fleet.ForEach(fsm.Union(aircraft.Airborne), bump)
	}
	r.fleet.SwitchTo(next, g.To)
	return g, true
}

func (r *Runway) next() (*aircraft.Aircraft, Reason, bool) {
	shorter := func(a, b *aircraft.Aircraft) bool {
		return r.fleet.Range(a) < r.fleet.Range(b)
	}

	if a, ok := r.fleet.Select(aircraft.AirborneOutOfFuel, shorter); ok {
		return a, ReasonOutOfFuel, true
	}
	if a, ok := r.fleet.Select(aircraft.Airborne, shorter); ok && r.fleet.Range(a) < r.cfg.SafetyRange() {
		return a, ReasonSafetyRange, true
	}

	lined, hasLined := r.fleet.Select(aircraft.LinedUp, higherPriority)
	airborne, hasAirborne := r.fleet.Select(aircraft.Airborne, higherPriority)
	switch {
	case hasLined && hasAirborne:
		if lined.Priority > airborne.Priority {
			return lined, ReasonPriority, true
		}
		return airborne, ReasonPriority, true
	case hasLined:
		return lined, ReasonPriority, true
	case hasAirborne:
		return airborne, ReasonPriority, true
	}
	return nil, "", false
}

func higherPriority(a, b *aircraft.Aircraft) bool {
	return a.Priority > b.Priority
}

func bump(a *aircraft.Aircraft) {
	a.Priority++
}
