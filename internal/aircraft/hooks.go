package aircraft

import (
	"fmt"
	"math"

	"github.com/felipedec/airport/internal/fsm"
)

type hook = fsm.Hook[State, *Aircraft]

// hooks is the behaviour of each state.
func (f *Fleet) hooks() map[State]fsm.Hooks[State, *Aircraft] {
	return map[State]fsm.Hooks[State, *Aircraft]{
		OnGate: {
			OnEnter: f.bind(f.say("%s waiting for the taxiway.")),
		},
		Airborne: {
			OnUpdate: f.bind(f.burnFuel),
		},
		AirborneOutOfFuel: {
			OnEnter:  f.bind(f.outOfFuel),
			OnUpdate: f.bind(f.descend),
		},
		TakingOff: {
			OnEnter:  f.bind(f.say("%s is preparing for takeoff.")),
			OnUpdate: f.bind(f.burnFuel),
			OnLeave:  f.bind(f.then(f.say("%s took off and left for its destination."), f.runwayReleased)),
		},
		Landing: {
			OnEnter: f.bind(f.say("%s started landing.")),
			OnLeave: f.bind(f.then(f.say("%s landed and cleared the runway."), f.runwayReleased)),
		},
		TaxiwayLeaving: {
			OnEnter: f.bind(f.say("%s left the gate and is taxiing to the runway.")),
		},
		TaxiwayArriving: {
			OnEnter: f.bind(f.say("%s left the runway and is taxiing to the gate.")),
		},
		LinedUp: {
			OnEnter: f.bind(f.say("%s is lined up, waiting for clearance.")),
			OnLeave: f.bind(f.say("%s was cleared onto the runway.")),
		},
	}
}

// bind adapts an aircraft action to the engine's hook signature.
func (f *Fleet) bind(fn func(a *Aircraft)) hook {
	return func(_ *fsm.Instance[State, *Aircraft], a *Aircraft) {
		fn(a)
	}
}

func (f *Fleet) then(fns ...func(a *Aircraft)) func(a *Aircraft) {
	return func(a *Aircraft) {
		for _, fn := range fns {
			fn(a)
		}
	}
}

func (f *Fleet) say(format string) func(a *Aircraft) {
	return func(a *Aircraft) {
		msg := fmt.Sprintf(format, a)
		f.reporter.Report(msg)
		f.logger.Debug(msg, "transponder", a.Transponder(), "time", f.clock.Time())
	}
}

func (f *Fleet) alert(a *Aircraft, msg string) {
	f.reporter.Alert(msg)
	f.logger.Warn(msg, "transponder", a.Transponder(), "time", f.clock.Time())
}

func (f *Fleet) burnFuel(a *Aircraft) {
	a.Fuel = math.Max(0, a.Fuel-f.clock.Delta()*a.BurnRate)
	if a.Fuel == 0 {
		a.inst.SwitchTo(AirborneOutOfFuel)
	}
}

func (f *Fleet) outOfFuel(a *Aircraft) {
	a.Fuel = 0
	f.alert(a, fmt.Sprintf("%s is out of fuel and losing altitude.", a))
}

func (f *Fleet) descend(a *Aircraft) {
	a.Altitude = math.Max(0, a.Altitude-f.settings.DescentSpeed()*f.clock.Delta())
	if a.Altitude == 0 {
		f.alert(a, fmt.Sprintf("%s could not wait for the runway and crashed.", a))
		a.inst.SwitchTo(Exit)
	}
}

// runwayReleased favours the aircraft that waited through a whole runway
// occupancy.
func (f *Fleet) runwayReleased(*Aircraft) {
	f.ForEach(fsm.Union(OnGate, LinedUp, TaxiwayArriving), func(a *Aircraft) {
		a.Priority++
	})
}
