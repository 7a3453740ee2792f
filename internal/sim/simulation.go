// Package sim runs the airport: one goroutine ticks the clock, updates the
// fleet and hands out the runway and the taxiway.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/airport"
	"github.com/felipedec/airport/internal/clock"
	"github.com/felipedec/airport/internal/config"
	"github.com/felipedec/airport/internal/console"
	"github.com/felipedec/airport/internal/fsm"
	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/session"
	"github.com/felipedec/airport/internal/status"
)

// FrameSleep is the pause between two ticks of Run.
const FrameSleep = time.Millisecond

// Journal is the part of the flight journal the simulation needs.
type Journal interface {
	aircraft.Observer
	Recent(n int) ([]model.Transition, error)
}

// Dependencies holds the collaborators of a Simulation. Zero values are
// replaced with working defaults.
type Dependencies struct {
	Out           io.Writer
	LogManager    *logging.SlogManager
	ConsoleLogger console.Logger
	Session       *session.Context
	Journal       Journal
	Tunables      *config.Tunables
	Table         *aircraft.Table
	ClockOptions  []clock.Option
	Now           func() time.Time
	Seed          int64
}

// Simulation owns the clock, the fleet, the schedulers and the console.
// Everything but Snapshot, Clock and the Journal runs on the goroutine
// calling Step or Run.
type Simulation struct {
	deps   Dependencies
	tun    *config.Tunables
	vars   *config.Sim
	logger *slog.Logger

	clock   *clock.Clock
	board   *status.Board
	printer *status.Printer
	fleet   *aircraft.Fleet
	runway  *airport.Runway
	taxiway *airport.Taxiway
	console *console.Console
	rng     *rand.Rand
	metrics *instruments

	snapshot   atomic.Pointer[Snapshot]
	crashes    atomic.Uint64
	departures atomic.Uint64
	arrivals   atomic.Uint64
}

// New builds a simulation and registers its variables and commands.
func New(deps Dependencies) (*Simulation, error) {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Tunables == nil {
		deps.Tunables = config.NewTunables()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Seed == 0 {
		deps.Seed = time.Now().UnixNano()
	}

	s := &Simulation{
		deps:   deps,
		tun:    deps.Tunables,
		logger: deps.LogManager.Logger().With("component", "sim"),
		board:  status.NewBoard(status.DefaultLimit),
		rng:    rand.New(rand.NewSource(deps.Seed)),
	}
	s.vars = config.RegisterSim(s.tun)

	clockOpts := append([]clock.Option{clock.WithTimeScale(s.vars.TimeScale.Float)}, deps.ClockOptions...)
	s.clock = clock.New(clockOpts...)

	fleetOpts := []aircraft.Option{
		aircraft.WithReporter(s.board),
		aircraft.WithLogger(s.logger),
	}
	if deps.Table != nil {
		fleetOpts = append(fleetOpts, aircraft.WithTable(*deps.Table))
	}
	fleet, err := aircraft.NewFleet(s.clock, aircraft.Settings{
		DescentSpeed: s.vars.AltitudeSpeed.Float,
		Duration:     s.duration,
	}, fleetOpts...)
	if err != nil {
		return nil, fmt.Errorf("building fleet: %w", err)
	}
	s.fleet = fleet
	s.fleet.Observe(aircraft.ObserverFunc(s.onTransition))
	if deps.Journal != nil {
		s.fleet.Observe(deps.Journal)
	}

	s.runway = airport.NewRunway(fleet, airport.RunwayConfig{
		SafetyRange: s.vars.SafetyRange.FloatSource(),
	})
	s.taxiway = airport.NewTaxiway(fleet, airport.TaxiwayConfig{
		Capacity:     s.vars.TaxiCapacity.IntSource(),
		LineCapacity: s.vars.LineCapacity.IntSource(),
		LandingTime:  s.vars.LandingTime.FloatSource(),
	})
	s.printer = status.NewPrinter(s.board, deps.Out, s.vars.PrintRange.FloatSource(), s.header)

	s.tun.Computed("time", "Current simulated time (s).", config.KindFloat, func() string {
		return strconv.FormatFloat(s.clock.Time(), 'f', 2, 64)
	})
	s.tun.Computed("aircraft_max_transponder", "Transponder of the last aircraft created.", config.KindString, func() string {
		return aircraft.FormatTransponder(s.fleet.LastTransponder())
	})

	s.console, err = console.New(deps.Out, s.tun, s.clock, deps.ConsoleLogger)
	if err != nil {
		return nil, fmt.Errorf("building console: %w", err)
	}
	s.registerCommands()

	if s.metrics, err = newInstruments(s.snapshot.Load); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) duration(name string) (func() float64, bool) {
	v, ok := s.tun.Lookup(name)
	if !ok || v.Kind == config.KindString {
		return nil, false
	}
	return v.FloatSource(), true
}

func (s *Simulation) header() status.Header {
	return status.Header{
		Time:         s.clock.Time(),
		RunwayBusy:   !s.runway.Available(),
		Gate:         s.fleet.Count(fsm.Union(aircraft.OnGate)),
		GateCapacity: s.vars.GateCapacity.Int(),
		Taxiway:      s.fleet.Count(aircraft.TaxingMask),
		TaxiCapacity: s.vars.TaxiCapacity.Int(),
		LinedUp:      s.fleet.Count(fsm.Union(aircraft.LinedUp)),
		LineCapacity: s.vars.LineCapacity.Int(),
		Airborne:     s.fleet.Count(aircraft.AllAirborneMask),
	}
}

func (s *Simulation) onTransition(a *aircraft.Aircraft, tr fsm.Transition[aircraft.State]) {
	if tr.To != aircraft.Exit {
		return
	}
	outcome := aircraft.TransitionOutcome(tr)
	switch outcome {
	case aircraft.Crashed:
		s.crashes.Add(1)
	case aircraft.Departed:
		s.departures.Add(1)
	case aircraft.Arrived:
		s.arrivals.Add(1)
	}
	if s.metrics != nil {
		s.metrics.exit(outcome)
	}
	s.logger.Info("aircraft left", "transponder", a.Transponder(), "outcome", string(outcome), "sim_time", tr.Time)
}

// Step runs one tick: due console tasks, the fleet update, the runway, the
// taxiway and the status print, in that order.
func (s *Simulation) Step() {
	s.clock.Tick()
	start := time.Now()

	s.console.RunDue(s.clock.Time())
	s.fleet.Update()

	if g, ok := s.runway.Consume(); ok {
		s.metrics.grant(g.To)
		s.logger.Debug("runway granted", "transponder", g.Aircraft.Transponder(),
			"from", g.From.String(), "to", g.To.String(), "reason", string(g.Reason))
	}
	for _, m := range s.taxiway.Consume() {
		s.logger.Debug("taxiway move", "transponder", m.Aircraft.Transponder(),
			"from", m.From.String(), "to", m.To.String())
	}

	s.printer.Flush(s.clock.Unscaled())
	s.publish()
	s.metrics.tick.Record(context.Background(), time.Since(start).Seconds())
}

// Run ticks until the clock quits or ctx is done.
func (s *Simulation) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.clock.Quit)
	defer stop()

	s.logger.Info("simulation started", "session", s.deps.Session.Name())
	for s.clock.Running() {
		s.Step()
		time.Sleep(FrameSleep)
	}
	s.logger.Info("simulation stopped", "sim_time", s.clock.Time(), "frames", s.clock.Frame())
	return ctx.Err()
}

// OpenConsole runs an interactive console session on in. It must run on
// the simulation goroutine, usually as a clock action.
func (s *Simulation) OpenConsole(in io.Reader) {
	s.console.Open(in)
}

// SetOutput redirects the status board and the console.
func (s *Simulation) SetOutput(w io.Writer) {
	s.printer.SetOutput(w)
	s.console.SetOutput(w)
}

func (s *Simulation) Clock() *clock.Clock { return s.clock }
func (s *Simulation) Fleet() *aircraft.Fleet { return s.fleet }
func (s *Simulation) Console() *console.Console { return s.console }
func (s *Simulation) Tunables() *config.Tunables { return s.tun }
func (s *Simulation) Vars() *config.Sim { return s.vars }
func (s *Simulation) Board() *status.Board { return s.board }
func (s *Simulation) Session() *session.Context { return s.deps.Session }
