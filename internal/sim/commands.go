package sim

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/felipedec/airport/internal/aircraft"
	"github.com/felipedec/airport/internal/console"
)

// ErrJournalDisabled is returned by the journal command without a journal.
var ErrJournalDisabled = errors.New("journal disabled")

var origins = []string{"SBGR", "SBSP", "SBRJ", "SBKP", "SBBR", "SBPA", "KJFK", "EGLL", "LFPG", "LPPT"}

func (s *Simulation) registerCommands() {
	c := s.console
	c.Register("create_aircraft", "Create an aircraft: create_aircraft [state].", s.createAircraft, console.Logged())
	c.Register("aircraft_spawn", "Create aircraft with random fields: aircraft_spawn <state|arrival|departure> [count].", s.spawnAircraft, console.Logged())
	c.Register("aircraft_clear", "Destroy every aircraft.", s.clearAircraft, console.Logged())
	c.Register("aircraft_destroy", "Destroy one aircraft: aircraft_destroy <transponder>.", s.destroyAircraft, console.Logged())
	c.Register("aircraft_set_state", "Force the state of an aircraft: aircraft_set_state <transponder> <state>.", s.setAircraftState, console.Logged())
	c.Register("aircraft_set_field", "Set a field of an aircraft: aircraft_set_field <transponder> <field> <value>.", s.setAircraftField, console.Logged())
	c.Register("print_aircrafts", "List aircraft: print_aircrafts [not] [states].", s.printAircrafts)
	c.Register("print_aircraft_fields", "List the fields aircraft_set_field accepts.", s.printAircraftFields)
	c.Register("print_aircraft_states", "List the states and their members.", s.printAircraftStates)
	c.Register("dump_states", "Write the state table as YAML: dump_states [file].", s.dumpStates)
	c.Register("journal", "Show the last journal records: journal [n].", s.printJournal)
}

func (s *Simulation) createAircraft(e console.Event) error {
	entry := aircraft.Idle
	if len(e.Args) > 0 {
		st, err := aircraft.ParseState(e.Args[0])
		if err != nil {
			return err
		}
		entry = st
	}
	a, err := s.fleet.Create(entry)
	if err != nil {
		return err
	}
	e.Printf("%s\n", a.Transponder())
	return nil
}

func (s *Simulation) spawnAircraft(e console.Event) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%w: aircraft_spawn <state|arrival|departure> [count]", console.ErrUsage)
	}

	var entry aircraft.State
	switch strings.ToLower(e.Args[0]) {
	case "arrival", "arrivals":
		entry = aircraft.Airborne
	case "departure", "departures":
		entry = aircraft.OnGate
	default:
		st, err := aircraft.ParseState(e.Args[0])
		if err != nil {
			return err
		}
		entry = st
	}

	count := 1
	if len(e.Args) > 1 {
		n, err := strconv.Atoi(e.Args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count %q", e.Args[1])
		}
		count = n
	}

	for range count {
		a := s.randomAircraft(entry)
		if err := s.fleet.Admit(a, entry); err != nil {
			return err
		}
		e.Printf("%s\n", a.Transponder())
	}
	return nil
}

// randomAircraft fills plausible fields. Airborne aircraft carry less
// fuel than aircraft on the ground.
func (s *Simulation) randomAircraft(entry aircraft.State) *aircraft.Aircraft {
	r := s.rng
	a := &aircraft.Aircraft{
		Priority: r.Intn(6),
		FlightID: 100 + r.Intn(9900),
		Weight:   float64(40_000 + r.Intn(360_000)),
		BurnRate: 1 + 4*r.Float64(),
		Origin:   origins[r.Intn(len(origins))],
	}
	if aircraft.AllAirborneMask.Has(entry) || entry == aircraft.Landing {
		a.Altitude = float64(500 + r.Intn(2500))
		a.Fuel = a.BurnRate * (5 + 60*r.Float64())
	} else {
		a.Fuel = a.BurnRate * (300 + 600*r.Float64())
	}
	if entry == aircraft.AirborneOutOfFuel {
		a.Fuel = 0
	}
	return a
}

func (s *Simulation) clearAircraft(e console.Event) error {
	s.fleet.Clear()
	e.Printf("Aircraft destroyed.\n")
	return nil
}

func (s *Simulation) destroyAircraft(e console.Event) error {
	if len(e.Args) != 1 {
		return fmt.Errorf("%w: aircraft_destroy <transponder>", console.ErrUsage)
	}
	return s.fleet.Destroy(e.Args[0])
}

func (s *Simulation) setAircraftState(e console.Event) error {
	if len(e.Args) < 2 {
		return fmt.Errorf("%w: aircraft_set_state <transponder> <state>", console.ErrUsage)
	}
	st, err := aircraft.ParseState(e.Args[1])
	if err != nil {
		return err
	}
	return s.fleet.SetState(e.Args[0], st)
}

func (s *Simulation) setAircraftField(e console.Event) error {
	if len(e.Args) != 3 {
		return fmt.Errorf("%w: aircraft_set_field <transponder> <field> <value>", console.ErrUsage)
	}
	if err := s.fleet.SetField(e.Args[0], e.Args[1], e.Args[2]); err != nil {
		return err
	}
	a, _ := s.fleet.FindByTransponder(e.Args[0])
	v, _ := a.Get(e.Args[1])
	e.Printf("%q = %q\n", "aircraft."+strings.ToLower(e.Args[1]), v)
	return nil
}

func (s *Simulation) printAircrafts(e console.Event) error {
	mask := aircraft.AllMask
	args := e.Args
	except := false
	if len(args) > 0 && strings.EqualFold(args[0], "not") {
		if len(args) == 1 {
			return fmt.Errorf("%w: print_aircrafts [not] [states]", console.ErrUsage)
		}
		except = true
		args = args[1:]
	}
	if len(args) > 0 {
		m, err := aircraft.ParseMask(strings.Join(args, ","))
		if err != nil {
			return err
		}
		mask = m
	}
	if except {
		mask = aircraft.Complement(mask)
	}

	var list []*aircraft.Aircraft
	s.fleet.ForEach(mask, func(a *aircraft.Aircraft) { list = append(list, a) })
	slices.SortFunc(list, func(a, b *aircraft.Aircraft) int { return a.Code - b.Code })

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.Transponder(),
			strconv.Itoa(a.Priority),
			fmt.Sprintf("%.1f", a.Fuel),
			fmt.Sprintf("%.2f", a.BurnRate),
			fmt.Sprintf("%.0f", a.Weight),
			a.State().String(),
			strconv.Itoa(a.FlightID),
			fmt.Sprintf("%.0f", a.Altitude),
			a.Origin,
			fmt.Sprintf("%.1f", s.fleet.Range(a)),
		})
	}
	e.Printf("%s\n", console.Table([]string{
		"#", "Priority", "Fuel (L)", "Burn (L/s)", "Weight (kg)", "State", "Flight", "Alt. (m)", "Origin", "Range (s)",
	}, rows))
	return nil
}

func (s *Simulation) printAircraftFields(e console.Event) error {
	var rows [][]string
	for _, f := range aircraft.Fields() {
		rows = append(rows, []string{f.Name, f.Type})
	}
	e.Printf("%s\n", console.Table([]string{"Name", "Type"}, rows))
	return nil
}

func (s *Simulation) printAircraftStates(e console.Event) error {
	var rows [][]string
	for _, info := range s.fleet.Describe() {
		auto := ""
		if info.Auto {
			auto = fmt.Sprintf("%s after %.2fs", info.AutoTo, info.AutoAfter)
		}
		rows = append(rows, []string{info.ID.String(), yesNo(info.Exit), auto, strconv.Itoa(info.Members)})
	}
	e.Printf("%s\n", console.Table([]string{"State", "Exit", "Auto transition", "Members"}, rows))
	return nil
}

func (s *Simulation) dumpStates(e console.Event) error {
	var buf bytes.Buffer
	if err := s.fleet.DumpStates(&buf); err != nil {
		return err
	}
	if len(e.Args) == 0 {
		e.Printf("%s", buf.String())
		return nil
	}
	if err := os.WriteFile(e.Args[0], buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", e.Args[0], err)
	}
	e.Printf("States written to %s\n", e.Args[0])
	return nil
}

func (s *Simulation) printJournal(e console.Event) error {
	if s.deps.Journal == nil {
		return ErrJournalDisabled
	}
	n := 10
	if len(e.Args) > 0 {
		v, err := strconv.Atoi(e.Args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid count %q", e.Args[0])
		}
		n = v
	}

	records, err := s.deps.Journal.Recent(n)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%.2f", r.SimTime), r.Transponder, r.FromState, r.ToState, yesNo(r.Silent),
		})
	}
	e.Printf("%s\n", console.Table([]string{"Time (s)", "#", "From", "To", "Silent"}, rows))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
