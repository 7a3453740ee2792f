// Package aircraft models aircraft and drives their lifecycle through the
// state machine engine.
package aircraft

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/felipedec/airport/internal/fsm"
)

var (
	ErrNotFound           = errors.New("aircraft not found")
	ErrUnknownState       = errors.New("unknown aircraft state")
	ErrUnknownField       = errors.New("unknown aircraft field")
	ErrInvalidValue       = errors.New("invalid value")
	ErrInvalidTransponder = errors.New("invalid transponder")
	ErrAlreadyAdmitted    = errors.New("aircraft already admitted")
	ErrUnknownDuration    = errors.New("unknown duration")
)

// Clock is the part of the simulation clock the fleet needs.
type Clock interface {
	Time() float64
	Delta() float64
}

// Reporter receives the narration produced by state hooks.
type Reporter interface {
	Report(msg string)
	Alert(msg string)
}

// Observer is notified of every applied transition.
type Observer interface {
	OnTransition(a *Aircraft, tr fsm.Transition[State])
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a *Aircraft, tr fsm.Transition[State])

func (f ObserverFunc) OnTransition(a *Aircraft, tr fsm.Transition[State]) {
	f(a, tr)
}

// Settings are the live values the hooks read.
type Settings struct {
	// DescentSpeed is the altitude lost per second without fuel.
	DescentSpeed func() float64
	// Duration resolves the duration names used by the state table.
	Duration func(name string) (func() float64, bool)
}

// Option configures a Fleet.
type Option func(*Fleet)

// WithReporter sets the narration sink.
func WithReporter(r Reporter) Option {
	return func(f *Fleet) {
		f.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fleet) {
		f.logger = l
	}
}

// WithTable replaces the built-in state table.
func WithTable(t Table) Option {
	return func(f *Fleet) {
		f.table = &t
	}
}

// Fleet owns every simulated aircraft.
type Fleet struct {
	engine   *fsm.Engine[State, *Aircraft]
	clock    Clock
	settings Settings
	table    *Table
	reporter Reporter
	logger   *slog.Logger

	lastCode  int
	byCode    map[int]*Aircraft
	observers []Observer
}

// NewFleet builds the aircraft state machine from the state table.
func NewFleet(clock Clock, settings Settings, opts ...Option) (*Fleet, error) {
	f := &Fleet{
		clock:    clock,
		settings: settings,
		reporter: discard{},
		logger:   slog.Default(),
		byCode:   make(map[int]*Aircraft),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.table == nil {
		t, err := DefaultTable()
		if err != nil {
			return nil, err
		}
		f.table = &t
	}

	f.engine = fsm.New[State, *Aircraft](clock)
	if err := f.build(*f.table); err != nil {
		return nil, err
	}
	f.engine.OnCreate(func(inst *fsm.Instance[State, *Aircraft]) {
		inst.Object().inst = inst
	})
	f.engine.Observe(f.observe)
	return f, nil
}

func (f *Fleet) build(t Table) error {
	hooks := f.hooks()
	for _, spec := range t.States {
		s, err := ParseState(spec.Name)
		if err != nil {
			return err
		}
		var opts []fsm.StateOption
		if spec.Exit {
			opts = append(opts, fsm.Exit())
		}
		f.engine.AddState(s, hooks[s], opts...)
	}

	for _, tr := range t.Transitions {
		from, _ := ParseState(tr.From)
		to, _ := ParseState(tr.To)
		if f.settings.Duration == nil {
			return fmt.Errorf("%w: %s", ErrUnknownDuration, tr.After)
		}
		duration, ok := f.settings.Duration(tr.After)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDuration, tr.After)
		}
		if err := f.engine.SetAutoTransition(from, to, duration); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fleet) observe(a *Aircraft, tr fsm.Transition[State]) {
	if tr.To == Exit {
		delete(f.byCode, a.Code)
	}
	for _, o := range f.observers {
		o.OnTransition(a, tr)
	}
}

// Observe registers o for every transition, including silent ones.
func (f *Fleet) Observe(o Observer) {
	f.observers = append(f.observers, o)
}

// Create admits a zeroed aircraft in entry.
func (f *Fleet) Create(entry State) (*Aircraft, error) {
	a := &Aircraft{}
	if err := f.Admit(a, entry); err != nil {
		return nil, err
	}
	return a, nil
}

// Admit assigns the next transponder to a and enters it in entry. Fields
// set by the caller are visible to the enter hook.
func (f *Fleet) Admit(a *Aircraft, entry State) error {
	if a == nil {
		return fsm.ErrNilObject
	}
	if a.inst != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyAdmitted, a)
	}
	if !f.engine.HasState(entry) {
		return fmt.Errorf("%w: %s", ErrUnknownState, entry)
	}

	a.Code = f.lastCode + 1
	a.SpawnedAt = f.clock.Time()
	f.lastCode = a.Code
	f.byCode[a.Code] = a

	if _, err := f.engine.CreateInstance(a, entry); err != nil {
		delete(f.byCode, a.Code)
		return err
	}
	return nil
}

// LastTransponder returns the most recently assigned code.
func (f *Fleet) LastTransponder() int {
	return f.lastCode
}

// FindByTransponder looks up a live aircraft by its octal code.
func (f *Fleet) FindByTransponder(transponder string) (*Aircraft, bool) {
	code, err := ParseTransponder(transponder)
	if err != nil {
		return nil, false
	}
	a, ok := f.byCode[code]
	return a, ok
}

func (f *Fleet) find(transponder string) (*Aircraft, error) {
	a, ok := f.FindByTransponder(transponder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, transponder)
	}
	return a, nil
}

// SetState forces an aircraft into s without running hooks.
func (f *Fleet) SetState(transponder string, s State) error {
	a, err := f.find(transponder)
	if err != nil {
		return err
	}
	if !f.engine.HasState(s) {
		return fmt.Errorf("%w: %s", ErrUnknownState, s)
	}
	a.inst.SwitchSilently(s)
	return nil
}

// SwitchTo moves a live aircraft to s, firing hooks.
func (f *Fleet) SwitchTo(a *Aircraft, s State) {
	if a.Active() {
		a.inst.SwitchTo(s)
	}
}

// SetField assigns a field of a live aircraft.
func (f *Fleet) SetField(transponder, name, value string) error {
	a, err := f.find(transponder)
	if err != nil {
		return err
	}
	return a.Set(name, value)
}

// Destroy removes an aircraft, running the leave hook of its state.
// Observers see a silent transition to Exit.
func (f *Fleet) Destroy(transponder string) error {
	a, err := f.find(transponder)
	if err != nil {
		return err
	}
	from := a.State()
	delete(f.byCode, a.Code)
	if err := f.engine.DestroyInstance(a.inst); err != nil {
		return err
	}
	f.observe(a, f.removal(from))
	return nil
}

// Clear removes every aircraft without running hooks. Observers see a
// silent transition to Exit for each of them.
func (f *Fleet) Clear() {
	all := f.All()
	from := make([]State, len(all))
	for i, a := range all {
		from[i] = a.State()
	}
	f.engine.Clear()
	clear(f.byCode)
	for i, a := range all {
		f.observe(a, f.removal(from[i]))
	}
}

func (f *Fleet) removal(from State) fsm.Transition[State] {
	return fsm.Transition[State]{
		From:    from,
		HasFrom: true,
		To:      Exit,
		Silent:  true,
		Time:    f.clock.Time(),
	}
}

// Update advances every aircraft by one tick.
func (f *Fleet) Update() {
	f.engine.Update()
}

// Range computes the range of a with the current descent speed.
func (f *Fleet) Range(a *Aircraft) float64 {
	return a.Range(f.settings.DescentSpeed())
}

// InState returns the aircraft in s, oldest arrival first.
func (f *Fleet) InState(s State) []*Aircraft {
	return f.engine.ObjectsInState(s)
}

// First returns the longest waiting aircraft in s.
func (f *Fleet) First(s State) (*Aircraft, bool) {
	return f.engine.First(s)
}

// Select returns the best aircraft in s according to better. The earliest
// arrival wins ties.
func (f *Fleet) Select(s State, better func(a, b *Aircraft) bool) (*Aircraft, bool) {
	var best *Aircraft
	for _, a := range f.engine.ObjectsInState(s) {
		if best == nil || better(a, best) {
			best = a
		}
	}
	return best, best != nil
}

// ForEach calls fn for every aircraft in mask. Aircraft removed by an
// earlier call are skipped.
func (f *Fleet) ForEach(mask fsm.Mask[State], fn func(a *Aircraft)) {
	for _, inst := range f.engine.InstancesIn(mask) {
		if inst.Alive() {
			fn(inst.Object())
		}
	}
}

// Count returns the number of aircraft in mask.
func (f *Fleet) Count(mask fsm.Mask[State]) int {
	return f.engine.CountInStates(mask)
}

// Empty reports whether no aircraft is in mask.
func (f *Fleet) Empty(mask fsm.Mask[State]) bool {
	return f.engine.AreStatesEmpty(mask)
}

// All returns every live aircraft in admission order.
func (f *Fleet) All() []*Aircraft {
	return f.engine.Objects()
}

// Len returns the number of live aircraft.
func (f *Fleet) Len() int {
	return f.engine.Len()
}

// Subscribe registers fn for membership changes of s.
func (f *Fleet) Subscribe(s State, fn func()) (fsm.ListenerID, error) {
	return f.engine.Subscribe(s, fn)
}

// Unsubscribe removes a listener registered with Subscribe.
func (f *Fleet) Unsubscribe(s State, id fsm.ListenerID) error {
	return f.engine.Unsubscribe(s, id)
}

// Describe lists the states of the machine.
func (f *Fleet) Describe() []fsm.StateInfo[State] {
	return f.engine.Describe()
}

type discard struct{}

func (discard) Report(string) {}
func (discard) Alert(string)  {}
