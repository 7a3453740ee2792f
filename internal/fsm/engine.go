// Package fsm implements a finite state machine engine that drives many
// objects at once. Each state keeps the ordered list of objects currently in
// it, may carry enter/update/leave hooks and may leave automatically after a
// duration. Entering a state registered with Exit destroys the instance.
package fsm

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNilObject       = errors.New("fsm: object is nil")
	ErrNilListener     = errors.New("fsm: listener is nil")
	ErrForeignInstance = errors.New("fsm: instance belongs to another engine")
	ErrDestroyed       = errors.New("fsm: instance already destroyed")
	ErrUnknownState    = errors.New("fsm: unknown state")
	ErrUnknownListener = errors.New("fsm: unknown listener")
)

// TimeSource provides the current simulated time in seconds.
type TimeSource interface {
	Time() float64
}

// Hook runs with the instance and the object it owns.
type Hook[S comparable, T any] func(inst *Instance[S, T], obj T)

// Hooks are the optional callbacks of a state.
type Hooks[S comparable, T any] struct {
	OnEnter  Hook[S, T]
	OnUpdate Hook[S, T]
	OnLeave  Hook[S, T]
}

// StateOption configures a state at registration.
type StateOption func(*stateConfig)

type stateConfig struct {
	exit bool
}

// Exit marks a terminal state. Entering it destroys the instance.
func Exit() StateOption {
	return func(c *stateConfig) {
		c.exit = true
	}
}

// Transition describes a state change that has been applied.
type Transition[S comparable] struct {
	From    S
	HasFrom bool
	To      S
	Silent  bool
	Time    float64
}

// TransitionFunc observes transitions. It runs before an exit state
// detaches the object, so obj is always valid.
type TransitionFunc[S comparable, T any] func(obj T, tr Transition[S])

// ListenerID identifies a membership listener for Unsubscribe.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn func()
}

type autoTransition[S comparable] struct {
	target   S
	duration func() float64
}

type state[S comparable, T any] struct {
	id        S
	hooks     Hooks[S, T]
	exit      bool
	auto      *autoTransition[S]
	members   indexList
	listeners []listener
}

func (s *state[S, T]) notify() {
	for _, l := range s.listeners {
		l.fn()
	}
}

type node[S comparable, T any] struct {
	inst   *Instance[S, T]
	member link
	live   link
}

// Engine owns every live instance. It is not safe for concurrent use.
type Engine[S comparable, T any] struct {
	clock  TimeSource
	states map[S]*state[S, T]
	order  []S

	nodes []node[S, T]
	free  []int
	live  indexList

	observers    []TransitionFunc[S, T]
	created      []func(*Instance[S, T])
	nextListener ListenerID
}

// New creates an engine that stamps transitions with clock's time.
func New[S comparable, T any](clock TimeSource) *Engine[S, T] {
	return &Engine[S, T]{
		clock:  clock,
		states: make(map[S]*state[S, T]),
		live:   newIndexList(),
	}
}

// AddState registers id. Registering an id again replaces its hooks, flags
// and auto transition; objects already in the state stay in it.
func (e *Engine[S, T]) AddState(id S, hooks Hooks[S, T], opts ...StateOption) {
	var cfg stateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if st, ok := e.states[id]; ok {
		st.hooks = hooks
		st.exit = cfg.exit
		st.auto = nil
		return
	}

	e.states[id] = &state[S, T]{
		id:      id,
		hooks:   hooks,
		exit:    cfg.exit,
		members: newIndexList(),
	}
	e.order = append(e.order, id)
}

// SetAutoTransition moves objects from id to target once they have spent
// duration() seconds in id. duration is evaluated on every check.
func (e *Engine[S, T]) SetAutoTransition(id, target S, duration func() float64) error {
	st, ok := e.states[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownState, id)
	}
	if _, ok := e.states[target]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownState, target)
	}
	st.auto = &autoTransition[S]{target: target, duration: duration}
	return nil
}

// Observe registers fn to run after every applied transition.
func (e *Engine[S, T]) Observe(fn TransitionFunc[S, T]) {
	e.observers = append(e.observers, fn)
}

// OnCreate registers fn to run for every new instance before its entry
// transition, so hooks and observers of that transition can reach it.
func (e *Engine[S, T]) OnCreate(fn func(*Instance[S, T])) {
	e.created = append(e.created, fn)
}

// HasState reports whether id has been registered.
func (e *Engine[S, T]) HasState(id S) bool {
	_, ok := e.states[id]
	return ok
}

// CreateInstance admits obj and switches it into entry, firing hooks.
func (e *Engine[S, T]) CreateInstance(obj T, entry S) (*Instance[S, T], error) {
	if isNil(obj) {
		return nil, ErrNilObject
	}
	if _, ok := e.states[entry]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownState, entry)
	}

	inst := &Instance[S, T]{engine: e, obj: obj, alive: true}
	inst.slot = e.alloc(inst)
	e.live.pushBack(inst.slot, e.liveLink)
	for _, fn := range e.created {
		fn(inst)
	}

	inst.switchTo(entry, false)
	return inst, nil
}

// DestroyInstance runs the leave hook of the instance's state and removes it.
func (e *Engine[S, T]) DestroyInstance(inst *Instance[S, T]) error {
	if inst == nil {
		return ErrNilObject
	}
	if inst.engine != e {
		return ErrForeignInstance
	}
	if !inst.alive {
		return ErrDestroyed
	}

	if st := inst.current; st != nil {
		if st.hooks.OnLeave != nil {
			st.hooks.OnLeave(inst, inst.obj)
		}
		// the leave hook may have moved or destroyed the instance already
		if !inst.alive {
			return nil
		}
		e.leave(inst)
	}
	e.release(inst)
	return nil
}

// Clear destroys every instance without running hooks.
func (e *Engine[S, T]) Clear() {
	for _, inst := range e.Instances() {
		e.leave(inst)
		e.release(inst)
	}
}

// Update advances every live instance once, in creation order. Instances
// created during the pass wait for the next one; instances destroyed during
// the pass are skipped.
func (e *Engine[S, T]) Update() {
	for _, inst := range e.Instances() {
		if inst.alive {
			inst.Update()
		}
	}
}

// Len returns the number of live instances.
func (e *Engine[S, T]) Len() int {
	return e.live.n
}

// Instances returns the live instances in creation order.
func (e *Engine[S, T]) Instances() []*Instance[S, T] {
	out := make([]*Instance[S, T], 0, e.live.n)
	e.live.each(e.liveLink, func(slot int) bool {
		out = append(out, e.nodes[slot].inst)
		return true
	})
	return out
}

// Objects returns the objects of every live instance in creation order.
func (e *Engine[S, T]) Objects() []T {
	out := make([]T, 0, e.live.n)
	e.live.each(e.liveLink, func(slot int) bool {
		out = append(out, e.nodes[slot].inst.obj)
		return true
	})
	return out
}

// ObjectsInState returns the objects in id, oldest arrival first.
func (e *Engine[S, T]) ObjectsInState(id S) []T {
	st, ok := e.states[id]
	if !ok {
		return nil
	}
	out := make([]T, 0, st.members.n)
	st.members.each(e.memberLink, func(slot int) bool {
		out = append(out, e.nodes[slot].inst.obj)
		return true
	})
	return out
}

// InstancesIn returns the instances in any state of mask, grouped by state
// in mask order.
func (e *Engine[S, T]) InstancesIn(mask Mask[S]) []*Instance[S, T] {
	var out []*Instance[S, T]
	for _, id := range mask.ids {
		st, ok := e.states[id]
		if !ok {
			continue
		}
		st.members.each(e.memberLink, func(slot int) bool {
			out = append(out, e.nodes[slot].inst)
			return true
		})
	}
	return out
}

// First returns the longest resident object of id.
func (e *Engine[S, T]) First(id S) (T, bool) {
	var zero T
	st, ok := e.states[id]
	if !ok || st.members.head == none {
		return zero, false
	}
	return e.nodes[st.members.head].inst.obj, true
}

// CountInStates sums the membership of every state in mask.
func (e *Engine[S, T]) CountInStates(mask Mask[S]) int {
	n := 0
	for _, id := range mask.ids {
		if st, ok := e.states[id]; ok {
			n += st.members.n
		}
	}
	return n
}

// AreStatesEmpty reports whether no object is in any state of mask.
func (e *Engine[S, T]) AreStatesEmpty(mask Mask[S]) bool {
	return e.CountInStates(mask) == 0
}

// Subscribe registers fn to run whenever the membership of id changes.
func (e *Engine[S, T]) Subscribe(id S, fn func()) (ListenerID, error) {
	if fn == nil {
		return 0, ErrNilListener
	}
	st, ok := e.states[id]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownState, id)
	}
	e.nextListener++
	st.listeners = append(st.listeners, listener{id: e.nextListener, fn: fn})
	return e.nextListener, nil
}

// Unsubscribe removes a listener registered with Subscribe.
func (e *Engine[S, T]) Unsubscribe(id S, lid ListenerID) error {
	st, ok := e.states[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownState, id)
	}
	for i, l := range st.listeners {
		if l.id == lid {
			st.listeners = append(st.listeners[:i], st.listeners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d on %v", ErrUnknownListener, lid, id)
}

// StateInfo describes a registered state.
type StateInfo[S comparable] struct {
	ID        S
	Exit      bool
	HasEnter  bool
	HasUpdate bool
	HasLeave  bool
	Auto      bool
	AutoTo    S
	AutoAfter float64
	Members   int
}

// Describe lists the registered states in registration order.
func (e *Engine[S, T]) Describe() []StateInfo[S] {
	out := make([]StateInfo[S], 0, len(e.order))
	for _, id := range e.order {
		st := e.states[id]
		info := StateInfo[S]{
			ID:        id,
			Exit:      st.exit,
			HasEnter:  st.hooks.OnEnter != nil,
			HasUpdate: st.hooks.OnUpdate != nil,
			HasLeave:  st.hooks.OnLeave != nil,
			Members:   st.members.n,
		}
		if st.auto != nil {
			info.Auto = true
			info.AutoTo = st.auto.target
			info.AutoAfter = st.auto.duration()
		}
		out = append(out, info)
	}
	return out
}

func (e *Engine[S, T]) memberLink(slot int) *link {
	return &e.nodes[slot].member
}

func (e *Engine[S, T]) liveLink(slot int) *link {
	return &e.nodes[slot].live
}

func (e *Engine[S, T]) alloc(inst *Instance[S, T]) int {
	n := node[S, T]{inst: inst, member: unlinked(), live: unlinked()}
	if k := len(e.free); k > 0 {
		slot := e.free[k-1]
		e.free = e.free[:k-1]
		e.nodes[slot] = n
		return slot
	}
	e.nodes = append(e.nodes, n)
	return len(e.nodes) - 1
}

// leave drops inst from its current state's membership.
func (e *Engine[S, T]) leave(inst *Instance[S, T]) {
	if !inst.joined {
		return
	}
	st := inst.current
	st.members.remove(inst.slot, e.memberLink)
	inst.joined = false
	st.notify()
}

func (e *Engine[S, T]) join(inst *Instance[S, T], st *state[S, T]) {
	st.members.pushBack(inst.slot, e.memberLink)
	inst.joined = true
	st.notify()
}

// release removes inst from the live list and frees its slot.
func (e *Engine[S, T]) release(inst *Instance[S, T]) {
	e.live.remove(inst.slot, e.liveLink)
	e.nodes[inst.slot] = node[S, T]{member: unlinked(), live: unlinked()}
	e.free = append(e.free, inst.slot)

	var zero T
	inst.obj = zero
	inst.alive = false
	inst.slot = none
}

func (e *Engine[S, T]) observe(obj T, tr Transition[S]) {
	for _, fn := range e.observers {
		fn(obj, tr)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
