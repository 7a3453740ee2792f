package fsm

import "fmt"

// Instance binds one object to its current state.
type Instance[S comparable, T any] struct {
	engine    *Engine[S, T]
	slot      int
	obj       T
	current   *state[S, T]
	enteredAt float64
	alive     bool
	joined    bool
}

// Object returns the bound object, or the zero value once destroyed.
func (i *Instance[S, T]) Object() T {
	return i.obj
}

// State returns the current state id.
func (i *Instance[S, T]) State() S {
	if i.current == nil {
		var zero S
		return zero
	}
	return i.current.id
}

// Is reports whether the current state is in mask.
func (i *Instance[S, T]) Is(mask Mask[S]) bool {
	return i.current != nil && mask.Has(i.current.id)
}

// StateTime is the simulated time spent in the current state.
func (i *Instance[S, T]) StateTime() float64 {
	d := i.engine.clock.Time() - i.enteredAt
	if d < 0 {
		return 0
	}
	return d
}

// Alive is false once the instance entered an exit state or was destroyed.
func (i *Instance[S, T]) Alive() bool {
	return i.alive
}

// SwitchTo moves the instance to id, firing leave and enter hooks.
func (i *Instance[S, T]) SwitchTo(id S) {
	i.switchTo(id, false)
}

// SwitchSilently moves the instance to id without hooks. Membership and the
// state timer are still updated.
func (i *Instance[S, T]) SwitchSilently(id S) {
	i.switchTo(id, true)
}

// Update applies the auto transition when it is due, otherwise runs the
// state's update hook.
func (i *Instance[S, T]) Update() {
	if !i.alive || i.current == nil {
		return
	}
	st := i.current
	if st.auto != nil && i.StateTime() >= st.auto.duration() {
		i.switchTo(st.auto.target, false)
		return
	}
	if st.hooks.OnUpdate != nil {
		st.hooks.OnUpdate(i, i.obj)
	}
}

func (i *Instance[S, T]) switchTo(id S, silent bool) {
	if !i.alive {
		return
	}
	e := i.engine
	next, ok := e.states[id]
	if !ok {
		panic(fmt.Sprintf("fsm: switch to unregistered state %v", id))
	}

	tr := Transition[S]{To: id, Silent: silent}
	if prev := i.current; prev != nil {
		tr.From, tr.HasFrom = prev.id, true
		if !silent && prev.hooks.OnLeave != nil {
			prev.hooks.OnLeave(i, i.obj)
			if !i.alive || i.current != prev {
				return
			}
		}
		e.leave(i)
	}

	i.current = next
	if !silent && next.hooks.OnEnter != nil {
		next.hooks.OnEnter(i, i.obj)
		// a nested switch from the enter hook wins
		if !i.alive || i.current != next {
			return
		}
	}
	i.enteredAt = e.clock.Time()
	tr.Time = i.enteredAt

	e.observe(i.obj, tr)

	if next.exit {
		e.release(i)
		return
	}
	e.join(i, next)
}
