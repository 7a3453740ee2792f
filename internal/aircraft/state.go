package aircraft

import (
	"fmt"
	"strings"

	"github.com/felipedec/airport/internal/fsm"
)

// State is the operational state of an aircraft.
type State uint8

const (
	Idle State = iota
	OnGate
	AirborneOutOfFuel
	Airborne
	Landing
	TakingOff
	LinedUp
	TaxiwayLeaving
	TaxiwayArriving
	Exit
)

var stateNames = [...]string{
	Idle:              "Idle",
	OnGate:            "OnGate",
	AirborneOutOfFuel: "AirborneOutOfFuel",
	Airborne:          "Airborne",
	Landing:           "Landing",
	TakingOff:         "TakingOff",
	LinedUp:           "LinedUp",
	TaxiwayLeaving:    "TaxiwayLeaving",
	TaxiwayArriving:   "TaxiwayArriving",
	Exit:              "Exit",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// States lists every state, Exit last.
func States() []State {
	out := make([]State, 0, len(stateNames))
	for s := range stateNames {
		out = append(out, State(s))
	}
	return out
}

// Query masks. They are never assigned as a state.
var (
	AllAirborneMask = fsm.Union(Airborne, AirborneOutOfFuel)
	TaxingMask      = fsm.Union(TaxiwayArriving, TaxiwayLeaving)
	RunwayMask      = fsm.Union(Landing, TakingOff)
	AllMask         = fsm.Union(Idle, OnGate, AirborneOutOfFuel, Airborne, Landing, TakingOff, LinedUp, TaxiwayLeaving, TaxiwayArriving)
)

var maskAliases = map[string]fsm.Mask[State]{
	"allairbornemask": AllAirborneMask,
	"taxingmask":      TaxingMask,
	"taxing":          TaxingMask,
	"runway":          RunwayMask,
	"all":             AllMask,
}

// ParseState resolves a state name, ignoring case.
func ParseState(name string) (State, error) {
	name = strings.TrimSpace(name)
	for s, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(s), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// ParseMask resolves a comma separated list of states and mask names,
// e.g. "Landing, Taxing".
func ParseMask(list string) (fsm.Mask[State], error) {
	var mask fsm.Mask[State]
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if alias, ok := maskAliases[strings.ToLower(part)]; ok {
			mask = mask.Or(alias)
			continue
		}
		s, err := ParseState(part)
		if err != nil {
			return fsm.Mask[State]{}, err
		}
		mask = mask.With(s)
	}
	if mask.Len() == 0 {
		return mask, fmt.Errorf("%w: empty state list", ErrUnknownState)
	}
	return mask, nil
}

// Complement returns every non-exit state missing from mask.
func Complement(mask fsm.Mask[State]) fsm.Mask[State] {
	var out fsm.Mask[State]
	for _, s := range AllMask.IDs() {
		if !mask.Has(s) {
			out = out.With(s)
		}
	}
	return out
}

// Outcome is how an aircraft left the simulation.
type Outcome string

const (
	Departed Outcome = "departed"
	Arrived  Outcome = "arrived"
	Crashed  Outcome = "crashed"
	Removed  Outcome = "removed"
)

// TransitionOutcome classifies a transition into Exit. Silent exits come
// from the operator and count as removals.
func TransitionOutcome(tr fsm.Transition[State]) Outcome {
	if tr.Silent {
		return Removed
	}
	return ExitOutcome(tr.From)
}

// ExitOutcome classifies an exit by the state the aircraft left.
func ExitOutcome(from State) Outcome {
	switch from {
	case TakingOff:
		return Departed
	case TaxiwayArriving:
		return Arrived
	case AirborneOutOfFuel:
		return Crashed
	default:
		return Removed
	}
}
