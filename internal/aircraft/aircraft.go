package aircraft

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/felipedec/airport/internal/fsm"
)

// Aircraft is a simulated flight. Fields are owned by the simulation
// goroutine.
type Aircraft struct {
	Code      int
	Priority  int
	FlightID  int
	Weight    float64 // kg
	Fuel      float64 // liters
	BurnRate  float64 // liters per second
	Altitude  float64 // meters
	Origin    string
	SpawnedAt float64

	inst *fsm.Instance[State, *Aircraft]
}

// FormatTransponder renders a code as four octal digits.
func FormatTransponder(code int) string {
	return fmt.Sprintf("%04o", code)
}

// ParseTransponder reads an octal transponder code.
func ParseTransponder(s string) (int, error) {
	code, err := strconv.ParseInt(strings.TrimSpace(s), 8, 32)
	if err != nil || code < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTransponder, s)
	}
	return int(code), nil
}

// Transponder returns the display form of the code.
func (a *Aircraft) Transponder() string {
	return FormatTransponder(a.Code)
}

// State returns the current state. Aircraft that left the simulation
// report Exit.
func (a *Aircraft) State() State {
	if a.inst == nil || !a.inst.Alive() {
		return Exit
	}
	return a.inst.State()
}

// StateTime is the simulated time spent in the current state.
func (a *Aircraft) StateTime() float64 {
	if a.inst == nil || !a.inst.Alive() {
		return 0
	}
	return a.inst.StateTime()
}

// Active reports whether the aircraft is still simulated.
func (a *Aircraft) Active() bool {
	return a.inst != nil && a.inst.Alive()
}

// Range estimates the seconds left before the aircraft must be on the
// ground: flight time on the remaining fuel plus the time a powerless
// descent from the current altitude would take.
func (a *Aircraft) Range(descentSpeed float64) float64 {
	r := 0.0
	if a.BurnRate > 0 {
		r += a.Fuel / a.BurnRate
	}
	if descentSpeed > 0 {
		r += a.Altitude / descentSpeed
	}
	return r
}

func (a *Aircraft) String() string {
	if a.FlightID != 0 {
		return fmt.Sprintf("Aircraft %s (flight %d)", a.Transponder(), a.FlightID)
	}
	return "Aircraft " + a.Transponder()
}

// Snapshot is a copy of the aircraft fields at one instant.
type Snapshot struct {
	Transponder string  `json:"transponder"`
	State       string  `json:"state"`
	Priority    int     `json:"priority"`
	FlightID    int     `json:"flightId"`
	Weight      float64 `json:"weight"`
	Fuel        float64 `json:"fuel"`
	BurnRate    float64 `json:"burnRate"`
	Altitude    float64 `json:"altitude"`
	Origin      string  `json:"origin"`
}

// Snapshot copies the current fields.
func (a *Aircraft) Snapshot() Snapshot {
	return Snapshot{
		Transponder: a.Transponder(),
		State:       a.State().String(),
		Priority:    a.Priority,
		FlightID:    a.FlightID,
		Weight:      a.Weight,
		Fuel:        a.Fuel,
		BurnRate:    a.BurnRate,
		Altitude:    a.Altitude,
		Origin:      a.Origin,
	}
}

// FieldInfo describes a field settable from the console.
type FieldInfo struct {
	Name string
	Type string
}

type field struct {
	FieldInfo
	set func(a *Aircraft, value string) error
}

var fields = []field{
	{FieldInfo{"priority", "int"}, func(a *Aircraft, v string) error { return parseInt(v, &a.Priority) }},
	{FieldInfo{"flight", "int"}, func(a *Aircraft, v string) error { return parseInt(v, &a.FlightID) }},
	{FieldInfo{"weight", "float"}, func(a *Aircraft, v string) error { return parseNonNegative(v, &a.Weight) }},
	{FieldInfo{"fuel", "float"}, func(a *Aircraft, v string) error { return parseNonNegative(v, &a.Fuel) }},
	{FieldInfo{"burn", "float"}, func(a *Aircraft, v string) error { return parseNonNegative(v, &a.BurnRate) }},
	{FieldInfo{"altitude", "float"}, func(a *Aircraft, v string) error { return parseNonNegative(v, &a.Altitude) }},
	{FieldInfo{"origin", "string"}, func(a *Aircraft, v string) error { a.Origin = v; return nil }},
}

// Fields lists the settable fields.
func Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.FieldInfo)
	}
	return out
}

// Get formats a field by name.
func (a *Aircraft) Get(name string) (string, error) {
	switch strings.ToLower(name) {
	case "priority":
		return strconv.Itoa(a.Priority), nil
	case "flight":
		return strconv.Itoa(a.FlightID), nil
	case "weight":
		return strconv.FormatFloat(a.Weight, 'g', -1, 64), nil
	case "fuel":
		return strconv.FormatFloat(a.Fuel, 'g', -1, 64), nil
	case "burn":
		return strconv.FormatFloat(a.BurnRate, 'g', -1, 64), nil
	case "altitude":
		return strconv.FormatFloat(a.Altitude, 'g', -1, 64), nil
	case "origin":
		return a.Origin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Set parses value into the named field. Invalid values leave the
// aircraft unchanged.
func (a *Aircraft) Set(name, value string) error {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			if err := f.set(a, strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func parseInt(s string, dst *int) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	*dst = n
	return nil
}

func parseNonNegative(s string, dst *float64) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	*dst = f
	return nil
}
