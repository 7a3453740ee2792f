package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrReadOnly     = errors.New("variable is read-only")
	ErrInvalidValue = errors.New("invalid value")
	ErrDuplicateVar = errors.New("variable already registered")
)

// Kind is the value type of a Var.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Var is a named runtime variable stored in viper under "sim.<name>".
// Values are read from viper on every access so changes apply immediately.
type Var struct {
	Name        string
	Description string
	Kind        Kind

	min, max float64
	get      func() string
}

// VarOption configures a Var at registration.
type VarOption func(*Var)

// Range clamps assigned values into [min, max].
func Range(min, max float64) VarOption {
	return func(v *Var) {
		v.min, v.max = min, max
	}
}

// AtLeast clamps assigned values to min or above.
func AtLeast(min float64) VarOption {
	return Range(min, math.Inf(1))
}

// Key is the viper key holding the value.
func (v *Var) Key() string {
	return "sim." + v.Name
}

// ReadOnly reports whether the variable is computed by the program.
func (v *Var) ReadOnly() bool {
	return v.get != nil
}

func (v *Var) clamp(f float64) float64 {
	return math.Max(v.min, math.Min(v.max, f))
}

// Float returns the current value as a float.
func (v *Var) Float() float64 {
	f := viper.GetFloat64(v.Key())
	if math.IsNaN(f) {
		return v.clamp(0)
	}
	return v.clamp(f)
}

// Int returns the current value as an int.
func (v *Var) Int() int {
	return int(v.clamp(float64(viper.GetInt(v.Key()))))
}

// String formats the current value.
func (v *Var) String() string {
	if v.get != nil {
		return v.get()
	}
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindInt:
		return strconv.Itoa(v.Int())
	default:
		return viper.GetString(v.Key())
	}
}

// Set parses args[0] and stores it. Numbers outside the range are clamped;
// unparsable input is rejected and leaves the value unchanged.
func (v *Var) Set(args []string) error {
	if v.ReadOnly() {
		return fmt.Errorf("%s: %w", v.Name, ErrReadOnly)
	}
	if len(args) == 0 {
		return fmt.Errorf("%s: %w: missing value", v.Name, ErrInvalidValue)
	}

	raw := strings.TrimSpace(args[0])
	switch v.Kind {
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) {
			return fmt.Errorf("%s: %w: %q", v.Name, ErrInvalidValue, raw)
		}
		viper.Set(v.Key(), v.clamp(f))
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w: %q", v.Name, ErrInvalidValue, raw)
		}
		viper.Set(v.Key(), int(v.clamp(float64(n))))
	default:
		viper.Set(v.Key(), strings.Join(args, " "))
	}
	return nil
}

// FloatSource returns a function reading the live value.
func (v *Var) FloatSource() func() float64 {
	return v.Float
}

// IntSource returns a function reading the live value.
func (v *Var) IntSource() func() int {
	return v.Int
}

// Tunables is the registry of runtime variables.
type Tunables struct {
	vars map[string]*Var
}

// NewTunables creates an empty registry.
func NewTunables() *Tunables {
	return &Tunables{vars: make(map[string]*Var)}
}

// Float registers a float variable.
func (t *Tunables) Float(name, description string, def float64, opts ...VarOption) *Var {
	return t.register(&Var{Name: name, Description: description, Kind: KindFloat}, def, opts)
}

// Int registers an int variable.
func (t *Tunables) Int(name, description string, def int, opts ...VarOption) *Var {
	return t.register(&Var{Name: name, Description: description, Kind: KindInt}, def, opts)
}

// Text registers a string variable.
func (t *Tunables) Text(name, description, def string) *Var {
	return t.register(&Var{Name: name, Description: description, Kind: KindString}, def, nil)
}

// Computed registers a read-only variable whose value comes from get.
func (t *Tunables) Computed(name, description string, kind Kind, get func() string) *Var {
	return t.register(&Var{Name: name, Description: description, Kind: kind, get: get}, nil, nil)
}

func (t *Tunables) register(v *Var, def any, opts []VarOption) *Var {
	v.min, v.max = math.Inf(-1), math.Inf(1)
	for _, opt := range opts {
		opt(v)
	}

	key := strings.ToLower(v.Name)
	if _, ok := t.vars[key]; ok {
		panic(fmt.Sprintf("%s: %v", v.Name, ErrDuplicateVar))
	}
	t.vars[key] = v

	if def != nil {
		viper.SetDefault(v.Key(), def)
	}
	return v
}

// Lookup finds a variable by name, ignoring case.
func (t *Tunables) Lookup(name string) (*Var, bool) {
	v, ok := t.vars[strings.ToLower(name)]
	return v, ok
}

// All returns the variables sorted by name.
func (t *Tunables) All() []*Var {
	out := make([]*Var, 0, len(t.vars))
	for _, v := range t.vars {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Var) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}
