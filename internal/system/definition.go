package system

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
)

// Origin tells built-in systems from user-defined ones.
type Origin int

const (
	Builtin Origin = iota
	Custom
)

func (o Origin) String() string {
	if o == Builtin {
		return "builtin"
	}
	return "custom"
}

// MinScale is the smallest accepted geometry scale.
const MinScale = 0.001

// RunDefaults are the integrator settings a system suggests.
type RunDefaults struct {
	Method    dynamo.Method
	Dt        float64
	Tolerance float64
	MinStep   float64
	MaxStep   float64
	Steps     int
	BurnIn    int
	Scale     float64
}

func DefaultRunDefaults() RunDefaults {
	c := dynamo.DefaultConfig()
	return RunDefaults{
		Method:    c.Method,
		Dt:        c.Dt,
		Tolerance: c.Tolerance,
		MinStep:   c.MinStep,
		MaxStep:   c.MaxStep,
		Steps:     c.Steps,
		BurnIn:    c.BurnIn,
		Scale:     1.0,
	}
}

func (d RunDefaults) Config() dynamo.Config {
	return dynamo.Config{
		Method:    d.Method,
		Dt:        d.Dt,
		Steps:     d.Steps,
		BurnIn:    d.BurnIn,
		Tolerance: d.Tolerance,
		MinStep:   d.MinStep,
		MaxStep:   d.MaxStep,
	}
}

// Definition is a named system of three equations with its parameters and
// starting point.
type Definition struct {
	ID        string
	Name      string
	Equations [3]string
	Params    expr.Params
	Initial   dynamo.State
	Origin    Origin
	Note      string
	Defaults  RunDefaults
	Created   time.Time
}

func (d Definition) Clone() Definition {
	d.Params = d.Params.Clone()
	return d
}

func (d Definition) IsBuiltin() bool { return d.Origin == Builtin }

// Compile compiles the equations against the declared parameters.
func (d Definition) Compile() (*expr.Field, error) {
	return expr.CompileSystem(d.Equations, d.Params.Names())
}

// Bind compiles the equations and fixes the declared parameter values.
func (d Definition) Bind() (dynamo.System, error) {
	f, err := d.Compile()
	if err != nil {
		return nil, err
	}
	b, err := f.Bind(d.Params.Values())
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks everything a stored definition must satisfy: a name,
// unique non-reserved parameter names, compilable equations, a finite
// initial state and usable defaults.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return dynamo.NewConfigError("name", d.Name, "must not be empty")
	}
	if d.Name != strings.TrimSpace(d.Name) {
		return dynamo.NewConfigError("name", d.Name, "must not have leading or trailing spaces")
	}

	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if expr.IsReserved(p.Name) {
			return dynamo.NewConfigError("params", p.Name, "name is reserved")
		}
		if seen[p.Name] {
			return dynamo.NewConfigError("params", p.Name, "declared twice")
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return dynamo.NewConfigError("params", p.Name, "value must be finite")
		}
		seen[p.Name] = true
	}

	if _, err := d.Compile(); err != nil {
		return err
	}
	if !d.Initial.IsValid() {
		return dynamo.NewConfigError("initial", d.Initial, "must be finite")
	}
	if err := d.Defaults.Config().Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if !(d.Defaults.Scale >= MinScale) {
		return dynamo.NewConfigError("scale", d.Defaults.Scale, "must be >= 0.001")
	}
	return nil
}

// NewDraft returns the template for a new custom system: a harmonic
// oscillator in the x-y plane.
func NewDraft(name string) Definition {
	defaults := DefaultRunDefaults()
	defaults.Steps = 700
	defaults.BurnIn = 0
	return Definition{
		Name:      name,
		Equations: [3]string{"y", "-x", "0"},
		Params:    expr.Params{},
		Initial:   dynamo.State{1, 0, 0},
		Origin:    Custom,
		Defaults:  defaults,
	}
}
