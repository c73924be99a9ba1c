package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/sim"
	"github.com/san-kum/attractor/internal/system"
)

// Config overrides a system's suggested run settings. Nil fields keep the
// system default; a non-nil field replaces it and is validated as given.
type Config struct {
	Method    string
	Dt        *float64
	Steps     *int
	BurnIn    *int
	Tolerance *float64
	MinStep   *float64
	MaxStep   *float64
	Horizon   float64
	Initial   *dynamo.State
	Params    map[string]float64
	Seed      int64
}

// Experiment is one activation of a system: resolved parameters, a compiled
// field and the integrator settings, ready to run.
type Experiment struct {
	def       system.Definition
	field     *expr.Field
	run       dynamo.Config
	initial   dynamo.State
	seed      int64
	simulator *sim.Simulator
}

// New resolves def against cfg. Parameters are re-detected from the
// equations so that a stale parameter list cannot reach the compiler;
// overrides for names the equations do not use are rejected.
func New(def system.Definition, cfg Config) (*Experiment, error) {
	def = def.Clone()

	params, err := expr.DetectParams(def.Equations, def.Params)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(cfg.Params) {
		if _, ok := params.Get(name); !ok {
			return nil, dynamo.NewConfigError("params", name, fmt.Sprintf("not used by %s", def.Name))
		}
		params = params.With(name, cfg.Params[name])
	}
	def.Params = params

	field, err := def.Compile()
	if err != nil {
		return nil, err
	}

	run, err := resolve(def.Defaults.Config(), cfg)
	if err != nil {
		return nil, err
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}

	initial := def.Initial
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}
	if !initial.IsValid() {
		return nil, dynamo.NewConfigError("initial", initial, "must be finite")
	}

	e := &Experiment{
		def:     def,
		field:   field,
		run:     run,
		initial: initial,
		seed:    cfg.Seed,
	}
	sys, err := e.bind()
	if err != nil {
		return nil, err
	}
	e.simulator = sim.New(sys)
	return e, nil
}

func resolve(base dynamo.Config, cfg Config) (dynamo.Config, error) {
	if cfg.Method != "" {
		m, err := dynamo.ParseMethod(cfg.Method)
		if err != nil {
			return base, err
		}
		base.Method = m
	}
	if cfg.Dt != nil {
		base.Dt = *cfg.Dt
	}
	if cfg.Steps != nil {
		base.Steps = *cfg.Steps
	}
	if cfg.BurnIn != nil {
		base.BurnIn = *cfg.BurnIn
	}
	if cfg.Tolerance != nil {
		base.Tolerance = *cfg.Tolerance
	}
	if cfg.MinStep != nil {
		base.MinStep = *cfg.MinStep
	}
	if cfg.MaxStep != nil {
		base.MaxStep = *cfg.MaxStep
	}
	if cfg.Horizon != 0 {
		base.Horizon = cfg.Horizon
	}
	return base, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Experiment) bind() (dynamo.System, error) {
	b, err := e.field.Bind(e.def.Params.Values())
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Definition is the system with the resolved parameter values.
func (e *Experiment) Definition() system.Definition { return e.def.Clone() }

func (e *Experiment) Integrator() dynamo.Config { return e.run }

func (e *Experiment) Initial() dynamo.State { return e.initial }

// System binds a fresh right-hand side, for callers that drive their own
// integration such as the Lyapunov estimate.
func (e *Experiment) System() (dynamo.System, error) { return e.bind() }

// Simulator exposes the run's simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, e.initial, e.run)
}

// Ensemble runs n integrations from the initial state and n-1 random
// perturbations of it within ±spread, each with its own bound system.
func (e *Experiment) Ensemble(ctx context.Context, n int, spread float64, workers int) ([]dynamo.State, []*sim.Result, error) {
	if n < 1 {
		return nil, nil, dynamo.NewConfigError("runs", n, "must be >= 1")
	}
	if !(spread >= 0) {
		return nil, nil, dynamo.NewConfigError("spread", spread, "must be >= 0")
	}

	x0s := sim.Perturbed(e.initial, n, spread, e.seed)
	results, err := sim.NewEnsemble(e.bind, workers).Run(ctx, x0s, e.run)
	if err != nil {
		return nil, nil, err
	}
	return x0s, results, nil
}
