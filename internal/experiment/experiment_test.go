package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/system"
)

func oscillator() system.Definition {
	def := system.NewDraft("Oscillator")
	def.Equations = [3]string{"w*y", "-w*x", "0"}
	def.Params = expr.Params{{Name: "w", Value: 1}}
	def.Defaults.Steps = 100
	return def
}

func TestRunUsesDefinitionDefaults(t *testing.T) {
	e, err := New(oscillator(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}
	if got := res.Trajectory.Len(); got != 101 {
		t.Fatalf("expected 101 samples, got %d", got)
	}
	for _, s := range res.Trajectory.Samples {
		if r := math.Hypot(s.X, s.Y); math.Abs(r-1) > 1e-8 {
			t.Fatalf("sample %d off the unit circle: r=%g", s.Step, r)
		}
	}
}

func TestOverrides(t *testing.T) {
	burn := 0
	x0 := dynamo.State{2, 0, 0}
	steps := 50
	e, err := New(oscillator(), Config{
		Method:  "dp5",
		Steps:   &steps,
		BurnIn:  &burn,
		Initial: &x0,
		Params:  map[string]float64{"w": 2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg := e.Integrator()
	if cfg.Method != dynamo.DP5 || cfg.Steps != 50 || cfg.BurnIn != 0 {
		t.Errorf("unexpected integrator config %+v", cfg)
	}
	if cfg.Dt != 0.01 {
		t.Errorf("dt should keep the system default, got %g", cfg.Dt)
	}
	if w, _ := e.Definition().Params.Get("w"); w != 2 {
		t.Errorf("expected w=2, got %g", w)
	}
	if e.Initial() != x0 {
		t.Errorf("expected initial %v, got %v", x0, e.Initial())
	}
}

func TestNewRejects(t *testing.T) {
	nan := dynamo.State{math.NaN(), 0, 0}
	negDt, zeroDt, zeroSteps := -1.0, 0.0, 0
	tests := []struct {
		name string
		def  func() system.Definition
		cfg  Config
		want error
	}{
		{"unused param", oscillator, Config{Params: map[string]float64{"q": 1}}, dynamo.ErrInvalidConfig},
		{"bad method", oscillator, Config{Method: "leapfrog"}, dynamo.ErrInvalidConfig},
		{"bad dt", oscillator, Config{Dt: &negDt}, dynamo.ErrInvalidConfig},
		{"zero dt", oscillator, Config{Dt: &zeroDt}, dynamo.ErrInvalidConfig},
		{"zero steps", oscillator, Config{Steps: &zeroSteps}, dynamo.ErrInvalidConfig},
		{"bad initial", oscillator, Config{Initial: &nan}, dynamo.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def(), tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	def := oscillator()
	def.Equations[1] = "-w*x +"
	_, err := New(def, Config{})
	var pe *expr.ParseError
	if !errors.As(err, &pe) || pe.Axis != "dy" {
		t.Fatalf("expected dy parse error, got %v", err)
	}
}

func TestStaleParamsAreRedetected(t *testing.T) {
	def := oscillator()
	def.Equations[2] = "-k*z"
	e, err := New(def, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := e.Definition().Params.Names()
	if len(got) != 2 || got[0] != "w" || got[1] != "k" {
		t.Fatalf("expected [w k], got %v", got)
	}
	if k, _ := e.Definition().Params.Get("k"); k != expr.DefaultParamValue {
		t.Errorf("new parameter should default to %g, got %g", expr.DefaultParamValue, k)
	}
}

func TestBuiltinsRun(t *testing.T) {
	for _, def := range system.Builtins() {
		t.Run(def.Name, func(t *testing.T) {
			steps := 200
			e, err := New(def, Config{Steps: &steps})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			res, err := e.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !res.OK() {
				t.Fatalf("status %s: %v", res.Status, res.Err)
			}
		})
	}
}

func TestEnsemble(t *testing.T) {
	e, err := New(oscillator(), Config{Seed: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	x0s, results, err := e.Ensemble(context.Background(), 4, 0.1, 2)
	if err != nil {
		t.Fatalf("Ensemble: %v", err)
	}
	if len(x0s) != 4 || len(results) != 4 {
		t.Fatalf("expected 4 runs, got %d/%d", len(x0s), len(results))
	}
	if x0s[0] != e.Initial() {
		t.Errorf("first run should start at the unperturbed state")
	}
	for i, r := range results {
		first := r.Trajectory.Samples[0].State()
		if first != x0s[i] {
			t.Errorf("run %d starts at %v, want %v", i, first, x0s[i])
		}
	}

	if _, _, err := e.Ensemble(context.Background(), 0, 0.1, 1); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected config error for zero runs, got %v", err)
	}
}
