package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"zeros", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN(), 0}, false},
		{"with +Inf", State{1.0, 0, math.Inf(1)}, false},
		{"with -Inf", State{math.Inf(-1), 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	if got := a.Add(b); got != (State{5, 7, 9}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (State{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != (State{2, 4, 6}) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.AddScaled(b, 0.5); got != (State{3, 4.5, 6}) {
		t.Errorf("AddScaled failed: got %v", got)
	}
	if got := a.Lerp(b, 0.5); got != (State{2.5, 3.5, 4.5}) {
		t.Errorf("Lerp failed: got %v", got)
	}
	if got := (State{3, 4, 0}).Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm failed: got %v", got)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"euler", Euler},
		{"HEUN", Heun},
		{"rk2", Heun},
		{"RK4", RK4},
		{"rkf45", RKF45},
		{" DP5 ", DP5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if err != nil {
				t.Fatalf("ParseMethod(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	_, err := ParseMethod("leapfrog")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	adaptive := DefaultConfig()
	adaptive.Method = DP5

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"NaN dt", func(c *Config) { c.Dt = math.NaN() }, "dt"},
		{"zero steps", func(c *Config) { c.Steps = 0 }, "steps"},
		{"negative burn-in", func(c *Config) { c.BurnIn = -1 }, "burn_in"},
		{"bad method", func(c *Config) { c.Method = Method(42) }, "method"},
		{"adaptive zero tolerance", func(c *Config) { c.Method = RKF45; c.Tolerance = 0 }, "tolerance"},
		{"adaptive min above max", func(c *Config) { c.Method = DP5; c.MinStep = 0.5; c.MaxStep = 0.1 }, "min_step"},
		{"adaptive tiny max", func(c *Config) { c.Method = DP5; c.MaxStep = 1e-6 }, "max_step"},
		{"adaptive unbounded", func(c *Config) { c.Method = DP5; c.Steps = 0; c.Horizon = 0 }, "steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
	if err := adaptive.Validate(); err != nil {
		t.Errorf("default adaptive config rejected: %v", err)
	}

	horizon := adaptive
	horizon.Steps = 0
	horizon.Horizon = 5
	if err := horizon.Validate(); err != nil {
		t.Errorf("horizon-bounded config rejected: %v", err)
	}
}

func TestNumericalFailureUnwrap(t *testing.T) {
	err := error(&NumericalFailure{Step: 7, Dt: 0.01, Err: ErrNonFinite})
	if !errors.Is(err, ErrNonFinite) {
		t.Error("expected failure to unwrap to ErrNonFinite")
	}
	if err.Error() != "step 7 (dt=0.01): dynamo: non-finite state (NaN or Inf detected)" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
