package dynamo

import "math"

// Lower bounds accepted for integrator settings.
const (
	MinDt        = 1e-8
	MinTolerance = 1e-10
	MinMinStep   = 1e-12
	MinMaxStep   = 1e-4
)

// Config selects a scheme and carries its numeric settings. Fixed-step
// schemes use Dt, Steps and BurnIn. Adaptive schemes use Dt as the first
// trial step and are bounded by Steps, Horizon and MaxAttempts.
type Config struct {
	Method      Method
	Dt          float64
	Steps       int
	BurnIn      int
	Tolerance   float64
	MinStep     float64
	MaxStep     float64
	Horizon     float64
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		Method:    RK4,
		Dt:        0.01,
		Steps:     20000,
		BurnIn:    500,
		Tolerance: 1e-4,
		MinStep:   1e-6,
		MaxStep:   0.1,
	}
}

// AttemptLimit is the cap on trial steps of an adaptive run.
func (c Config) AttemptLimit() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	steps := c.Steps
	if steps <= 0 && c.Horizon > 0 && c.MinStep > 0 {
		steps = int(math.Min(c.Horizon/c.MinStep, 1e8))
	}
	return 20*(steps+c.BurnIn) + 1000
}

func (c Config) Validate() error {
	if !c.Method.Valid() {
		return &ConfigError{Field: "method", Value: c.Method.String(), Reason: "unknown integration method"}
	}
	if !(c.Dt >= MinDt) || math.IsInf(c.Dt, 0) {
		return configErr("dt", c.Dt, "must be a finite value >= 1e-08")
	}
	if c.BurnIn < 0 {
		return configErr("burn_in", c.BurnIn, "must not be negative")
	}
	if c.MaxAttempts < 0 {
		return configErr("max_attempts", c.MaxAttempts, "must not be negative")
	}
	if !c.Method.Adaptive() {
		if c.Steps < 1 {
			return configErr("steps", c.Steps, "must be at least 1")
		}
		return nil
	}

	if c.Steps < 0 {
		return configErr("steps", c.Steps, "must not be negative")
	}
	if !(c.Horizon >= 0) || math.IsInf(c.Horizon, 0) {
		return configErr("horizon", c.Horizon, "must be a finite value >= 0")
	}
	if c.Steps == 0 && c.Horizon == 0 {
		return configErr("steps", c.Steps, "adaptive runs need a step count or a time horizon")
	}
	if !(c.Tolerance >= MinTolerance) || math.IsInf(c.Tolerance, 0) {
		return configErr("tolerance", c.Tolerance, "must be a finite value >= 1e-10")
	}
	if !(c.MinStep >= MinMinStep) {
		return configErr("min_step", c.MinStep, "must be >= 1e-12")
	}
	if !(c.MaxStep >= MinMaxStep) || math.IsInf(c.MaxStep, 0) {
		return configErr("max_step", c.MaxStep, "must be a finite value >= 0.0001")
	}
	if c.MinStep > c.MaxStep {
		return configErr("min_step", c.MinStep, "must not exceed max_step")
	}
	return nil
}
