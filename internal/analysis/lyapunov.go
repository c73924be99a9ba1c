package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// LyapunovConfig controls LargestLyapunov.
type LyapunovConfig struct {
	Dt        float64
	Transient float64
	Duration  float64
	// D0 is the separation the shadow trajectory is held at.
	D0 float64
}

func DefaultLyapunovConfig() LyapunovConfig {
	return LyapunovConfig{Dt: 0.01, Transient: 10, Duration: 100, D0: 1e-8}
}

func (c LyapunovConfig) Validate() error {
	if !(c.Dt > 0) {
		return dynamo.NewConfigError("dt", c.Dt, "must be > 0")
	}
	if !(c.Transient >= 0) {
		return dynamo.NewConfigError("transient", c.Transient, "must be >= 0")
	}
	if !(c.Duration >= c.Dt) {
		return dynamo.NewConfigError("duration", c.Duration, "must cover at least one step")
	}
	if !(c.D0 > 0) || c.D0 >= 1 {
		return dynamo.NewConfigError("d0", c.D0, "must be in (0, 1)")
	}
	return nil
}

// LargestLyapunov estimates the largest Lyapunov exponent with Benettin's
// method: a shadow trajectory starts D0 away along x, the separation is
// measured after every step and pulled back to D0 along its current
// direction. The exponent is the mean log growth per unit time. A positive
// value indicates chaos.
func LargestLyapunov(sys dynamo.System, st dynamo.Stepper, x0 dynamo.State, cfg LyapunovConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	x := x0
	for i, n := 0, int(cfg.Transient/cfg.Dt); i < n; i++ {
		x = st.Step(sys, x, cfg.Dt)
		if !x.IsValid() {
			return 0, &dynamo.NumericalFailure{Step: i + 1, Dt: cfg.Dt, State: x, Err: dynamo.ErrNonFinite}
		}
	}

	xp := x.Add(dynamo.State{cfg.D0, 0, 0})
	steps := int(cfg.Duration / cfg.Dt)
	var sum float64
	for i := 0; i < steps; i++ {
		x = st.Step(sys, x, cfg.Dt)
		xp = st.Step(sys, xp, cfg.Dt)
		if !x.IsValid() || !xp.IsValid() {
			return 0, &dynamo.NumericalFailure{Step: i + 1, Dt: cfg.Dt, State: x, Err: dynamo.ErrNonFinite}
		}

		d := xp.Sub(x)
		sep := d.Norm()
		if sep == 0 {
			return 0, fmt.Errorf("lyapunov: trajectories merged at step %d", i+1)
		}
		sum += math.Log(sep / cfg.D0)
		xp = x.AddScaled(d, cfg.D0/sep)
	}
	return sum / (float64(steps) * cfg.Dt), nil
}
