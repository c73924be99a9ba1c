package analysis

import (
	"context"
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// BifurcationPoint holds the local maxima of one axis seen at one
// parameter value.
type BifurcationPoint struct {
	Param  float64
	Maxima []float64
}

// Binder builds the system for one value of the swept parameter.
type Binder func(value float64) (dynamo.System, error)

// SweepConfig controls Bifurcation.
type SweepConfig struct {
	Min, Max  float64
	Count     int
	Axis      int
	X0        dynamo.State
	Dt        float64
	Transient float64
	Record    float64
}

func (c SweepConfig) Validate() error {
	if !(c.Max > c.Min) {
		return dynamo.NewConfigError("max", c.Max, "must be greater than min")
	}
	if c.Count < 2 {
		return dynamo.NewConfigError("count", c.Count, "must be >= 2")
	}
	if c.Axis < 0 || c.Axis > 2 {
		return dynamo.NewConfigError("axis", c.Axis, "must be 0, 1 or 2")
	}
	if !(c.Dt > 0) {
		return dynamo.NewConfigError("dt", c.Dt, "must be > 0")
	}
	if !(c.Transient >= 0) {
		return dynamo.NewConfigError("transient", c.Transient, "must be >= 0")
	}
	if !(c.Record > 3*c.Dt) {
		return dynamo.NewConfigError("record", c.Record, "must cover more than three steps")
	}
	return nil
}

// Bifurcation sweeps a parameter over Count evenly spaced values. For each
// value it discards the transient and then records the local maxima of
// the chosen axis, quantised to 1e-3 so that a periodic orbit shows as a
// few points and chaos as a band. A value whose run blows up is reported
// with no maxima.
func Bifurcation(ctx context.Context, bind Binder, st dynamo.Stepper, cfg SweepConfig) ([]BifurcationPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	step := (cfg.Max - cfg.Min) / float64(cfg.Count-1)
	out := make([]BifurcationPoint, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		p := cfg.Min + float64(i)*step
		sys, err := bind(p)
		if err != nil {
			return nil, err
		}
		out = append(out, BifurcationPoint{Param: p, Maxima: maxima(sys, st, cfg)})
	}
	return out, nil
}

func maxima(sys dynamo.System, st dynamo.Stepper, cfg SweepConfig) []float64 {
	x := cfg.X0
	for i, n := 0, int(cfg.Transient/cfg.Dt); i < n; i++ {
		x = st.Step(sys, x, cfg.Dt)
		if !x.IsValid() {
			return nil
		}
	}

	seen := make(map[int64]bool)
	var vals []float64
	a := cfg.Axis
	prev2, prev := math.NaN(), x[a]
	for i, n := 0, int(cfg.Record/cfg.Dt); i < n; i++ {
		x = st.Step(sys, x, cfg.Dt)
		if !x.IsValid() {
			return nil
		}
		cur := x[a]
		if prev > prev2 && prev >= cur {
			key := int64(math.Round(prev * 1000))
			if !seen[key] {
				seen[key] = true
				vals = append(vals, prev)
			}
		}
		prev2, prev = prev, cur
	}
	return vals
}

// BifurcationPlot draws the diagram with the parameter on the horizontal
// axis.
func BifurcationPlot(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Maxima {
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
	}
	if math.IsInf(minV, 1) {
		return ""
	}
	if maxV == minV {
		maxV = minV + 1
	}

	c := newCanvas(width, height)
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Maxima {
			row := height - 1 - int((v-minV)/(maxV-minV)*float64(height-1))
			c.set(row, col, '•')
		}
	}
	return c.String()
}
