package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/system"
)

const (
	LibraryDir  = "AttractorBuilder"
	LibraryFile = "custom_attractors.json"

	DefaultSystem = "Lorenz"
	DefaultScale  = 1.0
)

// Run is a YAML run file. Integrator fields left unset (nil) fall back to
// the system's own defaults; a set field is validated even when zero.
type Run struct {
	System    string             `yaml:"system"`
	Method    string             `yaml:"method,omitempty"`
	Dt        *float64           `yaml:"dt,omitempty"`
	Steps     *int               `yaml:"steps,omitempty"`
	BurnIn    *int               `yaml:"burn_in,omitempty"`
	Tolerance *float64           `yaml:"tolerance,omitempty"`
	MinStep   *float64           `yaml:"min_step,omitempty"`
	MaxStep   *float64           `yaml:"max_step,omitempty"`
	Horizon   float64            `yaml:"horizon,omitempty"`
	Seed      int64              `yaml:"seed,omitempty"`
	Initial   *[3]float64        `yaml:"initial,omitempty,flow"`
	Params    map[string]float64 `yaml:"params,omitempty"`
	Scale     float64            `yaml:"scale"`
	Center    bool               `yaml:"center,omitempty"`
	Post      PostConfig         `yaml:"post"`
	Output    string             `yaml:"output,omitempty"`
}

// PostConfig lists the post-processing steps in the order they run: trim,
// percent trim, stride, resample, Douglas-Peucker, smoothing.
type PostConfig struct {
	TrimHead  int      `yaml:"trim_head,omitempty"`
	TrimTail  int      `yaml:"trim_tail,omitempty"`
	TrimStart float64  `yaml:"trim_start"`
	TrimEnd   float64  `yaml:"trim_end"`
	Stride    int      `yaml:"stride,omitempty"`
	Resample  int      `yaml:"resample,omitempty"`
	RDP       float64  `yaml:"rdp,omitempty"`
	Smooth    *float64 `yaml:"smooth,omitempty"`
	Samples   int      `yaml:"samples,omitempty"`
}

func DefaultRun() *Run {
	return &Run{
		System: DefaultSystem,
		Scale:  DefaultScale,
		Post:   PostConfig{TrimStart: 0, TrimEnd: 100},
	}
}

func Load(path string) (*Run, error) {
	return LoadOver(path, DefaultRun())
}

// LoadOver decodes the file at path on top of base, so fields the file
// leaves out keep base's values. base is modified and returned.
func LoadOver(path string, base *Run) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Run) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every set field against its accepted range.
func (c *Run) Validate() error {
	if c.System == "" {
		return dynamo.NewConfigError("system", c.System, "must not be empty")
	}
	if c.Method != "" {
		if _, err := dynamo.ParseMethod(c.Method); err != nil {
			return err
		}
	}

	checks := []struct {
		field string
		value *float64
		min   float64
	}{
		{"dt", c.Dt, dynamo.MinDt},
		{"tolerance", c.Tolerance, dynamo.MinTolerance},
		{"min_step", c.MinStep, dynamo.MinMinStep},
		{"max_step", c.MaxStep, dynamo.MinMaxStep},
	}
	for _, chk := range checks {
		if chk.value == nil {
			continue
		}
		if v := *chk.value; !(v >= chk.min) || math.IsInf(v, 0) {
			return dynamo.NewConfigError(chk.field, v, fmt.Sprintf("must be a finite value >= %g", chk.min))
		}
	}
	// zero steps is only meaningful for an adaptive run bounded by horizon
	if c.Steps != nil && *c.Steps < 1 && !(*c.Steps == 0 && c.Horizon > 0) {
		return dynamo.NewConfigError("steps", *c.Steps, "must be >= 1")
	}
	if c.BurnIn != nil && *c.BurnIn < 0 {
		return dynamo.NewConfigError("burn_in", *c.BurnIn, "must be >= 0")
	}
	if !(c.Horizon >= 0) {
		return dynamo.NewConfigError("horizon", c.Horizon, "must be >= 0")
	}
	if c.Initial != nil && !dynamo.State(*c.Initial).IsValid() {
		return dynamo.NewConfigError("initial", *c.Initial, "must be finite")
	}
	for name, v := range c.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.NewConfigError("params", name, "value must be finite")
		}
	}
	if !(c.Scale >= system.MinScale) {
		return dynamo.NewConfigError("scale", c.Scale, "must be >= 0.001")
	}
	return c.Post.Validate()
}

func (p PostConfig) Validate() error {
	switch {
	case p.TrimHead < 0:
		return dynamo.NewConfigError("trim_head", p.TrimHead, "must be >= 0")
	case p.TrimTail < 0:
		return dynamo.NewConfigError("trim_tail", p.TrimTail, "must be >= 0")
	case !(p.TrimStart >= 0 && p.TrimStart <= 100):
		return dynamo.NewConfigError("trim_start", p.TrimStart, "must be in [0, 100]")
	case !(p.TrimEnd >= 0 && p.TrimEnd <= 100):
		return dynamo.NewConfigError("trim_end", p.TrimEnd, "must be in [0, 100]")
	case p.Stride < 0:
		return dynamo.NewConfigError("stride", p.Stride, "must be >= 1")
	case p.Resample < 0 || p.Resample == 1:
		return dynamo.NewConfigError("resample", p.Resample, "must be >= 2")
	case !(p.RDP >= 0) || math.IsInf(p.RDP, 0):
		return dynamo.NewConfigError("rdp", p.RDP, "must be finite and >= 0")
	case p.Smooth != nil && !(*p.Smooth >= 0 && *p.Smooth <= 1):
		return dynamo.NewConfigError("smooth", *p.Smooth, "must be in [0, 1]")
	case p.Samples < 0 || p.Samples == 1:
		return dynamo.NewConfigError("samples", p.Samples, "must be >= 2")
	}
	return nil
}

// Experiment converts the integrator part of the file into overrides.
func (c *Run) Experiment() experiment.Config {
	cfg := experiment.Config{
		Method:    c.Method,
		Dt:        c.Dt,
		Steps:     c.Steps,
		BurnIn:    c.BurnIn,
		Tolerance: c.Tolerance,
		MinStep:   c.MinStep,
		MaxStep:   c.MaxStep,
		Horizon:   c.Horizon,
		Params:    c.Params,
		Seed:      c.Seed,
	}
	if c.Initial != nil {
		x0 := dynamo.State(*c.Initial)
		cfg.Initial = &x0
	}
	return cfg
}

// DefaultLibraryPath is <user config dir>/AttractorBuilder/custom_attractors.json,
// falling back to the working directory when no config dir is known.
func DefaultLibraryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, LibraryDir, LibraryFile)
}
