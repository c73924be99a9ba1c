package config

import "sort"

// Presets are named integrator settings that can be layered under a run
// file or command-line flags.
var Presets = map[string]*Run{
	"preview": {
		Method: "rk4", Dt: ptr(0.02), Steps: ptr(3000), BurnIn: ptr(100),
	},
	"standard": {
		Method: "rk4", Dt: ptr(0.01), Steps: ptr(20000), BurnIn: ptr(500),
	},
	"fine": {
		Method: "rk4", Dt: ptr(0.002), Steps: ptr(100000), BurnIn: ptr(2500),
	},
	"adaptive": {
		Method: "dp5", Tolerance: ptr(1e-6), MinStep: ptr(1e-6), MaxStep: ptr(0.05), Steps: ptr(20000), BurnIn: ptr(500),
	},
	"draft": {
		Method: "rk4", Dt: ptr(0.01), Steps: ptr(700), BurnIn: ptr(0),
	},
}

func ptr[T any](v T) *T { return &v }

// clone copies the value behind p so presets never share storage with the
// runs built from them.
func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

// GetPreset returns a copy of the named preset applied to system, or nil.
func GetPreset(name, system string) *Run {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	out := DefaultRun()
	out.System = system
	out.Method = p.Method
	out.Dt = clone(p.Dt)
	out.Steps = clone(p.Steps)
	out.Tolerance = clone(p.Tolerance)
	out.MinStep = clone(p.MinStep)
	out.MaxStep = clone(p.MaxStep)
	out.BurnIn = clone(p.BurnIn)
	return out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
