package system

import (
	"sort"
	"strings"
	"sync"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
)

type builtinSpec struct {
	name    string
	eqs     [3]string
	params  expr.Params
	initial dynamo.State
	dt      float64
	note    string
}

var builtinSpecs = []builtinSpec{
	{
		name:    "Lorenz",
		eqs:     [3]string{"sigma*(y - x)", "x*(rho - z) - y", "x*y - beta*z"},
		params:  expr.Params{{Name: "sigma", Value: 10}, {Name: "rho", Value: 28}, {Name: "beta", Value: 8.0 / 3.0}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.01,
		note:    "Edward Lorenz's 1963 model of atmospheric convection. The classic *butterfly*.",
	},
	{
		name:    "Rossler",
		eqs:     [3]string{"-y - z", "x + a*y", "b + z*(x - c)"},
		params:  expr.Params{{Name: "a", Value: 0.2}, {Name: "b", Value: 0.2}, {Name: "c", Value: 5.7}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.02,
		note:    "Otto Rössler's single-band spiral attractor (1976).",
	},
	{
		name: "Aizawa",
		eqs: [3]string{
			"(z - b)*x - d*y",
			"d*x + (z - b)*y",
			"c + a*z - z**3/3 - (x**2 + y**2)*(1 + e*z) + f*z*x**3",
		},
		params: expr.Params{
			{Name: "b", Value: 0.7}, {Name: "d", Value: 3.5}, {Name: "c", Value: 0.6},
			{Name: "a", Value: 0.95}, {Name: "e", Value: 0.25}, {Name: "f", Value: 0.1},
		},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.01,
		note:    "A sphere pierced by a tube along the z axis.",
	},
	{
		name:    "Thomas",
		eqs:     [3]string{"sin(y) - b*x", "sin(z) - b*y", "sin(x) - b*z"},
		params:  expr.Params{{Name: "b", Value: 0.208186}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.05,
		note:    "René Thomas' cyclically symmetric attractor.",
	},
	{
		name: "Halvorsen",
		eqs: [3]string{
			"-a*x - 4*y - 4*z - y**2",
			"-a*y - 4*z - 4*x - z**2",
			"-a*z - 4*x - 4*y - x**2",
		},
		params:  expr.Params{{Name: "a", Value: 1.89}},
		initial: dynamo.State{-1.48, -1.51, 2.04},
		dt:      0.005,
		note:    "Cyclically symmetric three-lobed attractor.",
	},
	{
		name:    "Chen",
		eqs:     [3]string{"a*(y - x)", "(c - a)*x - x*z + c*y", "x*y - b*z"},
		params:  expr.Params{{Name: "a", Value: 35}, {Name: "c", Value: 28}, {Name: "b", Value: 3}},
		initial: dynamo.State{-10, 0, 37},
		dt:      0.002,
		note:    "Guanrong Chen's dual of the Lorenz system (1999).",
	},
	{
		name:    "Dadras",
		eqs:     [3]string{"y - a*x + b*y*z", "c*y - x*z + z", "d*x*y - e*z"},
		params:  expr.Params{{Name: "a", Value: 3}, {Name: "b", Value: 2.7}, {Name: "c", Value: 1.7}, {Name: "d", Value: 2}, {Name: "e", Value: 9}},
		initial: dynamo.State{1.1, 2.1, -2},
		dt:      0.005,
		note:    "Dadras and Momeni's four-wing attractor.",
	},
	{
		name:    "Sprott B",
		eqs:     [3]string{"a*y*z", "x - b*y", "c - x*y"},
		params:  expr.Params{{Name: "a", Value: 0.4}, {Name: "b", Value: 1.2}, {Name: "c", Value: 1}},
		initial: dynamo.State{0.1, 0.1, 0.1},
		dt:      0.02,
		note:    "One of Sprott's minimal quadratic flows.",
	},
	{
		name: "Chua",
		eqs: [3]string{
			"alpha*(y - x - (m1*x + 0.5*(m0 - m1)*(fabs(x + 1) - fabs(x - 1))))",
			"x - y + z",
			"-beta*y",
		},
		params: expr.Params{
			{Name: "alpha", Value: 15.6}, {Name: "m1", Value: -0.714},
			{Name: "m0", Value: -1.143}, {Name: "beta", Value: 28},
		},
		initial: dynamo.State{0.7, 0, 0},
		dt:      0.005,
		note:    "Chua's circuit with its piecewise-linear diode. The *double scroll*.",
	},
	{
		name:    "Lorenz 84",
		eqs:     [3]string{"-a*x - y**2 - z**2 + a*f", "-y + x*y - b*x*z + g", "-z + b*x*y + x*z"},
		params:  expr.Params{{Name: "a", Value: 0.95}, {Name: "f", Value: 4.83}, {Name: "b", Value: 7.91}, {Name: "g", Value: 4.66}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.01,
		note:    "Lorenz's 1984 model of the general atmospheric circulation.",
	},
	{
		name:    "Rabinovich-Fabrikant",
		eqs:     [3]string{"y*(z - 1 + x**2) + gamma*x", "x*(3*z + 1 - x**2) + gamma*y", "-2*z*(alpha + x*y)"},
		params:  expr.Params{{Name: "gamma", Value: 0.1}, {Name: "alpha", Value: 0.14}},
		initial: dynamo.State{-1, 0, 0.5},
		dt:      0.005,
		note:    "Stiff near its fixed points; prefer an adaptive method.",
	},
	{
		name:    "Three-Scroll",
		eqs:     [3]string{"a*(y - x) + d*x*z", "b*x - x*z + f*y", "c*z + x*y - e*x**2"},
		params:  expr.Params{{Name: "a", Value: 40}, {Name: "d", Value: 0.16}, {Name: "b", Value: 55}, {Name: "f", Value: 20}, {Name: "c", Value: 1.833}, {Name: "e", Value: 0.65}},
		initial: dynamo.State{-0.29, -0.25, -0.59},
		dt:      0.0005,
		note:    "Three-scroll unified chaotic system (TSUCS1).",
	},
	{
		name:    "Arneodo",
		eqs:     [3]string{"y", "z", "-a*x - b*y - z + d*x**3"},
		params:  expr.Params{{Name: "a", Value: -5.5}, {Name: "b", Value: 3.5}, {Name: "d", Value: -1}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.01,
	},
	{
		name:    "Nose-Hoover",
		eqs:     [3]string{"y", "-x + y*z", "a - y**2"},
		params:  expr.Params{{Name: "a", Value: 1}},
		initial: dynamo.State{0.1, 0, 0},
		dt:      0.01,
		note:    "Sprott case A: a conservative thermostatted oscillator.",
	},
}

var (
	builtinOnce  sync.Once
	builtinTable map[string]Definition
	builtinOrder []string
)

func loadBuiltins() {
	builtinTable = make(map[string]Definition, len(builtinSpecs))
	for _, s := range builtinSpecs {
		defaults := DefaultRunDefaults()
		defaults.Dt = s.dt
		builtinTable[s.name] = Definition{
			ID:        "builtin:" + strings.ToLower(strings.ReplaceAll(s.name, " ", "-")),
			Name:      s.name,
			Equations: s.eqs,
			Params:    s.params,
			Initial:   s.initial,
			Origin:    Builtin,
			Note:      s.note,
			Defaults:  defaults,
		}
		builtinOrder = append(builtinOrder, s.name)
	}
	SortBuiltinNames(builtinOrder)
}

// SortBuiltinNames orders names with Lorenz first and the rest
// alphabetically, ignoring case.
func SortBuiltinNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if (li == "lorenz") != (lj == "lorenz") {
			return li == "lorenz"
		}
		return li < lj
	})
}

// Builtins returns copies of the built-in systems in display order.
func Builtins() []Definition {
	builtinOnce.Do(loadBuiltins)
	out := make([]Definition, 0, len(builtinOrder))
	for _, name := range builtinOrder {
		out = append(out, builtinTable[name].Clone())
	}
	return out
}

// LookupBuiltin returns a copy of the named built-in system.
func LookupBuiltin(name string) (Definition, bool) {
	builtinOnce.Do(loadBuiltins)
	d, ok := builtinTable[name]
	if !ok {
		return Definition{}, false
	}
	return d.Clone(), true
}

// IsBuiltinName reports whether name is taken by a built-in system.
func IsBuiltinName(name string) bool {
	_, ok := LookupBuiltin(name)
	return ok
}
