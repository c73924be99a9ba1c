package expr

import (
	"fmt"
	"math"
	"sort"
)

type function struct {
	minArgs int
	maxArgs int
	unary   func(float64) float64
	binary  func(a, b float64) float64
}

func (f function) arity() string {
	switch {
	case f.minArgs == f.maxArgs && f.minArgs == 1:
		return "1 argument"
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("%d arguments", f.minArgs)
	}
	return fmt.Sprintf("%d to %d arguments", f.minArgs, f.maxArgs)
}

func unaryFn(fn func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, unary: fn}
}

var functions = map[string]function{
	"sin":  unaryFn(math.Sin),
	"cos":  unaryFn(math.Cos),
	"tan":  unaryFn(math.Tan),
	"asin": unaryFn(math.Asin),
	"acos": unaryFn(math.Acos),
	"atan": unaryFn(math.Atan),
	"sinh": unaryFn(math.Sinh),
	"cosh": unaryFn(math.Cosh),
	"tanh": unaryFn(math.Tanh),
	"exp":  unaryFn(math.Exp),
	"sqrt": unaryFn(math.Sqrt),
	"fabs": unaryFn(math.Abs),
	"log": {
		minArgs: 1, maxArgs: 2,
		unary:  math.Log,
		binary: func(x, base float64) float64 { return math.Log(x) / math.Log(base) },
	},
	"pow": {minArgs: 2, maxArgs: 2, binary: math.Pow},
}

// Functions returns the accepted function names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsReserved reports whether name cannot be used as a parameter.
func IsReserved(name string) bool {
	if _, ok := coordinates[name]; ok {
		return true
	}
	_, ok := functions[name]
	return ok
}

// floorMod has the sign of the divisor. A zero divisor yields NaN.
func floorMod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func applyBinary(op TokenType, a, b float64) float64 {
	switch op {
	case PLUS:
		return a + b
	case MINUS:
		return a - b
	case STAR:
		return a * b
	case SLASH:
		return a / b
	case PERCENT:
		return floorMod(a, b)
	case POW:
		return math.Pow(a, b)
	}
	return math.NaN()
}
