package expr

import (
	"fmt"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Axes labels the three equations of a system in order.
var Axes = [3]string{"dx", "dy", "dz"}

type evalFn func(env []float64) float64

// Compiled is an expression bound to slot indices: x, y, z occupy slots
// 0..2 and parameter i occupies slot 3+i.
type Compiled struct {
	Source string
	Params []string
	eval   evalFn
}

// Eval evaluates the expression at one point. Domain errors yield NaN or
// Inf rather than failing.
func (c *Compiled) Eval(x, y, z float64, params []float64) float64 {
	env := make([]float64, 3+len(c.Params))
	env[0], env[1], env[2] = x, y, z
	copy(env[3:], params)
	return c.eval(env)
}

// Compile parses src and binds every name to a slot. Names other than
// x, y, z and params are rejected.
func Compile(src string, params []string) (*Compiled, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	slots := make(map[string]int, len(params))
	for i, name := range params {
		if IsReserved(name) {
			return nil, &ParseError{Source: src, Reason: fmt.Sprintf("parameter name %q is reserved", name)}
		}
		slots[name] = 3 + i
	}
	c := &compiler{src: src, slots: slots}
	fn, err := c.compile(root)
	if err != nil {
		return nil, err
	}
	return &Compiled{Source: src, Params: append([]string(nil), params...), eval: fn}, nil
}

type compiler struct {
	src   string
	slots map[string]int
}

func (c *compiler) compile(n Node) (evalFn, error) {
	fn, _, err := c.fold(n)
	return fn, err
}

// fold compiles n and reports whether it is constant so that constant
// subtrees collapse to a single value.
func (c *compiler) fold(n Node) (evalFn, bool, error) {
	switch n := n.(type) {
	case *Num:
		v := n.Value
		return func([]float64) float64 { return v }, true, nil

	case *Var:
		slot := n.Slot
		return func(env []float64) float64 { return env[slot] }, false, nil

	case *Ident:
		slot, ok := c.slots[n.Name]
		if !ok {
			return nil, false, &ParseError{Source: c.src, Pos: n.Offset, Reason: fmt.Sprintf("unknown identifier %q", n.Name)}
		}
		return func(env []float64) float64 { return env[slot] }, false, nil

	case *Unary:
		operand, isConst, err := c.fold(n.Operand)
		if err != nil {
			return nil, false, err
		}
		var fn evalFn
		if n.Op == MINUS {
			fn = func(env []float64) float64 { return -operand(env) }
		} else {
			fn = operand
		}
		return constant(fn, isConst), isConst, nil

	case *Binary:
		left, lc, err := c.fold(n.Left)
		if err != nil {
			return nil, false, err
		}
		right, rc, err := c.fold(n.Right)
		if err != nil {
			return nil, false, err
		}
		fn := binaryFn(n.Op, left, right)
		return constant(fn, lc && rc), lc && rc, nil

	case *Call:
		f := functions[n.Func]
		args := make([]evalFn, len(n.Args))
		allConst := true
		for i, a := range n.Args {
			fn, isConst, err := c.fold(a)
			if err != nil {
				return nil, false, err
			}
			args[i] = fn
			allConst = allConst && isConst
		}
		var fn evalFn
		if len(args) == 1 {
			g, a := f.unary, args[0]
			fn = func(env []float64) float64 { return g(a(env)) }
		} else {
			g, a, b := f.binary, args[0], args[1]
			fn = func(env []float64) float64 { return g(a(env), b(env)) }
		}
		return constant(fn, allConst), allConst, nil
	}
	return nil, false, &ParseError{Source: c.src, Pos: n.Pos(), Reason: fmt.Sprintf("unsupported node %T", n)}
}

func constant(fn evalFn, isConst bool) evalFn {
	if !isConst {
		return fn
	}
	v := fn(nil)
	return func([]float64) float64 { return v }
}

func binaryFn(op TokenType, left, right evalFn) evalFn {
	switch op {
	case PLUS:
		return func(env []float64) float64 { return left(env) + right(env) }
	case MINUS:
		return func(env []float64) float64 { return left(env) - right(env) }
	case STAR:
		return func(env []float64) float64 { return left(env) * right(env) }
	case SLASH:
		return func(env []float64) float64 { return left(env) / right(env) }
	}
	return func(env []float64) float64 { return applyBinary(op, left(env), right(env)) }
}

// Field is a compiled system of three equations sharing one parameter
// layout.
type Field struct {
	Params []string
	exprs  [3]*Compiled
}

// CompileSystem compiles dx, dy, dz against the declared parameters. The
// returned error is a *ParseError naming the failing axis.
func CompileSystem(equations [3]string, params []string) (*Field, error) {
	f := &Field{Params: append([]string(nil), params...)}
	for i, src := range equations {
		c, err := Compile(src, params)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				return nil, pe.withAxis(Axes[i])
			}
			return nil, err
		}
		f.exprs[i] = c
	}
	return f, nil
}

func (f *Field) Equation(i int) *Compiled { return f.exprs[i] }

// Bind fixes parameter values in declaration order and returns a
// dynamo.System. Each Bound owns its slot buffer; bind once per run.
func (f *Field) Bind(values []float64) (*Bound, error) {
	if len(values) != len(f.Params) {
		return nil, fmt.Errorf("expr: %d parameter values for %d parameters", len(values), len(f.Params))
	}
	env := make([]float64, 3+len(values))
	copy(env[3:], values)
	return &Bound{
		env: env,
		fx:  f.exprs[0].eval,
		fy:  f.exprs[1].eval,
		fz:  f.exprs[2].eval,
	}, nil
}

// BindParams binds by name; every declared parameter needs a value.
func (f *Field) BindParams(p Params) (*Bound, error) {
	values := make([]float64, len(f.Params))
	for i, name := range f.Params {
		v, ok := p.Get(name)
		if !ok {
			return nil, fmt.Errorf("expr: parameter %q has no value", name)
		}
		values[i] = v
	}
	return f.Bind(values)
}

// Bound is a Field with fixed parameters. It is not safe for concurrent
// use.
type Bound struct {
	env        []float64
	fx, fy, fz evalFn
}

func (b *Bound) Derive(x dynamo.State) dynamo.State {
	b.env[0], b.env[1], b.env[2] = x[0], x[1], x[2]
	return dynamo.State{b.fx(b.env), b.fy(b.env), b.fz(b.env)}
}
