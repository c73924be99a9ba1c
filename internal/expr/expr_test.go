package expr

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/san-kum/attractor/internal/dynamo"
)

func TestParseAccepts(t *testing.T) {
	tests := []string{
		"sigma*(y - x)",
		"x*(rho - z) - y",
		"x*y - beta*z",
		"-x**2",
		"2**-1",
		"+x - -y",
		"pow(x, 2) + fabs(y)",
		"log(x, 2) + log(z)",
		"1e-3*x + 2.5E+2",
		".5*y + 5.*z",
		"sin(x) % 2",
		"tanh(asin(cos(acos(sinh(cosh(atan(tan(exp(sqrt(x))))))))))",
		"  x\t+ y ",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, err := Parse(src); err != nil {
				t.Errorf("Parse(%q) failed: %v", src, err)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{"assignment", "x = 1", "assignment"},
		{"import", "__import__('os')", "disallowed character"},
		{"conditional", "x if y else z", "unexpected identifier"},
		{"unknown function", "foo(x)", "unknown function"},
		{"bare function", "sin + 1", "without arguments"},
		{"caret power", "x ^ 2", "'^' is not allowed"},
		{"empty", "   ", "empty expression"},
		{"unclosed paren", "(x + y", "expected ')'"},
		{"dangling operator", "x +", "unexpected end of input"},
		{"pow arity", "pow(x)", "expects 2 arguments"},
		{"sin arity", "sin(x, y)", "expects 1 argument"},
		{"log arity", "log()", "expects 1 to 2 arguments"},
		{"malformed exponent", "1e+", "malformed number"},
		{"lambda", "lambda: 0", "disallowed character"},
		{"statement", "x; y", "disallowed character"},
		{"subscript", "[x]", "disallowed character"},
		{"attribute", "math.pi", "disallowed character"},
		{"implicit product", "2x", "unexpected identifier"},
		{"call on expression", "(x)(y)", "unexpected '('"},
		{"non-ascii letter", "x*é", "disallowed character 'é'"},
		{"greek letter", "σ*(y - x)", "disallowed character 'σ'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) = %v, want ParseError", tt.src, err)
			}
			if !strings.Contains(pe.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", pe.Reason, tt.reason)
			}
		})
	}
}

func TestCompileUnknownIdentifier(t *testing.T) {
	_, err := Compile("a*x + b", []string{"a"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Reason != `unknown identifier "b"` {
		t.Errorf("unexpected reason: %s", pe.Reason)
	}
	if pe.Pos != 6 {
		t.Errorf("pos = %d, want 6", pe.Pos)
	}
}

func TestCompileReservedParam(t *testing.T) {
	if _, err := Compile("x", []string{"sin"}); err == nil {
		t.Error("expected reserved parameter name to be rejected")
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		src     string
		x, y, z float64
		params  []string
		values  []float64
		want    float64
	}{
		{"2*3+4", 0, 0, 0, nil, nil, 10},
		{"2+3*4", 0, 0, 0, nil, nil, 14},
		{"10-4-3", 0, 0, 0, nil, nil, 3},
		{"100/10/5", 0, 0, 0, nil, nil, 2},
		{"-x**2", 3, 0, 0, nil, nil, -9},
		{"(-x)**2", 3, 0, 0, nil, nil, 9},
		{"2**3**2", 0, 0, 0, nil, nil, 512},
		{"2**-1", 0, 0, 0, nil, nil, 0.5},
		{"7 % 3", 0, 0, 0, nil, nil, 1},
		{"-7 % 3", 0, 0, 0, nil, nil, 2},
		{"7 % -3", 0, 0, 0, nil, nil, -2},
		{"log(8, 2)", 0, 0, 0, nil, nil, 3},
		{"fabs(x - y)", 1, 4, 0, nil, nil, 3},
		{"pow(y, 3)", 0, 2, 0, nil, nil, 8},
		{"sigma*(y - x)", 1, 2, 0, []string{"sigma"}, []float64{10}, 10},
		{"x*(rho - z) - y", 1, 1, 1, []string{"rho"}, []float64{28}, 26},
		{"a*x + b*y + c*z", 1, 2, 3, []string{"a", "b", "c"}, []float64{1, 10, 100}, 321},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			c, err := Compile(tt.src, tt.params)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got := c.Eval(tt.x, tt.y, tt.z, tt.values)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalDomainErrors(t *testing.T) {
	tests := []struct {
		src string
		x   float64
	}{
		{"1/x", 0},
		{"log(x)", -1},
		{"log(x)", 0},
		{"sqrt(x)", -1},
		{"x % 0", 5},
		{"asin(x)", 2},
		{"acos(x)", -2},
		{"pow(x, 0.5)", -1},
		{"x ** -1", 0},
		{"exp(x)", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			c, err := Compile(tt.src, nil)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			v := c.Eval(tt.x, 0, 0, nil)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				t.Errorf("Eval(%v) = %v, want non-finite", tt.x, v)
			}
		})
	}
}

func TestCompileSystemAxis(t *testing.T) {
	_, err := CompileSystem([3]string{"y", "-x", "q*z"}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Axis != "dz" {
		t.Errorf("axis = %q, want dz", pe.Axis)
	}
	if pe.Error() != `dz: unknown identifier "q" at col 1` {
		t.Errorf("unexpected message: %s", pe.Error())
	}
}

func TestParseErrorSnippet(t *testing.T) {
	_, err := Compile("sigma*(y - q)", []string{"sigma"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	lines := strings.Split(pe.Snippet(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", pe.Snippet())
	}
	if strings.Index(lines[1], "^") != strings.Index(lines[0], "q") {
		t.Errorf("caret misplaced:\n%s", pe.Snippet())
	}
}

func TestBoundDerive(t *testing.T) {
	f, err := CompileSystem([3]string{"sigma*(y - x)", "x*(rho - z) - y", "x*y - beta*z"}, []string{"sigma", "rho", "beta"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	sys, err := f.Bind([]float64{10, 28, 8.0 / 3.0})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	got := sys.Derive(dynamo.State{1, 2, 3})
	want := dynamo.State{10, 1*(28-3) - 2, 1*2 - 8.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := f.Bind([]float64{1}); err == nil {
		t.Error("expected error for wrong parameter count")
	}
	if _, err := f.BindParams(Params{{Name: "sigma", Value: 10}}); err == nil {
		t.Error("expected error for missing parameter value")
	}
}

func TestDetectParams(t *testing.T) {
	lorenz := [3]string{"sigma*(y - x)", "x*(rho - z) - y", "x*y - beta*z"}

	tests := []struct {
		name     string
		eqs      [3]string
		existing Params
		want     Params
	}{
		{
			name: "lorenz defaults",
			eqs:  lorenz,
			want: Params{{"sigma", 1}, {"rho", 1}, {"beta", 1}},
		},
		{
			name:     "keeps existing values and drops stale names",
			eqs:      lorenz,
			existing: Params{{"rho", 28}, {"gone", 5}, {"sigma", 10}},
			want:     Params{{"sigma", 10}, {"rho", 28}, {"beta", 1}},
		},
		{
			name: "first appearance across axes",
			eqs:  [3]string{"a*x + b", "c*y + a", "b*z + d"},
			want: Params{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}},
		},
		{
			name: "functions and coordinates are not parameters",
			eqs:  [3]string{"sin(omega*x)", "pow(y, k)", "z"},
			want: Params{{"omega", 1}, {"k", 1}},
		},
		{
			name: "no parameters",
			eqs:  [3]string{"y", "-x", "0"},
			want: Params{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectParams(tt.eqs, tt.existing)
			if err != nil {
				t.Fatalf("DetectParams: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectParams = %v, want %v", got, tt.want)
			}

			again, err := DetectParams(tt.eqs, got)
			if err != nil {
				t.Fatalf("second DetectParams: %v", err)
			}
			if !reflect.DeepEqual(again, got) {
				t.Errorf("detection not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestDetectParamsParseError(t *testing.T) {
	_, err := DetectParams([3]string{"x", "y +", "z"}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Axis != "dy" {
		t.Fatalf("expected dy ParseError, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("a**2 - .5e1*y")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenType{IDENT, POW, NUMBER, MINUS, NUMBER, STAR, IDENT, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
	if toks[4].Num != 5 || toks[4].Pos != 7 {
		t.Errorf("number token = %+v", toks[4])
	}

	for _, src := range []string{"x ^ 2", "x = 1", "x $ y", "1e+"} {
		_, err := Tokenize(src)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Tokenize(%q) error = %v, want *ParseError", src, err)
		}
	}
}

func TestFreeIdentifiers(t *testing.T) {
	var nodes []Node
	for _, src := range []string{"b*x + sin(a)", "a*y - c", "z*b"} {
		n, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		nodes = append(nodes, n)
	}
	got := FreeIdentifiers(nodes...)
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeIdentifiers = %v, want %v", got, want)
	}
}
