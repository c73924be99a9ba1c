package expr

import (
	"strconv"
	"strings"
)

// Node is an expression tree restricted to the accepted grammar.
type Node interface {
	Pos() int
	String() string
}

// Num is a numeric literal.
type Num struct {
	Value  float64
	Offset int
}

// Var is one of the state coordinates x, y or z.
type Var struct {
	Name   string
	Slot   int
	Offset int
}

// Ident is any other name: a parameter once bound.
type Ident struct {
	Name   string
	Offset int
}

type Unary struct {
	Op      TokenType
	Operand Node
	Offset  int
}

type Binary struct {
	Op     TokenType
	Left   Node
	Right  Node
	Offset int
}

type Call struct {
	Func   string
	Args   []Node
	Offset int
}

func (n *Num) Pos() int    { return n.Offset }
func (n *Var) Pos() int    { return n.Offset }
func (n *Ident) Pos() int  { return n.Offset }
func (n *Unary) Pos() int  { return n.Offset }
func (n *Binary) Pos() int { return n.Offset }
func (n *Call) Pos() int   { return n.Offset }

func (n *Num) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *Var) String() string   { return n.Name }
func (n *Ident) String() string { return n.Name }

func (n *Unary) String() string {
	return "(" + opSymbol(n.Op) + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + opSymbol(n.Op) + " " + n.Right.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Func + "(" + strings.Join(args, ", ") + ")"
}

func opSymbol(op TokenType) string {
	switch op {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case POW:
		return "**"
	}
	return "?"
}

// Walk visits n and its children depth-first, left to right.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Unary:
		Walk(n.Operand, fn)
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}
