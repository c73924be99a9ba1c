package expr

import "fmt"

const (
	bpSum     = 10
	bpProduct = 20
	bpPrefix  = 30
	bpPower   = 40
)

var coordinates = map[string]int{"x": 0, "y": 1, "z": 2}

type parser struct {
	toks []Token
	pos  int
}

// Parse builds an expression tree from src. Anything outside the grammar
// (unknown functions, assignment, trailing tokens) is a *ParseError.
func Parse(src string) (Node, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, withSource(err, src)
	}
	p := &parser{toks: toks}
	if p.peek().Type == EOF {
		return nil, &ParseError{Source: src, Pos: 0, Reason: "empty expression"}
	}
	n, err := p.expr(0)
	if err != nil {
		return nil, withSource(err, src)
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, &ParseError{Source: src, Pos: tok.Pos, Reason: "unexpected " + tok.describe()}
	}
	return n, nil
}

func withSource(err error, src string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Source = src
	}
	return err
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) need(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, &ParseError{Pos: tok.Pos, Reason: fmt.Sprintf("expected %s, found %s", tt, tok.describe())}
	}
	return p.advance(), nil
}

func lbp(tt TokenType) int {
	switch tt {
	case PLUS, MINUS:
		return bpSum
	case STAR, SLASH, PERCENT:
		return bpProduct
	case POW:
		return bpPower
	}
	return 0
}

func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		bp := lbp(op.Type)
		if bp <= minBP {
			return left, nil
		}
		p.advance()

		rbp := bp
		if op.Type == POW {
			rbp = bp - 1
		}
		right, err := p.expr(rbp)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Type, Left: left, Right: right, Offset: op.Pos}
	}
}

func (p *parser) nud() (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case NUMBER:
		return &Num{Value: tok.Num, Offset: tok.Pos}, nil
	case IDENT:
		return p.name(tok)
	case PLUS, MINUS:
		operand, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: tok.Type, Operand: operand, Offset: tok.Pos}, nil
	case LPAREN:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, &ParseError{Pos: tok.Pos, Reason: "unexpected " + tok.describe()}
}

func (p *parser) name(tok Token) (Node, error) {
	if p.peek().Type == LPAREN {
		return p.call(tok)
	}
	if _, ok := functions[tok.Text]; ok {
		return nil, &ParseError{Pos: tok.Pos, Reason: fmt.Sprintf("function %q used without arguments", tok.Text)}
	}
	if slot, ok := coordinates[tok.Text]; ok {
		return &Var{Name: tok.Text, Slot: slot, Offset: tok.Pos}, nil
	}
	return &Ident{Name: tok.Text, Offset: tok.Pos}, nil
}

func (p *parser) call(tok Token) (Node, error) {
	fn, ok := functions[tok.Text]
	if !ok {
		return nil, &ParseError{Pos: tok.Pos, Reason: fmt.Sprintf("unknown function %q", tok.Text)}
	}
	p.advance() // (

	var args []Node
	if p.peek().Type != RPAREN {
		for {
			arg, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.need(RPAREN); err != nil {
		return nil, err
	}

	if len(args) < fn.minArgs || len(args) > fn.maxArgs {
		return nil, &ParseError{Pos: tok.Pos, Reason: fmt.Sprintf("%s expects %s, got %d", tok.Text, fn.arity(), len(args))}
	}
	return &Call{Func: tok.Text, Args: args, Offset: tok.Pos}, nil
}
