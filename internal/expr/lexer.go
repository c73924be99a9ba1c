package expr

import (
	"strconv"
	"unicode/utf8"
)

type lexer struct {
	src  string
	pos  int
	toks []Token
}

// Tokenize splits an expression into tokens. Characters outside the
// grammar are rejected here, before any tree is built.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			lx.toks = append(lx.toks, Token{Type: EOF, Pos: lx.pos})
			return lx.toks, nil
		}
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\n', '\r':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) emit(tt TokenType, start int) {
	lx.toks = append(lx.toks, Token{Type: tt, Text: lx.src[start:lx.pos], Pos: start})
}

func (lx *lexer) next() error {
	start := lx.pos
	c := lx.src[lx.pos]
	switch {
	case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
		return lx.number()
	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		lx.emit(IDENT, start)
		return nil
	}

	lx.pos++
	switch c {
	case '+':
		lx.emit(PLUS, start)
	case '-':
		lx.emit(MINUS, start)
	case '*':
		if lx.pos < len(lx.src) && lx.src[lx.pos] == '*' {
			lx.pos++
			lx.emit(POW, start)
		} else {
			lx.emit(STAR, start)
		}
	case '/':
		lx.emit(SLASH, start)
	case '%':
		lx.emit(PERCENT, start)
	case '(':
		lx.emit(LPAREN, start)
	case ')':
		lx.emit(RPAREN, start)
	case ',':
		lx.emit(COMMA, start)
	case '^':
		return &ParseError{Pos: start, Reason: "operator '^' is not allowed, use '**'"}
	case '=':
		return &ParseError{Pos: start, Reason: "assignment and comparison are not allowed"}
	default:
		r, _ := utf8.DecodeRuneInString(lx.src[start:])
		return &ParseError{Pos: start, Reason: "disallowed character " + strconv.QuoteRune(r)}
	}
	return nil
}

func (lx *lexer) number() error {
	start := lx.pos
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		lx.pos++
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		digits := lx.pos
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
		if lx.pos == digits {
			return &ParseError{Pos: start, Reason: "malformed number " + strconv.Quote(lx.src[start:lx.pos])}
		}
	}

	text := lx.src[start:lx.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &ParseError{Pos: start, Reason: "malformed number " + strconv.Quote(text)}
	}
	lx.toks = append(lx.toks, Token{Type: NUMBER, Text: text, Num: v, Pos: start})
	return nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
