package expr

import "fmt"

type TokenType int

const (
	EOF TokenType = iota
	NUMBER
	IDENT
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	POW
	LPAREN
	RPAREN
	COMMA
)

var tokenNames = map[TokenType]string{
	EOF:     "end of input",
	NUMBER:  "number",
	IDENT:   "identifier",
	PLUS:    "'+'",
	MINUS:   "'-'",
	STAR:    "'*'",
	SLASH:   "'/'",
	PERCENT: "'%'",
	POW:     "'**'",
	LPAREN:  "'('",
	RPAREN:  "')'",
	COMMA:   "','",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexeme with its byte offset in the source.
type Token struct {
	Type TokenType
	Text string
	Num  float64
	Pos  int
}

func (t Token) describe() string {
	switch t.Type {
	case NUMBER:
		return fmt.Sprintf("number %s", t.Text)
	case IDENT:
		return fmt.Sprintf("identifier %q", t.Text)
	}
	return t.Type.String()
}
