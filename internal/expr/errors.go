package expr

import (
	"fmt"
	"strings"
)

// ParseError reports an expression outside the accepted grammar. Axis
// names the equation (dx, dy or dz) when the error came from a system.
type ParseError struct {
	Axis   string
	Source string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s at col %d", e.Reason, e.Pos+1)
	if e.Axis != "" {
		return e.Axis + ": " + msg
	}
	return msg
}

// Snippet renders the offending source line with a caret under the
// error column.
func (e *ParseError) Snippet() string {
	if e.Source == "" {
		return ""
	}
	line := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(e.Source)
	col := e.Pos
	if col > len(line) {
		col = len(line)
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(line)
	b.WriteString("\n  ")
	b.WriteString(strings.Repeat(" ", col))
	b.WriteString("^")
	return b.String()
}

func (e *ParseError) withAxis(axis string) *ParseError {
	e.Axis = axis
	return e
}
