// Package diag carries the fatal diagnostics of the assembler. A stage that
// hits one stops and returns it; only the driver prints it and exits.
package diag

import (
	"fmt"
	"io"
	"strings"

	"gas64/internal/token"
)

type Kind int

const (
	Parse Kind = iota
	Encode
	Link
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Encode:
		return "encode"
	case Link:
		return "link"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Tok  token.Token
	Msg  string
}

func Errorf(kind Kind, tok token.Token, format string, args ...any) *Error {
	return &Error{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: error: %s", e.Tok.Pos, e.Msg)
}

// Print writes e in the compiler's usual form:
//
//	file:line:col: error: message
//	 source line
//	     ^
func Print(w io.Writer, e *Error) {
	fmt.Fprintln(w, e.Error())
	fmt.Fprintf(w, " %s\n", e.Tok.Pos.Text)
	col := e.Tok.Pos.Col
	if col < 0 {
		col = 0
	}
	fmt.Fprintf(w, "%s^\n", strings.Repeat(" ", col))
}
