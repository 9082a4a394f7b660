package token

import (
	"fmt"

	"gas64/internal/arch"
)

type Kind int

const (
	ILLEGAL Kind = iota
	IDENT
	REG
	RIP
	NUM
	IMM
	STR
	COMMA
	LPAREN
	RPAREN
	COLON
)

func (k Kind) String() string {
	s := map[Kind]string{
		ILLEGAL: "ILLEGAL",
		IDENT:   "IDENT",
		REG:     "REG",
		RIP:     "%rip",
		NUM:     "NUM",
		IMM:     "IMM",
		STR:     "STR",
		COMMA:   ",",
		LPAREN:  "(",
		RPAREN:  ")",
		COLON:   ":",
	}
	if v, ok := s[k]; ok {
		return v
	}
	return "?"
}

// Pos locates a token in its source. Line and Col are 1-based.
type Pos struct {
	File string
	Line int
	Col  int
	Text string // the whole source line, without newline
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

type Token struct {
	Kind Kind
	Lit  string // source spelling
	Pos  Pos

	Ident string        // IDENT
	Reg   arch.Register // REG
	Num   int64         // NUM, IMM
	Str   []byte        // STR, escapes resolved
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Lit)
}

// Line is one source line worth of tokens.
type Line []Token
