package lexer

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gas64/internal/arch"
	"gas64/internal/diag"
	"gas64/internal/token"

	"github.com/pkg/errors"
)

// Lex splits AT&T source into one token line per source line. Blank and
// comment-only lines yield empty lines so indices track line numbers.
func Lex(file string, r io.Reader) ([]token.Line, error) {
	var lines []token.Line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		lx := New(file, n, sc.Text())
		line, err := lx.Line()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	return lines, nil
}

// LexString is Lex over an in-memory source.
func LexString(file, src string) ([]token.Line, error) {
	return Lex(file, strings.NewReader(src))
}

type Lexer struct {
	file string
	line int
	text string
	off  int
}

func New(file string, line int, text string) *Lexer {
	return &Lexer{file: file, line: line, text: strings.TrimRight(text, "\r")}
}

func (lx *Lexer) pos(off int) token.Pos {
	return token.Pos{File: lx.file, Line: lx.line, Col: off + 1, Text: lx.text}
}

func (lx *Lexer) peek() byte {
	if lx.off >= len(lx.text) {
		return 0
	}
	return lx.text[lx.off]
}

func (lx *Lexer) errorf(start int, format string, args ...any) error {
	tok := token.Token{Kind: token.ILLEGAL, Lit: lx.text[start:lx.off], Pos: lx.pos(start)}
	return diag.Errorf(diag.Parse, tok, format, args...)
}

// Line tokenizes the whole line.
func (lx *Lexer) Line() (token.Line, error) {
	var out token.Line
	for {
		tok, ok, err := lx.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, tok)
	}
}

// NextToken returns false at end of line.
func (lx *Lexer) NextToken() (token.Token, bool, error) {
	for lx.off < len(lx.text) && (lx.text[lx.off] == ' ' || lx.text[lx.off] == '\t') {
		lx.off++
	}
	if lx.off >= len(lx.text) || lx.text[lx.off] == '#' {
		lx.off = len(lx.text)
		return token.Token{}, false, nil
	}

	start := lx.off
	c := lx.text[lx.off]
	mk := func(kind token.Kind) token.Token {
		return token.Token{Kind: kind, Lit: lx.text[start:lx.off], Pos: lx.pos(start)}
	}

	switch {
	case c == ',':
		lx.off++
		return mk(token.COMMA), true, nil
	case c == '(':
		lx.off++
		return mk(token.LPAREN), true, nil
	case c == ')':
		lx.off++
		return mk(token.RPAREN), true, nil
	case c == ':':
		lx.off++
		return mk(token.COLON), true, nil

	case c == '%':
		lx.off++
		name := lx.word()
		if name == "rip" {
			return mk(token.RIP), true, nil
		}
		reg, ok := arch.LookupRegister(name)
		if !ok {
			return token.Token{}, false, lx.errorf(start, "unknown register '%%%s'.", name)
		}
		tok := mk(token.REG)
		tok.Reg = reg
		return tok, true, nil

	case c == '$':
		lx.off++
		v, err := lx.number(start)
		if err != nil {
			return token.Token{}, false, err
		}
		tok := mk(token.IMM)
		tok.Num = v
		return tok, true, nil

	case c == '-' || c == '+' || isDigit(c):
		v, err := lx.number(start)
		if err != nil {
			return token.Token{}, false, err
		}
		tok := mk(token.NUM)
		tok.Num = v
		return tok, true, nil

	case c == '"':
		s, err := lx.str(start)
		if err != nil {
			return token.Token{}, false, err
		}
		tok := mk(token.STR)
		tok.Str = s
		return tok, true, nil

	case isIdentStart(c):
		tok := mk(token.IDENT)
		tok.Ident = lx.word()
		tok.Lit = tok.Ident
		return tok, true, nil
	}

	lx.off++
	return token.Token{}, false, lx.errorf(start, "invalid character '%c'.", c)
}

func (lx *Lexer) word() string {
	start := lx.off
	for lx.off < len(lx.text) && isIdentChar(lx.text[lx.off]) {
		lx.off++
	}
	return lx.text[start:lx.off]
}

func (lx *Lexer) number(start int) (int64, error) {
	numStart := lx.off
	if c := lx.peek(); c == '-' || c == '+' {
		lx.off++
	}
	if !isDigit(lx.peek()) {
		return 0, lx.errorf(start, "number is expected.")
	}
	for lx.off < len(lx.text) && isIdentChar(lx.text[lx.off]) {
		lx.off++
	}
	lit := lx.text[numStart:lx.off]
	sign, digits := "", lit
	if digits[0] == '-' || digits[0] == '+' {
		sign, digits = digits[:1], digits[1:]
	}
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base, digits = 16, digits[2:]
	}
	v, err := strconv.ParseInt(sign+digits, base, 64)
	if err != nil {
		return 0, lx.errorf(start, "invalid number '%s'.", lit)
	}
	return v, nil
}

func (lx *Lexer) str(start int) ([]byte, error) {
	lx.off++
	var out []byte
	for {
		if lx.off >= len(lx.text) {
			return nil, lx.errorf(start, "unclosed string literal.")
		}
		c := lx.text[lx.off]
		lx.off++
		switch c {
		case '"':
			return out, nil
		case '\\':
			if lx.off >= len(lx.text) {
				return nil, lx.errorf(start, "unclosed string literal.")
			}
			e := lx.text[lx.off]
			lx.off++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '0':
				out = append(out, 0)
			case '\\', '"':
				out = append(out, e)
			default:
				return nil, lx.errorf(start, "unknown escape sequence '\\%c'.", e)
			}
		default:
			out = append(out, c)
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_' || c == '.'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
