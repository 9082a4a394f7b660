package parser

import (
	"math"

	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/diag"
	"gas64/internal/token"
)

// cursor is a read position in one token line. It is passed and returned by
// value, so a caller can hold on to an earlier position for lookahead.
type cursor struct {
	line token.Line
	pos  int
}

func (c cursor) done() bool { return c.pos >= len(c.line) }

func (c cursor) is(kind token.Kind) bool {
	return !c.done() && c.line[c.pos].Kind == kind
}

// tok is the current token, or the last one on the line once exhausted, so
// "expected" diagnostics at end of line still point somewhere useful.
func (c cursor) tok() token.Token {
	if c.done() {
		return c.line[len(c.line)-1]
	}
	return c.line[c.pos]
}

func (c cursor) next() cursor {
	c.pos++
	return c
}

func (c cursor) expect(kind token.Kind, msg string) (token.Token, cursor, error) {
	if !c.is(kind) {
		return token.Token{}, c, diag.Errorf(diag.Parse, c.tok(), "%s", msg)
	}
	return c.line[c.pos], c.next(), nil
}

func parseOperands(c cursor) ([]ast.Operand, cursor, error) {
	var ops []ast.Operand
	if c.done() {
		return ops, c, nil
	}
	for {
		op, nc, err := parseOperand(c)
		if err != nil {
			return nil, nc, err
		}
		ops = append(ops, op)
		c = nc
		if c.done() {
			return ops, c, nil
		}
		if _, c, err = c.expect(token.COMMA, "',' is expected."); err != nil {
			return nil, c, err
		}
	}
}

func parseOperand(c cursor) (ast.Operand, cursor, error) {
	head := c.tok()
	if c.done() {
		return nil, c, diag.Errorf(diag.Parse, head, "operand is expected.")
	}

	switch head.Kind {
	case token.REG:
		return ast.RegOperand{Reg: head.Reg, Tok: head}, c.next(), nil

	case token.NUM, token.LPAREN:
		return parseMemory(c)

	case token.IDENT:
		c = c.next()
		if !c.is(token.LPAREN) {
			return ast.SymOperand{Name: head.Ident, Tok: head}, c, nil
		}
		var err error
		c = c.next()
		if _, c, err = c.expect(token.RIP, "%rip is expected."); err != nil {
			return nil, c, err
		}
		if _, c, err = c.expect(token.RPAREN, "')' is expected."); err != nil {
			return nil, c, err
		}
		return ast.RipOperand{Name: head.Ident, Tok: head}, c, nil

	case token.IMM:
		if !fitsInt32(head.Num) {
			return nil, c, diag.Errorf(diag.Parse, head, "immediate out of range.")
		}
		return ast.ImmOperand{Val: int32(head.Num), Tok: head}, c.next(), nil
	}

	return nil, c, diag.Errorf(diag.Parse, head, "invalid operand.")
}

// parseMemory reads disp(base[,index[,scale]]).
func parseMemory(c cursor) (ast.Operand, cursor, error) {
	head := c.tok()
	mem := ast.MemOperand{Tok: head}
	if c.is(token.NUM) {
		if !fitsInt32(head.Num) {
			return nil, c, diag.Errorf(diag.Parse, head, "displacement out of range.")
		}
		mem.Disp = int32(head.Num)
		c = c.next()
	}

	var err error
	if _, c, err = c.expect(token.LPAREN, "'(' is expected."); err != nil {
		return nil, c, err
	}
	var base token.Token
	if base, c, err = expectReg64(c); err != nil {
		return nil, c, err
	}
	mem.Base = base.Reg.Num

	if c.is(token.COMMA) {
		c = c.next()
		var index token.Token
		if index, c, err = expectReg64(c); err != nil {
			return nil, c, err
		}
		if index.Reg.Num == arch.SP {
			return nil, c, diag.Errorf(diag.Parse, index, "cannot use rsp as index.")
		}
		mem.SIB = &ast.SIB{Scale: ast.Scale1, Index: index.Reg.Num}

		if c.is(token.COMMA) {
			c = c.next()
			var scale token.Token
			if scale, c, err = c.expect(token.NUM, "scale is expected."); err != nil {
				return nil, c, err
			}
			switch scale.Num {
			case 1, 2, 4, 8:
				mem.SIB.Scale = ast.Scale(scale.Num)
			default:
				return nil, c, diag.Errorf(diag.Parse, scale, "one of 1, 2, 4, 8 is expected.")
			}
		}
	}

	if _, c, err = c.expect(token.RPAREN, "')' is expected."); err != nil {
		return nil, c, err
	}
	return mem, c, nil
}

func expectReg64(c cursor) (token.Token, cursor, error) {
	reg, nc, err := c.expect(token.REG, "register is expected.")
	if err != nil {
		return reg, nc, err
	}
	if reg.Reg.Width != arch.Width64 {
		return reg, nc, diag.Errorf(diag.Parse, reg, "64-bit register is expected.")
	}
	return reg, nc, nil
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
