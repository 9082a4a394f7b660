package parser

import (
	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/diag"
	"gas64/internal/token"
)

// validate applies the rules in a fixed order: arity, operand class, register
// width, immediate destination, memory count, then the category rule.
func (m mnemonic) validate(mn token.Token, ops []ast.Operand) error {
	if len(ops) != m.arity {
		switch m.arity {
		case 0:
			return diag.Errorf(diag.Parse, mn, "'%s' expects no operand.", mn.Ident)
		case 1:
			return diag.Errorf(diag.Parse, mn, "'%s' expects 1 operand.", mn.Ident)
		default:
			return diag.Errorf(diag.Parse, mn, "'%s' expects %d operands.", mn.Ident, m.arity)
		}
	}

	for _, op := range ops {
		if classOf(op)&m.classes == 0 {
			if m.cat == catControl {
				return diag.Errorf(diag.Parse, op.Token(), "only symbol is supported.")
			}
			return diag.Errorf(diag.Parse, op.Token(), "%s operand is expected.", m.classes)
		}
	}

	if err := m.checkWidths(ops); err != nil {
		return err
	}

	if m.writable && len(ops) == 2 {
		if _, ok := ops[1].(ast.ImmOperand); ok {
			return diag.Errorf(diag.Parse, ops[1].Token(), "destination cannot be an immediate.")
		}
	}

	mems := 0
	for _, op := range ops {
		if classOf(op) == classMem {
			mems++
		}
	}
	if mems > 1 {
		return diag.Errorf(diag.Parse, mn, "both of source and destination cannot be memory operands.")
	}

	return m.checkCategory(ops)
}

func (m mnemonic) checkWidths(ops []ast.Operand) error {
	check := func(op ast.Operand, w arch.Width) error {
		if r, ok := op.(ast.RegOperand); ok && r.Reg.Width != w {
			return diag.Errorf(diag.Parse, r.Tok, "operand type mismatched.")
		}
		return nil
	}

	switch m.widths {
	case widthSame:
		for _, op := range ops {
			if err := check(op, m.width); err != nil {
				return err
			}
		}
	case widthExtend:
		if err := check(ops[0], m.srcWidth); err != nil {
			return err
		}
		return check(ops[1], m.width)
	case widthDst:
		return check(ops[len(ops)-1], m.width)
	}
	return nil
}

func (m mnemonic) checkCategory(ops []ast.Operand) error {
	switch m.cat {
	case catExtend:
		if _, ok := ops[1].(ast.RegOperand); !ok {
			return diag.Errorf(diag.Parse, ops[1].Token(), "second operand should be register operand.")
		}
	case catLea:
		if classOf(ops[0]) != classMem {
			return diag.Errorf(diag.Parse, ops[0].Token(), "first operand should be memory operand.")
		}
		if _, ok := ops[1].(ast.RegOperand); !ok {
			return diag.Errorf(diag.Parse, ops[1].Token(), "second operand should be register operand.")
		}
	case catShift:
		r, ok := ops[0].(ast.RegOperand)
		if !ok || r.Reg.Width != arch.Width8 || r.Reg.Num != arch.CX {
			return diag.Errorf(diag.Parse, ops[0].Token(), "only %%cl is supported.")
		}
	}
	return nil
}
