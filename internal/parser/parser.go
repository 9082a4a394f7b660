package parser

import (
	"gas64/internal/ast"
	"gas64/internal/diag"
	"gas64/internal/token"

	"github.com/sirupsen/logrus"
)

// Parse turns token lines into a translation unit. It stops at the first
// diagnostic.
func Parse(file string, lines []token.Line) (*ast.Unit, error) {
	u := ast.NewUnit(file)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		st, err := parseLine(u, line)
		if err != nil {
			return nil, err
		}
		u.Stmts = append(u.Stmts, st)
	}
	logrus.Debugf("%s: parsed %d statements, %d instructions, %d labels",
		file, len(u.Stmts), len(u.Insts), u.Labels.Len())
	return u, nil
}

func parseLine(u *ast.Unit, line token.Line) (ast.Stmt, error) {
	head := line[0]
	if head.Kind != token.IDENT {
		return ast.Stmt{}, diag.Errorf(diag.Parse, head, "identifier is expected.")
	}

	if len(line) > 1 && line[1].Kind == token.COLON {
		if len(line) > 2 {
			return ast.Stmt{}, diag.Errorf(diag.Parse, line[2], "invalid symbol declaration.")
		}
		l := &ast.Label{Name: head.Ident, Inst: len(u.Insts), Tok: head}
		if u.Labels.Put(l) {
			logrus.Warnf("%s: label %q redefined", head.Pos, head.Ident)
		}
		return ast.Stmt{Kind: ast.StmtLabel, Label: l}, nil
	}

	if dir, ok, err := parseDirective(line); ok || err != nil {
		if err != nil {
			return ast.Stmt{}, err
		}
		return ast.Stmt{Kind: ast.StmtDir, Dir: dir}, nil
	}

	inst, err := ParseInstruction(line)
	if err != nil {
		return ast.Stmt{}, err
	}
	u.Insts = append(u.Insts, inst)
	return ast.Stmt{Kind: ast.StmtInst, Inst: inst}, nil
}

// ParseInstruction parses and validates one instruction line.
func ParseInstruction(line token.Line) (*ast.Instruction, error) {
	mn := line[0]
	ops, _, err := parseOperands(cursor{line: line, pos: 1})
	if err != nil {
		return nil, err
	}
	m, ok := mnemonics[mn.Ident]
	if !ok {
		return nil, diag.Errorf(diag.Parse, mn, "unknown instruction '%s'.", mn.Ident)
	}
	if err := m.validate(mn, ops); err != nil {
		return nil, err
	}
	return &ast.Instruction{Op: m.op, Width: m.width, Operands: ops, Tok: mn}, nil
}

func parseDirective(line token.Line) (*ast.Directive, bool, error) {
	head := line[0]
	d := &ast.Directive{Tok: head}
	switch head.Ident {
	case ".text":
		d.Kind = ast.DirText
	case ".data":
		d.Kind = ast.DirData
	case ".section":
		d.Kind = ast.DirSection
		arg, err := directiveArg(line, token.IDENT, "identifier is expected.")
		if err != nil {
			return nil, true, err
		}
		if arg.Ident != ".rodata" {
			return nil, true, diag.Errorf(diag.Parse, arg, "only '.rodata' is supported.")
		}
		d.Ident = arg.Ident
	case ".global":
		d.Kind = ast.DirGlobal
		arg, err := directiveArg(line, token.IDENT, "identifier is expected.")
		if err != nil {
			return nil, true, err
		}
		d.Ident, d.Tok = arg.Ident, arg
	case ".zero", ".long":
		d.Kind = ast.DirZero
		if head.Ident == ".long" {
			d.Kind = ast.DirLong
		}
		arg, err := directiveArg(line, token.NUM, "'"+head.Ident+"' directive expects integer constant.")
		if err != nil {
			return nil, true, err
		}
		if !fitsInt32(arg.Num) {
			return nil, true, diag.Errorf(diag.Parse, arg, "integer constant out of range.")
		}
		d.Num = int32(arg.Num)
	case ".quad":
		d.Kind = ast.DirQuad
		arg, err := directiveArg(line, token.IDENT, "'.quad' directive expects identifier.")
		if err != nil {
			return nil, true, err
		}
		d.Ident, d.Tok = arg.Ident, arg
	case ".ascii":
		d.Kind = ast.DirAscii
		arg, err := directiveArg(line, token.STR, "'.ascii' directive expects string literal.")
		if err != nil {
			return nil, true, err
		}
		d.Str, d.Tok = arg.Str, arg
	default:
		return nil, false, nil
	}

	if (d.Kind == ast.DirText || d.Kind == ast.DirData) && len(line) > 1 {
		return nil, true, diag.Errorf(diag.Parse, head, "invalid directive.")
	}
	return d, true, nil
}

// directiveArg checks for exactly one argument of the given kind.
func directiveArg(line token.Line, kind token.Kind, msg string) (token.Token, error) {
	if len(line) < 2 {
		return token.Token{}, diag.Errorf(diag.Parse, line[0], "%s", msg)
	}
	if line[1].Kind != kind {
		return token.Token{}, diag.Errorf(diag.Parse, line[1], "%s", msg)
	}
	if len(line) > 2 {
		return token.Token{}, diag.Errorf(diag.Parse, line[0], "invalid directive.")
	}
	return line[1], nil
}
