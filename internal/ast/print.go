package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gas64/internal/arch"
)

func Fprint(w io.Writer, u *Unit) {
	for _, st := range u.Stmts {
		switch st.Kind {
		case StmtLabel:
			fmt.Fprintf(w, "Label: %s -> inst %d\n", st.Label.Name, st.Label.Inst)
		case StmtDir:
			fmt.Fprintf(w, "Directive: %s\n", prettyDirective(st.Dir))
		case StmtInst:
			in := st.Inst
			ops := make([]string, len(in.Operands))
			for i, op := range in.Operands {
				ops[i] = PrettyOperand(op)
			}
			fmt.Fprintf(w, "Instr: %s/%d %s\n", in.Op, int(in.Width), strings.Join(ops, ", "))
		}
	}
}

func PrettyOperand(op Operand) string {
	switch v := op.(type) {
	case RegOperand:
		return fmt.Sprintf("Reg(%%%s)", arch.RegisterName(v.Reg))
	case ImmOperand:
		return fmt.Sprintf("Imm(%d)", v.Val)
	case MemOperand:
		base := arch.RegisterName(arch.Register{Width: arch.Width64, Num: v.Base})
		if v.SIB == nil {
			return fmt.Sprintf("Mem(%d(%%%s))", v.Disp, base)
		}
		index := arch.RegisterName(arch.Register{Width: arch.Width64, Num: v.SIB.Index})
		return fmt.Sprintf("Mem(%d(%%%s,%%%s,%d))", v.Disp, base, index, v.SIB.Scale)
	case RipOperand:
		return fmt.Sprintf("Rip(%s)", v.Name)
	case SymOperand:
		return fmt.Sprintf("Sym(%s)", v.Name)
	default:
		return fmt.Sprintf("<unknown op %T>", v)
	}
}

func prettyDirective(d *Directive) string {
	switch d.Kind {
	case DirSection, DirGlobal, DirQuad:
		return fmt.Sprintf("%s %s", d.Kind, d.Ident)
	case DirZero, DirLong:
		return fmt.Sprintf("%s %d", d.Kind, d.Num)
	case DirAscii:
		return fmt.Sprintf("%s %s", d.Kind, strconv.Quote(string(d.Str)))
	default:
		return d.Kind.String()
	}
}
