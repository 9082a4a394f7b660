package x86_64

import (
	"bytes"

	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/diag"

	"github.com/sirupsen/logrus"
)

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Arch() arch.Arch { return arch.ArchX86_64 }
func (e *Encoder) WordSize() int   { return 8 }

// Encode walks u.Insts once, filling u.Text, u.Offsets and u.Relocs.
func (e *Encoder) Encode(u *ast.Unit) error {
	var buf bytes.Buffer
	offsets := make([]int, len(u.Insts))
	var relocs []ast.PendingReloc

	for i, ins := range u.Insts {
		offsets[i] = buf.Len()
		rs, err := e.EncodeInstruction(&buf, ins)
		if err != nil {
			return err
		}
		relocs = append(relocs, rs...)
	}

	u.Text = buf.Bytes()
	u.Offsets = offsets
	u.Relocs = relocs
	logrus.Debugf("%s: encoded %d instructions into %d bytes, %d relocations",
		u.File, len(u.Insts), len(u.Text), len(u.Relocs))
	return nil
}

// EncodeInstruction appends ins to buf. Returned relocations carry absolute
// offsets into buf.
func (e *Encoder) EncodeInstruction(buf *bytes.Buffer, ins *ast.Instruction) ([]ast.PendingReloc, error) {
	switch ins.Op {
	case ast.OpPush:
		return nil, e.encodePushPop(buf, ins, 0x50)
	case ast.OpPop:
		return nil, e.encodePushPop(buf, ins, 0x58)
	case ast.OpMov:
		return nil, e.encodeMov(buf, ins)
	case ast.OpCall:
		return e.encodeCall(buf, ins)
	case ast.OpLeave:
		if err := expectOperands(ins, 0); err != nil {
			return nil, err
		}
		buf.WriteByte(0xC9)
		return nil, nil
	case ast.OpRet:
		if err := expectOperands(ins, 0); err != nil {
			return nil, err
		}
		buf.WriteByte(0xC3)
		return nil, nil
	default:
		return nil, diag.Errorf(diag.Encode, ins.Tok, "unknown instruction.")
	}
}

func expectOperands(ins *ast.Instruction, n int) error {
	if len(ins.Operands) == n {
		return nil
	}
	switch n {
	case 0:
		return diag.Errorf(diag.Encode, ins.Tok, "'%s' expects no operand.", ins.Tok.Lit)
	case 1:
		return diag.Errorf(diag.Encode, ins.Tok, "'%s' expects 1 operand.", ins.Tok.Lit)
	default:
		return diag.Errorf(diag.Encode, ins.Tok, "'%s' expects %d operands.", ins.Tok.Lit, n)
	}
}

// 50+rd / 58+rd
func (e *Encoder) encodePushPop(buf *bytes.Buffer, ins *ast.Instruction, opcode byte) error {
	if err := expectOperands(ins, 1); err != nil {
		return err
	}
	r, ok := ins.Dst().(ast.RegOperand)
	if !ok {
		return diag.Errorf(diag.Encode, ins.Dst().Token(), "invalid operand type.")
	}
	writeRex(buf, false, 0, 0, r.Reg.Num)
	buf.WriteByte(opcodeReg(opcode, r.Reg.Num))
	return nil
}

func (e *Encoder) encodeMov(buf *bytes.Buffer, ins *ast.Instruction) error {
	if err := expectOperands(ins, 2); err != nil {
		return err
	}
	if ins.Width != arch.Width64 {
		return diag.Errorf(diag.Encode, ins.Tok, "unsupported operand width.")
	}

	switch src := ins.Src().(type) {
	case ast.ImmOperand:
		if dst, ok := ins.Dst().(ast.RegOperand); ok {
			// REX.W + C7 /0 id
			writeRex(buf, true, 0, 0, dst.Reg.Num)
			buf.WriteByte(0xC7)
			buf.WriteByte(modRM(modReg, 0, dst.Reg.Num))
			writeImm32(buf, src.Val)
			return nil
		}

	case ast.RegOperand:
		switch dst := ins.Dst().(type) {
		case ast.RegOperand:
			// REX.W + 8B /r
			writeRex(buf, true, dst.Reg.Num, 0, src.Reg.Num)
			buf.WriteByte(0x8B)
			buf.WriteByte(modRM(modReg, dst.Reg.Num, src.Reg.Num))
			return nil
		case ast.MemOperand:
			// REX.W + 89 /r
			return e.encodeMem(buf, 0x89, src.Reg.Num, dst)
		}

	case ast.MemOperand:
		if dst, ok := ins.Dst().(ast.RegOperand); ok {
			// REX.W + 8B /r
			return e.encodeMem(buf, 0x8B, dst.Reg.Num, src)
		}
	}

	return diag.Errorf(diag.Encode, ins.Src().Token(), "invalid operand types.")
}

// encodeMem emits REX.W, opcode and a base+disp ModRM for reg and mem.
func (e *Encoder) encodeMem(buf *bytes.Buffer, opcode byte, reg int, mem ast.MemOperand) error {
	if mem.SIB != nil {
		return diag.Errorf(diag.Encode, mem.Tok, "invalid operand types.")
	}
	switch mem.Base {
	case arch.SP, arch.BP:
		return diag.Errorf(diag.Encode, mem.Tok, "%s is not supported.", baseName(mem.Base))
	}

	mod := modForDisp(mem.Disp)
	// With REX.B, rm=101 and mod=00 would mean RIP-relative, so r13 takes a
	// zero disp8 instead.
	if mod == modDisp0 && mem.Base == arch.R13 {
		mod = modDisp8
	}
	writeRex(buf, true, reg, 0, mem.Base)
	buf.WriteByte(opcode)
	buf.WriteByte(modRM(mod, reg, mem.Base))
	// rm=100 always introduces a SIB byte; r12 gets one with no index.
	if mem.Base == arch.R12 {
		buf.WriteByte(sibNoIndex(mem.Base))
	}
	writeDisp(buf, mod, mem.Disp)
	return nil
}

func baseName(num int) string {
	return arch.RegisterName(arch.Register{Width: arch.Width64, Num: num})
}

// E8 cd
func (e *Encoder) encodeCall(buf *bytes.Buffer, ins *ast.Instruction) ([]ast.PendingReloc, error) {
	if err := expectOperands(ins, 1); err != nil {
		return nil, err
	}
	sym, ok := ins.Dst().(ast.SymOperand)
	if !ok {
		return nil, diag.Errorf(diag.Encode, ins.Tok, "invalid operand type.")
	}
	buf.WriteByte(0xE8)
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
	return []ast.PendingReloc{{
		Offset: buf.Len() - 4,
		Name:   sym.Name,
		Kind:   arch.RelocRel32,
		Tok:    sym.Tok,
	}}, nil
}
