package ast

import (
	"gas64/internal/arch"
	"gas64/internal/token"
)

type Operand interface {
	operand()
	Token() token.Token
}

type RegOperand struct {
	Reg arch.Register
	Tok token.Token
}

func (RegOperand) operand()             {}
func (o RegOperand) Token() token.Token { return o.Tok }

type Scale int

const (
	Scale1 Scale = 1
	Scale2 Scale = 2
	Scale4 Scale = 4
	Scale8 Scale = 8
)

// SIB is the optional index part of a memory operand.
type SIB struct {
	Scale Scale
	Index int
}

type MemOperand struct {
	Base int
	SIB  *SIB
	Disp int32
	Tok  token.Token
}

func (MemOperand) operand()             {}
func (o MemOperand) Token() token.Token { return o.Tok }

type RipOperand struct {
	Name string
	Tok  token.Token
}

func (RipOperand) operand()             {}
func (o RipOperand) Token() token.Token { return o.Tok }

type SymOperand struct {
	Name string
	Tok  token.Token
}

func (SymOperand) operand()             {}
func (o SymOperand) Token() token.Token { return o.Tok }

type ImmOperand struct {
	Val int32
	Tok token.Token
}

func (ImmOperand) operand()             {}
func (o ImmOperand) Token() token.Token { return o.Tok }

type Op int

const (
	OpPush Op = iota
	OpPop
	OpMov
	OpMovzb
	OpMovzw
	OpMovsb
	OpMovsw
	OpMovsl
	OpLea
	OpNeg
	OpNot
	OpAdd
	OpSub
	OpMul
	OpImul
	OpDiv
	OpIdiv
	OpAnd
	OpXor
	OpOr
	OpSal
	OpSar
	OpCmp
	OpSete
	OpSetne
	OpSetb
	OpSetl
	OpSetg
	OpSetbe
	OpSetle
	OpSetge
	OpJmp
	OpJe
	OpJne
	OpCall
	OpLeave
	OpRet
)

var opNames = [...]string{
	OpPush: "push", OpPop: "pop", OpMov: "mov",
	OpMovzb: "movzb", OpMovzw: "movzw", OpMovsb: "movsb", OpMovsw: "movsw", OpMovsl: "movsl",
	OpLea: "lea", OpNeg: "neg", OpNot: "not",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpImul: "imul", OpDiv: "div", OpIdiv: "idiv",
	OpAnd: "and", OpXor: "xor", OpOr: "or", OpSal: "sal", OpSar: "sar", OpCmp: "cmp",
	OpSete: "sete", OpSetne: "setne", OpSetb: "setb", OpSetl: "setl",
	OpSetg: "setg", OpSetbe: "setbe", OpSetle: "setle", OpSetge: "setge",
	OpJmp: "jmp", OpJe: "je", OpJne: "jne", OpCall: "call", OpLeave: "leave", OpRet: "ret",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// Instruction operands are in AT&T order: source first, destination last.
type Instruction struct {
	Op       Op
	Width    arch.Width
	Operands []Operand
	Tok      token.Token
}

// Src is the first operand of a two-operand instruction.
func (i *Instruction) Src() Operand { return i.Operands[0] }

// Dst is the last operand; for one-operand instructions it is the only one.
func (i *Instruction) Dst() Operand { return i.Operands[len(i.Operands)-1] }

type DirKind int

const (
	DirText DirKind = iota
	DirData
	DirSection
	DirGlobal
	DirZero
	DirLong
	DirQuad
	DirAscii
)

var dirNames = [...]string{
	DirText: ".text", DirData: ".data", DirSection: ".section", DirGlobal: ".global",
	DirZero: ".zero", DirLong: ".long", DirQuad: ".quad", DirAscii: ".ascii",
}

func (k DirKind) String() string {
	if int(k) < len(dirNames) {
		return dirNames[k]
	}
	return "?"
}

type Directive struct {
	Kind  DirKind
	Ident string // .section, .global, .quad
	Num   int32  // .zero, .long
	Str   []byte // .ascii
	Tok   token.Token
}

// Label binds a name to the instruction that follows its definition.
type Label struct {
	Name string
	Inst int
	Tok  token.Token
}

type StmtKind int

const (
	StmtLabel StmtKind = iota
	StmtDir
	StmtInst
)

type Stmt struct {
	Kind  StmtKind
	Label *Label
	Dir   *Directive
	Inst  *Instruction
}

// PendingReloc is a 4-byte placeholder in the text waiting for a symbol index.
type PendingReloc struct {
	Offset int
	Name   string
	Kind   arch.RelocKind
	Tok    token.Token
}
