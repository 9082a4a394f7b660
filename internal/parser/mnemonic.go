package parser

import (
	"strings"

	"gas64/internal/arch"
	"gas64/internal/ast"
)

// class is a set of operand classes.
type class uint8

const (
	classReg class = 1 << iota
	classMem
	classImm
	classSym
)

func classOf(op ast.Operand) class {
	switch op.(type) {
	case ast.RegOperand:
		return classReg
	case ast.MemOperand, ast.RipOperand:
		return classMem
	case ast.ImmOperand:
		return classImm
	case ast.SymOperand:
		return classSym
	}
	return 0
}

func (c class) String() string {
	var names []string
	for _, e := range []struct {
		c    class
		name string
	}{{classReg, "register"}, {classMem, "memory"}, {classImm, "immediate"}, {classSym, "symbol"}} {
		if c&e.c != 0 {
			names = append(names, e.name)
		}
	}
	switch len(names) {
	case 0:
		return "no"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// widthRule selects which register operands must agree with the suffix.
type widthRule int

const (
	widthNone   widthRule = iota
	widthSame             // every register operand has the suffix width
	widthExtend           // source has srcWidth, destination has width
	widthDst              // only the destination is checked
)

type category int

const (
	catMove category = iota
	catExtend
	catLea
	catUnary
	catBinary
	catShift
	catSetcc
	catControl
	catStack
	catNone
)

// mnemonic describes everything the parser checks for one spelling.
type mnemonic struct {
	op       ast.Op
	cat      category
	arity    int
	classes  class
	width    arch.Width
	srcWidth arch.Width
	widths   widthRule
	writable bool
}

func move(op ast.Op, w arch.Width) mnemonic {
	return mnemonic{op: op, cat: catMove, arity: 2, classes: classReg | classMem | classImm, width: w, widths: widthSame, writable: true}
}

func binary(op ast.Op, w arch.Width) mnemonic {
	return mnemonic{op: op, cat: catBinary, arity: 2, classes: classReg | classMem | classImm, width: w, widths: widthSame, writable: true}
}

func extend(op ast.Op, from, to arch.Width) mnemonic {
	return mnemonic{op: op, cat: catExtend, arity: 2, classes: classReg | classMem, width: to, srcWidth: from, widths: widthExtend}
}

func unary(op ast.Op, w arch.Width) mnemonic {
	return mnemonic{op: op, cat: catUnary, arity: 1, classes: classReg | classMem, width: w, widths: widthSame}
}

func shift(op ast.Op, w arch.Width) mnemonic {
	return mnemonic{op: op, cat: catShift, arity: 2, classes: classReg | classMem, width: w, widths: widthDst}
}

func setcc(op ast.Op) mnemonic {
	return mnemonic{op: op, cat: catSetcc, arity: 1, classes: classReg | classMem, width: arch.Width8, widths: widthSame}
}

func control(op ast.Op) mnemonic {
	return mnemonic{op: op, cat: catControl, arity: 1, classes: classSym, width: arch.Width64}
}

func stack(op ast.Op) mnemonic {
	return mnemonic{op: op, cat: catStack, arity: 1, classes: classReg, width: arch.Width64, widths: widthSame}
}

func noOperand(op ast.Op) mnemonic {
	return mnemonic{op: op, cat: catNone, width: arch.Width64}
}

var mnemonics = map[string]mnemonic{
	"pushq": stack(ast.OpPush),
	"popq":  stack(ast.OpPop),

	"movq": move(ast.OpMov, arch.Width64),
	"movl": move(ast.OpMov, arch.Width32),
	"movw": move(ast.OpMov, arch.Width16),
	"movb": move(ast.OpMov, arch.Width8),

	"movzbq": extend(ast.OpMovzb, arch.Width8, arch.Width64),
	"movzbl": extend(ast.OpMovzb, arch.Width8, arch.Width32),
	"movzbw": extend(ast.OpMovzb, arch.Width8, arch.Width16),
	"movzwq": extend(ast.OpMovzw, arch.Width16, arch.Width64),
	"movzwl": extend(ast.OpMovzw, arch.Width16, arch.Width32),
	"movsbq": extend(ast.OpMovsb, arch.Width8, arch.Width64),
	"movsbl": extend(ast.OpMovsb, arch.Width8, arch.Width32),
	"movsbw": extend(ast.OpMovsb, arch.Width8, arch.Width16),
	"movswq": extend(ast.OpMovsw, arch.Width16, arch.Width64),
	"movswl": extend(ast.OpMovsw, arch.Width16, arch.Width32),
	"movslq": extend(ast.OpMovsl, arch.Width32, arch.Width64),

	"leaq": {op: ast.OpLea, cat: catLea, arity: 2, classes: classReg | classMem, width: arch.Width64, widths: widthSame},

	"negq":  unary(ast.OpNeg, arch.Width64),
	"negl":  unary(ast.OpNeg, arch.Width32),
	"notq":  unary(ast.OpNot, arch.Width64),
	"notl":  unary(ast.OpNot, arch.Width32),
	"mulq":  unary(ast.OpMul, arch.Width64),
	"mull":  unary(ast.OpMul, arch.Width32),
	"imulq": unary(ast.OpImul, arch.Width64),
	"imull": unary(ast.OpImul, arch.Width32),
	"divq":  unary(ast.OpDiv, arch.Width64),
	"divl":  unary(ast.OpDiv, arch.Width32),
	"idivq": unary(ast.OpIdiv, arch.Width64),
	"idivl": unary(ast.OpIdiv, arch.Width32),

	"addq": binary(ast.OpAdd, arch.Width64),
	"addl": binary(ast.OpAdd, arch.Width32),
	"subq": binary(ast.OpSub, arch.Width64),
	"subl": binary(ast.OpSub, arch.Width32),
	"andq": binary(ast.OpAnd, arch.Width64),
	"andl": binary(ast.OpAnd, arch.Width32),
	"xorq": binary(ast.OpXor, arch.Width64),
	"xorl": binary(ast.OpXor, arch.Width32),
	"orq":  binary(ast.OpOr, arch.Width64),
	"orl":  binary(ast.OpOr, arch.Width32),
	"cmpq": binary(ast.OpCmp, arch.Width64),
	"cmpl": binary(ast.OpCmp, arch.Width32),
	"cmpw": binary(ast.OpCmp, arch.Width16),
	"cmpb": binary(ast.OpCmp, arch.Width8),

	"salq": shift(ast.OpSal, arch.Width64),
	"sall": shift(ast.OpSal, arch.Width32),
	"sarq": shift(ast.OpSar, arch.Width64),
	"sarl": shift(ast.OpSar, arch.Width32),

	"sete":  setcc(ast.OpSete),
	"setne": setcc(ast.OpSetne),
	"setb":  setcc(ast.OpSetb),
	"setl":  setcc(ast.OpSetl),
	"setg":  setcc(ast.OpSetg),
	"setbe": setcc(ast.OpSetbe),
	"setle": setcc(ast.OpSetle),
	"setge": setcc(ast.OpSetge),

	"jmp":  control(ast.OpJmp),
	"je":   control(ast.OpJe),
	"jne":  control(ast.OpJne),
	"call": control(ast.OpCall),

	"leave": noOperand(ast.OpLeave),
	"ret":   noOperand(ast.OpRet),
}
