package arch

import (
	"debug/elf"
	"fmt"
)

type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	default:
		return "unknown"
	}
}

func ParseArch(s string) Arch {
	switch s {
	case "x86_64", "amd64", "x64":
		return ArchX86_64
	default:
		return ArchUnknown
	}
}

// Machine returns the ELF e_machine value for a.
func (a Arch) Machine() elf.Machine {
	switch a {
	case ArchX86_64:
		return elf.EM_X86_64
	default:
		return elf.EM_NONE
	}
}

// Width is an operand size in bits.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) String() string {
	return fmt.Sprintf("%d-bit", int(w))
}

// Register numbers as they appear in ModRM/SIB/REX fields.
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

type Register struct {
	Width Width
	Num   int
}

var registers = map[string]Register{}

func init() {
	names := [16][4]string{
		{"rax", "eax", "ax", "al"},
		{"rcx", "ecx", "cx", "cl"},
		{"rdx", "edx", "dx", "dl"},
		{"rbx", "ebx", "bx", "bl"},
		{"rsp", "esp", "sp", "spl"},
		{"rbp", "ebp", "bp", "bpl"},
		{"rsi", "esi", "si", "sil"},
		{"rdi", "edi", "di", "dil"},
	}
	for n := R8; n <= R15; n++ {
		r := fmt.Sprintf("r%d", n)
		names[n] = [4]string{r, r + "d", r + "w", r + "b"}
	}
	widths := [4]Width{Width64, Width32, Width16, Width8}
	for num, row := range names {
		for i, name := range row {
			registers[name] = Register{Width: widths[i], Num: num}
		}
	}
}

// LookupRegister resolves a register name without the leading '%'.
func LookupRegister(name string) (Register, bool) {
	r, ok := registers[name]
	return r, ok
}

// RegisterName is the inverse of LookupRegister.
func RegisterName(r Register) string {
	for name, reg := range registers {
		if reg == r {
			return name
		}
	}
	return "?"
}

type RelocKind int

const (
	RelocRel32 RelocKind = iota
)

// ELFType maps a relocation kind to its x86-64 ELF relocation type.
func (k RelocKind) ELFType() elf.R_X86_64 {
	switch k {
	case RelocRel32:
		return elf.R_X86_64_PC32
	default:
		return elf.R_X86_64_NONE
	}
}
