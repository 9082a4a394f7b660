package x86_64

import (
	"bytes"
	"testing"

	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/diag"
	"gas64/internal/lexer"
	"gas64/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func parseInst(t *testing.T, src string) *ast.Instruction {
	t.Helper()
	lines, err := lexer.LexString("t.s", src)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	ins, err := parser.ParseInstruction(lines[0])
	require.NoError(t, err, src)
	return ins
}

func encode(t *testing.T, src string) ([]byte, []ast.PendingReloc, error) {
	t.Helper()
	var buf bytes.Buffer
	relocs, err := NewEncoder().EncodeInstruction(&buf, parseInst(t, src))
	return buf.Bytes(), relocs, err
}

var encodeTests = []struct {
	src  string
	want []byte
	op   x86asm.Op
}{
	{"pushq %rbp", []byte{0x55}, x86asm.PUSH},
	{"pushq %r12", []byte{0x41, 0x54}, x86asm.PUSH},
	{"popq %rbp", []byte{0x5D}, x86asm.POP},
	{"popq %r15", []byte{0x41, 0x5F}, x86asm.POP},
	{"movq $42, %rax", []byte{0x48, 0xC7, 0xC0, 0x2A, 0x00, 0x00, 0x00}, x86asm.MOV},
	{"movq $-1, %r9", []byte{0x49, 0xC7, 0xC1, 0xFF, 0xFF, 0xFF, 0xFF}, x86asm.MOV},
	{"movq %rsp, %rbp", []byte{0x48, 0x8B, 0xEC}, x86asm.MOV},
	{"movq %r8, %rax", []byte{0x49, 0x8B, 0xC0}, x86asm.MOV},
	{"movq %rax, %r9", []byte{0x4C, 0x8B, 0xC8}, x86asm.MOV},
	{"movq %rax, (%rbx)", []byte{0x48, 0x89, 0x03}, x86asm.MOV},
	{"movq %rax, 8(%rbx)", []byte{0x48, 0x89, 0x43, 0x08}, x86asm.MOV},
	{"movq %rax, -8(%rcx)", []byte{0x48, 0x89, 0x41, 0xF8}, x86asm.MOV},
	{"movq 127(%rsi), %r10", []byte{0x4C, 0x8B, 0x56, 0x7F}, x86asm.MOV},
	{"movq 200(%rdi), %rdx", []byte{0x48, 0x8B, 0x97, 0xC8, 0x00, 0x00, 0x00}, x86asm.MOV},
	{"movq -129(%rax), %rcx", []byte{0x48, 0x8B, 0x88, 0x7F, 0xFF, 0xFF, 0xFF}, x86asm.MOV},
	{"movq %r11, 128(%r14)", []byte{0x4D, 0x89, 0x9E, 0x80, 0x00, 0x00, 0x00}, x86asm.MOV},
	{"movq %rax, 8(%r13)", []byte{0x49, 0x89, 0x45, 0x08}, x86asm.MOV},
	{"movq %rax, (%r13)", []byte{0x49, 0x89, 0x45, 0x00}, x86asm.MOV},
	{"movq (%r12), %rax", []byte{0x49, 0x8B, 0x04, 0x24}, x86asm.MOV},
	{"movq 8(%r12), %rcx", []byte{0x49, 0x8B, 0x4C, 0x24, 0x08}, x86asm.MOV},
	{"call foo", []byte{0xE8, 0x00, 0x00, 0x00, 0x00}, x86asm.CALL},
	{"leave", []byte{0xC9}, x86asm.LEAVE},
	{"ret", []byte{0xC3}, x86asm.RET},
}

func TestEncodeInstruction(t *testing.T) {
	for _, tt := range encodeTests {
		t.Run(tt.src, func(t *testing.T) {
			got, _, err := encode(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodesBack(t *testing.T) {
	for _, tt := range encodeTests {
		t.Run(tt.src, func(t *testing.T) {
			got, _, err := encode(t, tt.src)
			require.NoError(t, err)
			inst, err := x86asm.Decode(got, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.op, inst.Op)
			assert.Equal(t, len(got), inst.Len)
		})
	}
}

func TestEncodeOperandsDecodeBack(t *testing.T) {
	got, _, err := encode(t, "movq %r11, 128(%r14)")
	require.NoError(t, err)
	inst, err := x86asm.Decode(got, 64)
	require.NoError(t, err)
	mem, ok := inst.Args[0].(x86asm.Mem)
	require.True(t, ok)
	assert.Equal(t, x86asm.R14, mem.Base)
	assert.Equal(t, int64(128), mem.Disp)
	assert.Equal(t, x86asm.R11, inst.Args[1])

	got, _, err = encode(t, "movq $42, %rax")
	require.NoError(t, err)
	inst, err = x86asm.Decode(got, 64)
	require.NoError(t, err)
	assert.Equal(t, x86asm.RAX, inst.Args[0])
	assert.Equal(t, x86asm.Imm(42), inst.Args[1])

	got, _, err = encode(t, "movq %rsp, %rbp")
	require.NoError(t, err)
	inst, err = x86asm.Decode(got, 64)
	require.NoError(t, err)
	assert.Equal(t, x86asm.RBP, inst.Args[0])
	assert.Equal(t, x86asm.RSP, inst.Args[1])
}

func TestEncodeExtendedBasesDecodeBack(t *testing.T) {
	tests := []struct {
		src  string
		base x86asm.Reg
		disp int64
	}{
		{"movq (%r12), %rax", x86asm.R12, 0},
		{"movq -16(%r12), %rax", x86asm.R12, -16},
		{"movq (%r13), %rax", x86asm.R13, 0},
		{"movq 8(%r13), %rax", x86asm.R13, 8},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, _, err := encode(t, tt.src)
			require.NoError(t, err)
			inst, err := x86asm.Decode(got, 64)
			require.NoError(t, err)
			assert.Equal(t, len(got), inst.Len)
			mem, ok := inst.Args[1].(x86asm.Mem)
			require.True(t, ok)
			assert.Equal(t, tt.base, mem.Base)
			assert.Equal(t, x86asm.Reg(0), mem.Index)
			assert.Equal(t, tt.disp, mem.Disp)
		})
	}
}

func TestEncodeCallRelocation(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x90, 0x90})
	relocs, err := NewEncoder().EncodeInstruction(&buf, parseInst(t, "call foo"))
	require.NoError(t, err)
	require.Len(t, relocs, 1)
	assert.Equal(t, 3, relocs[0].Offset)
	assert.Equal(t, "foo", relocs[0].Name)
	assert.Equal(t, arch.RelocRel32, relocs[0].Kind)
	assert.Equal(t, 6, relocs[0].Tok.Pos.Col)
}

func TestEncodeRejects(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"movq %rax, (%rsp)", "rsp is not supported."},
		{"movq 8(%rbp), %rax", "rbp is not supported."},
		{"movq %rax, (%rbx,%rcx,1)", "invalid operand types."},
		{"movq foo(%rip), %rax", "invalid operand types."},
		{"movq $1, (%rax)", "invalid operand types."},
		{"movl %eax, %ebx", "unsupported operand width."},
		{"leaq foo(%rip), %rax", "unknown instruction."},
		{"addq $8, %rsp", "unknown instruction."},
		{"jmp foo", "unknown instruction."},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, _, err := encode(t, tt.src)
			var de *diag.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, diag.Encode, de.Kind)
			assert.Equal(t, tt.msg, de.Msg)
		})
	}
}

func TestEncodeUnit(t *testing.T) {
	lines, err := lexer.LexString("t.s", "pushq %rbp\nmovq %rsp, %rbp\ncall foo\nleave\nret\n")
	require.NoError(t, err)
	u, err := parser.Parse("t.s", lines)
	require.NoError(t, err)

	require.NoError(t, NewEncoder().Encode(u))
	assert.Equal(t, []int{0, 1, 4, 9, 10}, u.Offsets)
	assert.Len(t, u.Text, 11)
	require.Len(t, u.Relocs, 1)
	assert.Equal(t, 5, u.Relocs[0].Offset)
	assert.Equal(t, 3, u.InstLen(1))
	assert.Equal(t, 1, u.InstLen(4))
}

func TestEncodeUnitStopsAtFirstError(t *testing.T) {
	lines, err := lexer.LexString("t.s", "ret\nmovq 8(%rbp), %rax\nleaq foo(%rip), %rax\n")
	require.NoError(t, err)
	u, err := parser.Parse("t.s", lines)
	require.NoError(t, err)

	err = NewEncoder().Encode(u)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Tok.Pos.Line)
	assert.Nil(t, u.Text)
}

func TestRex(t *testing.T) {
	assert.Equal(t, byte(0x48), rex(true, 0, 0, 0))
	assert.Equal(t, byte(0x44), rex(false, 8, 0, 0))
	assert.Equal(t, byte(0x42), rex(false, 0, 9, 0))
	assert.Equal(t, byte(0x41), rex(false, 0, 0, 15))
	assert.Equal(t, byte(0x4D), rex(true, 9, 0, 12))

	var buf bytes.Buffer
	writeRex(&buf, false, 0, 0, 7)
	assert.Zero(t, buf.Len())
	writeRex(&buf, false, 0, 0, 8)
	assert.Equal(t, []byte{0x41}, buf.Bytes())
}

func TestModForDisp(t *testing.T) {
	tests := []struct {
		disp int32
		mod  int
		size int
	}{
		{0, modDisp0, 0},
		{1, modDisp8, 1},
		{-128, modDisp8, 1},
		{127, modDisp8, 1},
		{128, modDisp32, 4},
		{-129, modDisp32, 4},
		{1 << 30, modDisp32, 4},
	}
	for _, tt := range tests {
		mod := modForDisp(tt.disp)
		assert.Equal(t, tt.mod, mod, "disp %d", tt.disp)
		var buf bytes.Buffer
		writeDisp(&buf, mod, tt.disp)
		assert.Equal(t, tt.size, buf.Len(), "disp %d", tt.disp)
	}
}
