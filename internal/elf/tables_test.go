package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/diag"
	"gas64/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbols(t *testing.T, u *ast.Unit) []elf.Sym64 {
	t.Helper()
	require.Zero(t, len(u.Symtab)%elf.Sym64Size)
	syms := make([]elf.Sym64, len(u.Symtab)/elf.Sym64Size)
	require.NoError(t, binary.Read(bytes.NewReader(u.Symtab), binary.LittleEndian, syms))
	return syms
}

func relas(t *testing.T, u *ast.Unit) []elf.Rela64 {
	t.Helper()
	require.Zero(t, len(u.RelaText)%24)
	rs := make([]elf.Rela64, len(u.RelaText)/24)
	require.NoError(t, binary.Read(bytes.NewReader(u.RelaText), binary.LittleEndian, rs))
	return rs
}

func cstring(b []byte, off uint32) string {
	end := bytes.IndexByte(b[off:], 0)
	return string(b[off : int(off)+end])
}

// unit builds an encoded unit by hand: labels name instruction indices.
func unit(offsets []int, textLen int, labels map[string]int, order []string, relocs ...ast.PendingReloc) *ast.Unit {
	u := ast.NewUnit("t.s")
	u.Offsets = offsets
	u.Text = make([]byte, textLen)
	for _, name := range order {
		u.Labels.Put(&ast.Label{Name: name, Inst: labels[name]})
	}
	u.Relocs = relocs
	return u
}

func TestBuildSymtab(t *testing.T) {
	u := unit([]int{0, 1, 4, 9, 10, 11}, 12,
		map[string]int{"foo": 0, "bar": 5}, []string{"foo", "bar"})
	BuildSymtab(u)

	syms := symbols(t, u)
	require.Len(t, syms, 3)
	assert.Equal(t, elf.Sym64{}, syms[0])
	assert.Equal(t, byte(0), u.Strtab[0])

	assert.Equal(t, "foo", cstring(u.Strtab, syms[1].Name))
	assert.Equal(t, uint64(0), syms[1].Value)
	assert.Equal(t, "bar", cstring(u.Strtab, syms[2].Name))
	assert.Equal(t, uint64(11), syms[2].Value)

	for _, s := range syms[1:] {
		assert.Equal(t, elf.STB_GLOBAL, elf.ST_BIND(s.Info))
		assert.Equal(t, elf.STT_NOTYPE, elf.ST_TYPE(s.Info))
		assert.Equal(t, uint16(TextSection), s.Shndx)
		assert.Zero(t, s.Size)
	}
	assert.Equal(t, []byte("\x00foo\x00bar\x00"), u.Strtab)
	assert.Equal(t, map[string]int{"foo": 1, "bar": 2}, u.SymIndex)
}

func TestBuildSymtabTrailingLabel(t *testing.T) {
	u := unit([]int{0}, 1, map[string]int{"end": 1}, []string{"end"})
	BuildSymtab(u)
	syms := symbols(t, u)
	require.Len(t, syms, 2)
	assert.Equal(t, uint64(1), syms[1].Value)
}

func TestBuildSymtabEmpty(t *testing.T) {
	u := ast.NewUnit("t.s")
	require.NoError(t, Build(u))
	assert.Len(t, u.Symtab, elf.Sym64Size)
	assert.Equal(t, []byte{0}, u.Strtab)
	assert.Empty(t, u.RelaText)
}

func TestBuildRelaText(t *testing.T) {
	u := unit([]int{0, 1, 4, 9, 10, 11}, 12,
		map[string]int{"foo": 0, "bar": 5}, []string{"foo", "bar"},
		ast.PendingReloc{Offset: 5, Name: "bar", Kind: arch.RelocRel32})
	require.NoError(t, Build(u))

	rs := relas(t, u)
	require.Len(t, rs, 1)
	assert.Equal(t, uint64(5), rs[0].Off)
	assert.Equal(t, int64(-4), rs[0].Addend)
	assert.Equal(t, uint32(2), elf.R_SYM64(rs[0].Info))
	assert.Equal(t, uint32(elf.R_X86_64_PC32), elf.R_TYPE64(rs[0].Info))
}

func TestBuildRelaTextUndefinedSymbol(t *testing.T) {
	tok := token.Token{Kind: token.IDENT, Lit: "nope", Ident: "nope", Pos: token.Pos{File: "t.s", Line: 3, Col: 6}}
	u := unit([]int{0}, 5, map[string]int{"foo": 0}, []string{"foo"},
		ast.PendingReloc{Offset: 1, Name: "nope", Kind: arch.RelocRel32, Tok: tok})

	err := Build(u)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.Link, de.Kind)
	assert.Equal(t, "undefined symbol: nope.", de.Msg)
	assert.Equal(t, "t.s:3:6: error: undefined symbol: nope.", de.Error())
}
