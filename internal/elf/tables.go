package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"gas64/internal/ast"
	"gas64/internal/diag"

	"github.com/sirupsen/logrus"
)

// TextSection is the section header index every symbol is defined in.
const TextSection = 1

// Build runs both table passes over an encoded unit.
func Build(u *ast.Unit) error {
	BuildSymtab(u)
	return BuildRelaText(u)
}

// BuildSymtab fills u.Symtab, u.Strtab and u.SymIndex from the labels, in
// definition order, after the reserved null symbol and empty name.
func BuildSymtab(u *ast.Unit) {
	var symtab bytes.Buffer
	var strtab bytes.Buffer
	index := make(map[string]int, u.Labels.Len())

	writeSym(&symtab, elf.Sym64{})
	strtab.WriteByte(0)

	u.Labels.Each(func(i int, l *ast.Label) {
		writeSym(&symtab, elf.Sym64{
			Name:  uint32(strtab.Len()),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_NOTYPE),
			Other: byte(elf.STV_DEFAULT),
			Shndx: TextSection,
			Value: uint64(labelAddr(u, l)),
		})
		strtab.WriteString(l.Name)
		strtab.WriteByte(0)
		index[l.Name] = i + 1
	})

	u.Symtab = symtab.Bytes()
	u.Strtab = strtab.Bytes()
	u.SymIndex = index
}

// labelAddr is the offset of the instruction a label precedes. A label after
// the last instruction sits at the end of the text.
func labelAddr(u *ast.Unit, l *ast.Label) int {
	if l.Inst < len(u.Offsets) {
		return u.Offsets[l.Inst]
	}
	return len(u.Text)
}

// BuildRelaText resolves every pending relocation against u.SymIndex.
func BuildRelaText(u *ast.Unit) error {
	var rela bytes.Buffer
	for _, r := range u.Relocs {
		idx, ok := u.SymIndex[r.Name]
		if !ok {
			return diag.Errorf(diag.Link, r.Tok, "undefined symbol: %s.", r.Name)
		}
		// The CPU adds the displacement to the address after the 4-byte field.
		writeRela(&rela, elf.Rela64{
			Off:    uint64(r.Offset),
			Info:   elf.R_INFO(uint32(idx), uint32(r.Kind.ELFType())),
			Addend: -4,
		})
	}
	u.RelaText = rela.Bytes()
	logrus.Debugf("%s: %d symbols, %d relocations", u.File, len(u.SymIndex), len(u.Relocs))
	return nil
}

func writeSym(buf *bytes.Buffer, s elf.Sym64) {
	// Writes into a bytes.Buffer of fixed-size values cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, s)
}

func writeRela(buf *bytes.Buffer, r elf.Rela64) {
	_ = binary.Write(buf, binary.LittleEndian, r)
}
