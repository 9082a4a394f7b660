// Package listing prints a disassembly of encoded text next to its bytes.
package listing

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"gas64/internal/ast"

	"golang.org/x/arch/x86/x86asm"
)

type Line struct {
	Offset int
	Bytes  []byte
	Text   string
	Inst   x86asm.Inst
	Bad    bool
	Reloc  string // symbol patched into this instruction, if any
}

// Decode disassembles text from the start. Bytes that fail to decode end the
// walk with one Bad line covering the rest. relocs maps the offset of a
// relocated field to its symbol; an instruction holding one is printed
// against that symbol instead of its placeholder target.
func Decode(text []byte, labels map[int][]string, relocs map[int]string) []Line {
	lookup := func(addr uint64) (string, uint64) {
		if names, ok := labels[int(addr)]; ok {
			return names[0], addr
		}
		return "", 0
	}

	var out []Line
	for off := 0; off < len(text); {
		inst, err := x86asm.Decode(text[off:], 64)
		if err != nil || inst.Len == 0 || inst.Op == 0 {
			out = append(out, Line{Offset: off, Bytes: text[off:], Text: "(bad)", Bad: true})
			break
		}
		l := Line{
			Offset: off,
			Bytes:  text[off : off+inst.Len],
			Text:   x86asm.GNUSyntax(inst, uint64(off), lookup),
			Inst:   inst,
		}
		for at := off; at < off+inst.Len; at++ {
			if name, ok := relocs[at]; ok {
				l.Reloc = name
				l.Text = strings.Fields(l.Text)[0] + " " + name
				break
			}
		}
		out = append(out, l)
		off += inst.Len
	}
	return out
}

// Labels maps text offsets to the label names defined there.
func Labels(u *ast.Unit) map[int][]string {
	m := make(map[int][]string)
	u.Labels.Each(func(_ int, l *ast.Label) {
		off := len(u.Text)
		if l.Inst < len(u.Offsets) {
			off = u.Offsets[l.Inst]
		}
		m[off] = append(m[off], l.Name)
	})
	return m
}

// Relocs maps the offset of each pending relocation field to its symbol.
func Relocs(u *ast.Unit) map[int]string {
	m := make(map[int]string, len(u.Relocs))
	for _, r := range u.Relocs {
		m[r.Offset] = r.Name
	}
	return m
}

func Fprint(w io.Writer, u *ast.Unit) {
	labels := Labels(u)
	lines := Decode(u.Text, labels, Relocs(u))
	printed := make(map[int]bool)
	printLabels := func(off int) {
		if printed[off] {
			return
		}
		printed[off] = true
		names := labels[off]
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s:\n", name)
		}
	}
	for _, l := range lines {
		printLabels(l.Offset)
		fmt.Fprintf(w, "%6x:\t%-24s\t%s\n", l.Offset, hex.EncodeToString(l.Bytes), l.Text)
	}
	printLabels(len(u.Text))
}
