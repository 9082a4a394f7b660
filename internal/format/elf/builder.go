package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"gas64/internal/arch"
	"gas64/internal/format"

	"github.com/pkg/errors"
)

type Builder struct {
	arch arch.Arch
}

func NewBuilder(a arch.Arch) *Builder {
	return &Builder{arch: a}
}

func (b *Builder) Format() format.Format {
	return format.FormatELF
}

func (b *Builder) Extension() string {
	return ".o"
}

func (b *Builder) Build(input *format.BuilderInput) ([]byte, error) {
	a := input.Arch
	if a == arch.ArchUnknown {
		a = b.arch
	}
	return BuildObject(a, input)
}

// Section header indices.
const (
	shNull = iota
	shText
	shSymtab
	shStrtab
	shRelaText
	shShstrtab
	shNum
)

const (
	ehSize = 64
	shSize = 64
)

type section struct {
	name      string
	typ       elf.SectionType
	flags     elf.SectionFlag
	data      []byte
	link      uint32
	info      uint32
	addralign uint64
	entsize   uint64
}

// BuildObject lays out an ELF64 relocatable object:
//
//	header | .text | .symtab | .strtab | .rela.text | .shstrtab | section headers
func BuildObject(a arch.Arch, input *format.BuilderInput) ([]byte, error) {
	machine := a.Machine()
	if machine == elf.EM_NONE {
		return nil, errors.Errorf("elf: unsupported architecture %s", a)
	}

	secs := [shNum]section{
		shText: {name: ".text", typ: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR,
			data: input.Text, addralign: 16},
		// sh_info is the index of the first global symbol; only the null one is local.
		shSymtab: {name: ".symtab", typ: elf.SHT_SYMTAB, data: input.Symtab,
			link: shStrtab, info: 1, addralign: 8, entsize: elf.Sym64Size},
		shStrtab: {name: ".strtab", typ: elf.SHT_STRTAB, data: input.Strtab, addralign: 1},
		shRelaText: {name: ".rela.text", typ: elf.SHT_RELA, flags: elf.SHF_INFO_LINK, data: input.RelaText,
			link: shSymtab, info: shText, addralign: 8, entsize: 24},
		shShstrtab: {name: ".shstrtab", typ: elf.SHT_STRTAB, addralign: 1},
	}

	shstrtab := []byte{0}
	names := make([]uint32, shNum)
	for i := shText; i < shNum; i++ {
		names[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, secs[i].name...)
		shstrtab = append(shstrtab, 0)
	}
	secs[shShstrtab].data = shstrtab

	var body bytes.Buffer
	body.Write(make([]byte, ehSize))
	offsets := make([]uint64, shNum)
	for i := shText; i < shNum; i++ {
		pad(&body, secs[i].addralign)
		offsets[i] = uint64(body.Len())
		body.Write(secs[i].data)
	}
	pad(&body, 8)
	shoff := uint64(body.Len())

	for i := 0; i < shNum; i++ {
		s := secs[i]
		hdr := elf.Section64{}
		if i != shNull {
			hdr = elf.Section64{
				Name:      names[i],
				Type:      uint32(s.typ),
				Flags:     uint64(s.flags),
				Off:       offsets[i],
				Size:      uint64(len(s.data)),
				Link:      s.link,
				Info:      s.info,
				Addralign: s.addralign,
				Entsize:   s.entsize,
			}
		}
		if err := binary.Write(&body, binary.LittleEndian, hdr); err != nil {
			return nil, errors.Wrap(err, "elf: writing section header")
		}
	}

	out := body.Bytes()
	var hdr bytes.Buffer
	if err := binary.Write(&hdr, binary.LittleEndian, header(machine, shoff)); err != nil {
		return nil, errors.Wrap(err, "elf: writing file header")
	}
	copy(out, hdr.Bytes())
	return out, nil
}

func header(machine elf.Machine, shoff uint64) elf.Header64 {
	h := elf.Header64{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    ehSize,
		Shentsize: shSize,
		Shnum:     shNum,
		Shstrndx:  shShstrtab,
	}
	copy(h.Ident[:], elf.ELFMAG)
	h.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	h.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	h.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	h.Ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)
	return h
}

func pad(buf *bytes.Buffer, align uint64) {
	if align <= 1 {
		return
	}
	for uint64(buf.Len())%align != 0 {
		buf.WriteByte(0)
	}
}
