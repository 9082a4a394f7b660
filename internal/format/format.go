package format

import "gas64/internal/arch"

type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatRaw:
		return "raw"
	default:
		return "unknown"
	}
}

func ParseFormat(s string) Format {
	switch s {
	case "elf", "obj", "o":
		return FormatELF
	case "raw", "bin":
		return FormatRaw
	default:
		return FormatUnknown
	}
}

// BuilderInput is the four table buffers of one assembled unit.
type BuilderInput struct {
	Arch     arch.Arch
	Text     []byte
	Symtab   []byte
	Strtab   []byte
	RelaText []byte
}

type Builder interface {
	Format() Format
	Build(input *BuilderInput) ([]byte, error)
	Extension() string
}
