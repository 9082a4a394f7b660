package asm

import (
	"io"

	"gas64/internal/arch"
	"gas64/internal/ast"
	"gas64/internal/elf"
	"gas64/internal/format"
	"gas64/internal/lexer"
	"gas64/internal/parser"
	"gas64/internal/token"

	"github.com/pkg/errors"
)

// Encoder turns a parsed unit into text bytes, offsets and pending relocations.
type Encoder interface {
	Arch() arch.Arch
	WordSize() int
	Encode(u *ast.Unit) error
}

type Assembler struct {
	encoder Encoder
	builder format.Builder
}

func NewAssembler(encoder Encoder, builder format.Builder) *Assembler {
	return &Assembler{
		encoder: encoder,
		builder: builder,
	}
}

// Assemble runs parse, encode and table construction in that order. Any
// *diag.Error is returned as is so the caller can print it.
func (a *Assembler) Assemble(file string, lines []token.Line) (*ast.Unit, error) {
	u, err := parser.Parse(file, lines)
	if err != nil {
		return nil, err
	}
	if err := a.encoder.Encode(u); err != nil {
		return nil, err
	}
	if err := elf.Build(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (a *Assembler) AssembleSource(file string, r io.Reader) (*ast.Unit, error) {
	lines, err := lexer.Lex(file, r)
	if err != nil {
		return nil, err
	}
	return a.Assemble(file, lines)
}

func (a *Assembler) BuildBinary(u *ast.Unit) ([]byte, error) {
	input := &format.BuilderInput{
		Arch:     a.encoder.Arch(),
		Text:     u.Text,
		Symtab:   u.Symtab,
		Strtab:   u.Strtab,
		RelaText: u.RelaText,
	}
	bin, err := a.builder.Build(input)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s output for %s", a.builder.Format(), u.File)
	}
	return bin, nil
}
