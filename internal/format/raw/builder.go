package raw

import "gas64/internal/format"

// Builder writes the text bytes alone.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Format() format.Format {
	return format.FormatRaw
}

func (b *Builder) Extension() string {
	return ".bin"
}

func (b *Builder) Build(input *format.BuilderInput) ([]byte, error) {
	out := make([]byte, len(input.Text))
	copy(out, input.Text)
	return out, nil
}
