package diag

import (
	"bytes"
	"testing"

	"gas64/internal/token"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	tok := token.Token{
		Kind: token.REG,
		Lit:  "%eax",
		Pos:  token.Pos{File: "a.s", Line: 4, Col: 8, Text: "  movq %eax, %rbx"},
	}
	e := Errorf(Parse, tok, "operand type mismatched.")

	var buf bytes.Buffer
	Print(&buf, e)
	assert.Equal(t,
		"a.s:4:8: error: operand type mismatched.\n"+
			"   movq %eax, %rbx\n"+
			"        ^\n",
		buf.String())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	e := Errorf(Link, token.Token{Pos: token.Pos{File: "a.s", Line: 1, Col: 1}}, "undefined symbol: %s.", "foo")
	wrapped := errors.Wrap(e, "assembling")

	var de *Error
	require.ErrorAs(t, wrapped, &de)
	assert.Same(t, e, de)
	assert.Equal(t, "link", de.Kind.String())
	assert.Equal(t, "undefined symbol: foo.", de.Msg)
}
