package x86_64

import (
	"bytes"
	"encoding/binary"
)

const (
	modDisp0  = 0
	modDisp8  = 1
	modDisp32 = 2
	modReg    = 3
)

// rex builds 0100WRXB from the high bit of each register number.
func rex(w bool, r, x, b int) byte {
	var p byte = 0x40
	if w {
		p |= 0x08
	}
	p |= byte((r>>3)&1) << 2
	p |= byte((x>>3)&1) << 1
	p |= byte((b >> 3) & 1)
	return p
}

// writeRex emits a REX prefix only when W is needed or a register is r8-r15.
func writeRex(buf *bytes.Buffer, w bool, r, x, b int) {
	if w || r >= 8 || x >= 8 || b >= 8 {
		buf.WriteByte(rex(w, r, x, b))
	}
}

func modRM(mod, reg, rm int) byte {
	return byte(mod<<6)&0xC0 | byte(reg<<3)&0x38 | byte(rm)&0x07
}

// sibNoIndex is scale 1, index 100 (none), base b.
func sibNoIndex(base int) byte {
	return 0x20 | byte(base)&0x07
}

func modForDisp(disp int32) int {
	switch {
	case disp == 0:
		return modDisp0
	case disp >= -128 && disp < 128:
		return modDisp8
	default:
		return modDisp32
	}
}

func writeDisp(buf *bytes.Buffer, mod int, disp int32) {
	switch mod {
	case modDisp8:
		buf.WriteByte(byte(int8(disp)))
	case modDisp32:
		writeImm32(buf, disp)
	}
}

func writeImm32(buf *bytes.Buffer, v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	buf.Write(tmp[:])
}

// opcodeReg folds the low three register bits into an opcode byte.
func opcodeReg(op byte, reg int) byte {
	return op&0xF8 | byte(reg&7)
}
