package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memReader(code []byte) func(uint16) byte {
	return func(addr uint16) byte {
		if int(addr) < len(code) {
			return code[addr]
		}
		return 0
	}
}

func TestDisassembleZ80(t *testing.T) {
	tests := []struct {
		code []byte
		want string
		size int
	}{
		{[]byte{0x00}, "NOP", 1},
		{[]byte{0x3E, 0x48}, "LD A, $48", 2},
		{[]byte{0x21, 0x34, 0x12}, "LD HL, $1234", 3},
		{[]byte{0x76}, "HALT", 1},
		{[]byte{0x18, 0xFE}, "JR $0000", 2},
		{[]byte{0x10, 0x00}, "DJNZ $0002", 2},
		{[]byte{0x80}, "ADD A, B", 1},
		{[]byte{0xFE, 0x0D}, "CP $0D", 2},
		{[]byte{0xD3, 0x01}, "OUT ($01), A", 2},
		{[]byte{0xCB, 0x7E}, "BIT 7, (HL)", 2},
		{[]byte{0xCB, 0x30}, "SLL B*", 2},
		{[]byte{0xDD, 0x36, 0x05, 0x12}, "LD (IX+5), $12", 4},
		{[]byte{0xFD, 0x7E, 0xFE}, "LD A, (IY-2)", 3},
		{[]byte{0xDD, 0x66, 0x01}, "LD H, (IX+1)", 3},
		{[]byte{0xDD, 0x24}, "INC IXH*", 2},
		{[]byte{0xDD, 0xCB, 0x02, 0x46}, "BIT 0, (IX+2)", 4},
		{[]byte{0xDD, 0x00}, "NOP*", 1},
		{[]byte{0xED, 0xB0}, "LDIR", 2},
		{[]byte{0xED, 0x4D}, "RETI", 2},
		{[]byte{0xED, 0x5E}, "IM 2", 2},
		{[]byte{0xED, 0x00}, "NOP*", 2},
		{[]byte{0x08}, "EX AF, AF'", 1},
		{[]byte{0xFF}, "RST $38", 1},
	}

	for _, tt := range tests {
		lines := disassembleZ80(memReader(tt.code), 0, 1)
		require.Len(t, lines, 1)
		assert.Equal(t, tt.want, lines[0].Mnemonic, "% X", tt.code)
		assert.Equal(t, tt.size, lines[0].Size, "% X", tt.code)
	}
}

func TestDisassembleZ80Sequence(t *testing.T) {
	code := []byte{
		0x3E, 0x01, // LD A,1
		0xC3, 0x00, 0x10, // JP 1000H
		0x00,
	}
	lines := disassembleZ80(memReader(code), 0, 3)
	require.Len(t, lines, 3)

	assert.Equal(t, uint16(0), lines[0].Address)
	assert.Equal(t, "3E 01", lines[0].HexBytes)
	assert.Equal(t, uint16(2), lines[1].Address)
	assert.True(t, lines[1].IsBranch)
	assert.Equal(t, uint16(0x1000), lines[1].BranchTarget)
	assert.Equal(t, uint16(5), lines[2].Address)
}

func TestDisassemble8080(t *testing.T) {
	tests := []struct {
		code []byte
		want string
	}{
		{[]byte{0x00}, "NOP"},
		{[]byte{0x08}, "NOP*"},
		{[]byte{0x3E, 0x48}, "MVI A, $48"},
		{[]byte{0x21, 0x34, 0x12}, "LXI H, $1234"},
		{[]byte{0x76}, "HLT"},
		{[]byte{0x7E}, "MOV A, M"},
		{[]byte{0x86}, "ADD M"},
		{[]byte{0xC2, 0x00, 0x20}, "JNZ $2000"},
		{[]byte{0xCB, 0x00, 0x20}, "JMP $2000*"},
		{[]byte{0xD9}, "RET*"},
		{[]byte{0xF5}, "PUSH PSW"},
		{[]byte{0xDB, 0x10}, "IN $10"},
		{[]byte{0xFE, 0x0D}, "CPI $0D"},
		{[]byte{0x17}, "RAL"},
		{[]byte{0xEF}, "RST 5"},
	}

	for _, tt := range tests {
		lines := disassemble8080(memReader(tt.code), 0, 1)
		require.Len(t, lines, 1)
		assert.Equal(t, tt.want, lines[0].Mnemonic, "% X", tt.code)
	}
}
