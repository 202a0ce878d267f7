// debug_disasm_z80.go - Z80 disassembler for Machine Monitor

package main

import (
	"fmt"
	"strings"
)

// Undocumented instructions are marked with a trailing '*'.
const undocMark = "*"

var (
	z80Reg8  = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	z80Reg16 = [4]string{"BC", "DE", "HL", "SP"}
	z80Push  = [4]string{"BC", "DE", "HL", "AF"}
	z80Cond  = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	z80ALU   = [8]string{"ADD A,", "ADC A,", "SUB", "SBC A,", "AND", "XOR", "OR", "CP"}
	z80Rot   = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
	z80Accum = [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
	z80IM    = [8]string{"0", "0*", "1", "2", "0*", "0*", "1*", "2*"}
	z80Block = [4][4]string{
		{"LDI", "CPI", "INI", "OUTI"},
		{"LDD", "CPD", "IND", "OUTD"},
		{"LDIR", "CPIR", "INIR", "OTIR"},
		{"LDDR", "CPDR", "INDR", "OTDR"},
	}
)

// opcodeReader walks the bytes of one instruction.
type opcodeReader struct {
	read func(addr uint16) byte
	pc   uint16
	size int
}

func (r *opcodeReader) next() byte {
	b := r.read(r.pc + uint16(r.size))
	r.size++
	return b
}

func (r *opcodeReader) word() uint16 {
	lo := r.next()
	return uint16(lo) | uint16(r.next())<<8
}

// relative reads a JR/DJNZ displacement and returns the target address.
func (r *opcodeReader) relative() uint16 {
	d := int8(r.next())
	return r.pc + uint16(r.size) + uint16(d)
}

// decoded is the result of decoding one instruction.
type decoded struct {
	size     int
	mnemonic string
	branch   bool
	target   uint16
}

// z80Index tracks the IX/IY substitution of a DD or FD prefixed opcode.
type z80Index struct {
	name  string
	r     *opcodeReader
	used  bool
	undoc bool
}

func (x *z80Index) reg8(code byte, mem bool) string {
	if x == nil || x.name == "" {
		return z80Reg8[code]
	}
	switch {
	case code == 6:
		x.used = true
		d := int8(x.r.next())
		return fmt.Sprintf("(%s%+d)", x.name, d)
	case (code == 4 || code == 5) && !mem:
		x.used = true
		x.undoc = true
		if code == 4 {
			return x.name + "H"
		}
		return x.name + "L"
	}
	return z80Reg8[code]
}

func (x *z80Index) hl() string {
	if x == nil || x.name == "" {
		return "HL"
	}
	x.used = true
	return x.name
}

func (x *z80Index) reg16(p byte, push bool) string {
	if p == 2 {
		return x.hl()
	}
	if push {
		return z80Push[p]
	}
	return z80Reg16[p]
}

// disassembleZ80 decodes count instructions starting at addr.
func disassembleZ80(read func(addr uint16) byte, addr uint16, count int) []DisassembledLine {
	return disassemble(read, addr, count, decodeZ80)
}

func disassemble(read func(addr uint16) byte, addr uint16, count int, decode func(*opcodeReader) decoded) []DisassembledLine {
	lines := make([]DisassembledLine, 0, count)
	for range count {
		r := &opcodeReader{read: read, pc: addr}
		d := decode(r)

		hexParts := make([]string, d.size)
		for j := range d.size {
			hexParts[j] = fmt.Sprintf("%02X", read(addr+uint16(j)))
		}
		lines = append(lines, DisassembledLine{
			Address:      addr,
			HexBytes:     strings.Join(hexParts, " "),
			Mnemonic:     d.mnemonic,
			Size:         d.size,
			IsBranch:     d.branch,
			BranchTarget: d.target,
		})
		addr += uint16(d.size)
	}
	return lines
}

func decodeZ80(r *opcodeReader) decoded {
	op := r.next()
	switch op {
	case 0xCB:
		return decoded{size: 2, mnemonic: decodeZ80CB(r, nil)}
	case 0xED:
		return decodeZ80ED(r)
	case 0xDD:
		return decodeZ80Index(r, "IX")
	case 0xFD:
		return decodeZ80Index(r, "IY")
	}
	return decodeZ80Base(r, op, nil)
}

func decodeZ80Index(r *opcodeReader, name string) decoded {
	op := r.read(r.pc + 1)
	if op == 0xDD || op == 0xED || op == 0xFD {
		return decoded{size: 1, mnemonic: "NOP" + undocMark}
	}
	r.next()
	x := &z80Index{name: name, r: r}
	if op == 0xCB {
		return decoded{size: 4, mnemonic: decodeZ80CB(r, x)}
	}
	d := decodeZ80Base(r, op, x)
	if !x.used {
		// the prefix is a NOP; the opcode runs as the next instruction
		return decoded{size: 1, mnemonic: "NOP" + undocMark}
	}
	if x.undoc {
		d.mnemonic += undocMark
	}
	d.size = r.size
	return d
}

func decodeZ80Base(r *opcodeReader, op byte, x *z80Index) decoded {
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y&1 == 1

	d := decoded{}
	switch op >> 6 {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				d.mnemonic = "NOP"
			case 1:
				d.mnemonic = "EX AF, AF'"
			case 2:
				d.target = r.relative()
				d.branch = true
				d.mnemonic = fmt.Sprintf("DJNZ $%04X", d.target)
			case 3:
				d.target = r.relative()
				d.branch = true
				d.mnemonic = fmt.Sprintf("JR $%04X", d.target)
			default:
				d.target = r.relative()
				d.branch = true
				d.mnemonic = fmt.Sprintf("JR %s, $%04X", z80Cond[y-4], d.target)
			}
		case 1:
			if q {
				d.mnemonic = fmt.Sprintf("ADD %s, %s", x.hl(), x.reg16(p, false))
			} else {
				reg := x.reg16(p, false)
				d.mnemonic = fmt.Sprintf("LD %s, $%04X", reg, r.word())
			}
		case 2:
			switch {
			case p == 2 && !q:
				d.mnemonic = fmt.Sprintf("LD ($%04X), %s", r.word(), x.hl())
			case p == 2:
				d.mnemonic = fmt.Sprintf("LD %s, ($%04X)", x.hl(), r.word())
			case p == 3 && !q:
				d.mnemonic = fmt.Sprintf("LD ($%04X), A", r.word())
			case p == 3:
				d.mnemonic = fmt.Sprintf("LD A, ($%04X)", r.word())
			case !q:
				d.mnemonic = fmt.Sprintf("LD (%s), A", z80Reg16[p])
			default:
				d.mnemonic = fmt.Sprintf("LD A, (%s)", z80Reg16[p])
			}
		case 3:
			if q {
				d.mnemonic = "DEC " + x.reg16(p, false)
			} else {
				d.mnemonic = "INC " + x.reg16(p, false)
			}
		case 4:
			d.mnemonic = "INC " + x.reg8(y, false)
		case 5:
			d.mnemonic = "DEC " + x.reg8(y, false)
		case 6:
			reg := x.reg8(y, false)
			d.mnemonic = fmt.Sprintf("LD %s, $%02X", reg, r.next())
		case 7:
			d.mnemonic = z80Accum[y]
		}
	case 1:
		if op == 0x76 {
			d.mnemonic = "HALT"
			break
		}
		mem := y == 6 || z == 6
		dst := x.reg8(y, mem)
		d.mnemonic = fmt.Sprintf("LD %s, %s", dst, x.reg8(z, mem))
	case 2:
		d.mnemonic = fmt.Sprintf("%s %s", z80ALU[y], x.reg8(z, false))
	case 3:
		switch z {
		case 0:
			d.mnemonic = "RET " + z80Cond[y]
		case 1:
			switch {
			case !q:
				d.mnemonic = "POP " + x.reg16(p, true)
			case p == 0:
				d.mnemonic = "RET"
			case p == 1:
				d.mnemonic = "EXX"
			case p == 2:
				d.mnemonic = fmt.Sprintf("JP (%s)", x.hl())
			default:
				d.mnemonic = "LD SP, " + x.hl()
			}
		case 2:
			d.target = r.word()
			d.branch = true
			d.mnemonic = fmt.Sprintf("JP %s, $%04X", z80Cond[y], d.target)
		case 3:
			switch y {
			case 0:
				d.target = r.word()
				d.branch = true
				d.mnemonic = fmt.Sprintf("JP $%04X", d.target)
			case 2:
				d.mnemonic = fmt.Sprintf("OUT ($%02X), A", r.next())
			case 3:
				d.mnemonic = fmt.Sprintf("IN A, ($%02X)", r.next())
			case 4:
				d.mnemonic = fmt.Sprintf("EX (SP), %s", x.hl())
			case 5:
				d.mnemonic = "EX DE, HL"
			case 6:
				d.mnemonic = "DI"
			case 7:
				d.mnemonic = "EI"
			}
		case 4:
			d.target = r.word()
			d.branch = true
			d.mnemonic = fmt.Sprintf("CALL %s, $%04X", z80Cond[y], d.target)
		case 5:
			if !q {
				d.mnemonic = "PUSH " + x.reg16(p, true)
			} else {
				d.target = r.word()
				d.branch = true
				d.mnemonic = fmt.Sprintf("CALL $%04X", d.target)
			}
		case 6:
			d.mnemonic = fmt.Sprintf("%s $%02X", z80ALU[y], r.next())
		case 7:
			d.target = uint16(y) * 8
			d.branch = true
			d.mnemonic = fmt.Sprintf("RST $%02X", d.target)
		}
	}
	d.size = r.size
	return d
}

// decodeZ80CB decodes the byte after CB, or the displacement and opcode
// after DD CB / FD CB.
func decodeZ80CB(r *opcodeReader, x *z80Index) string {
	var operand string
	if x != nil {
		operand = x.reg8(6, true)
	}
	op := r.next()
	y := (op >> 3) & 7
	z := op & 7
	if x == nil {
		operand = z80Reg8[z]
	}

	var m string
	switch op >> 6 {
	case 0:
		m = fmt.Sprintf("%s %s", z80Rot[y], operand)
	case 1:
		m = fmt.Sprintf("BIT %d, %s", y, operand)
	case 2:
		m = fmt.Sprintf("RES %d, %s", y, operand)
	default:
		m = fmt.Sprintf("SET %d, %s", y, operand)
	}

	if x != nil && z != 6 {
		if op>>6 != 1 {
			m += ", " + z80Reg8[z]
		}
		m += undocMark
	} else if y == 6 && op>>6 == 0 {
		m += undocMark
	}
	return m
}

func decodeZ80ED(r *opcodeReader) decoded {
	op := r.next()
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y&1 == 1

	d := decoded{}
	switch {
	case op >= 0x40 && op <= 0x7F:
		switch z {
		case 0:
			if y == 6 {
				d.mnemonic = "IN F, (C)" + undocMark
			} else {
				d.mnemonic = fmt.Sprintf("IN %s, (C)", z80Reg8[y])
			}
		case 1:
			if y == 6 {
				d.mnemonic = "OUT (C), 0" + undocMark
			} else {
				d.mnemonic = fmt.Sprintf("OUT (C), %s", z80Reg8[y])
			}
		case 2:
			if q {
				d.mnemonic = "ADC HL, " + z80Reg16[p]
			} else {
				d.mnemonic = "SBC HL, " + z80Reg16[p]
			}
		case 3:
			nn := r.word()
			if q {
				d.mnemonic = fmt.Sprintf("LD %s, ($%04X)", z80Reg16[p], nn)
			} else {
				d.mnemonic = fmt.Sprintf("LD ($%04X), %s", nn, z80Reg16[p])
			}
			if p == 2 {
				d.mnemonic += undocMark
			}
		case 4:
			d.mnemonic = "NEG"
			if y != 0 {
				d.mnemonic += undocMark
			}
		case 5:
			if y == 1 {
				d.mnemonic = "RETI"
			} else {
				d.mnemonic = "RETN"
			}
			if y > 1 {
				d.mnemonic += undocMark
			}
		case 6:
			d.mnemonic = "IM " + z80IM[y]
		case 7:
			d.mnemonic = [8]string{"LD I, A", "LD R, A", "LD A, I", "LD A, R", "RRD", "RLD", "NOP*", "NOP*"}[y]
		}
	case op >= 0xA0 && op <= 0xBF && z <= 3 && y >= 4:
		d.mnemonic = z80Block[y-4][z]
	default:
		d.mnemonic = "NOP" + undocMark
	}
	d.size = r.size
	return d
}
