// debug_disasm_8080.go - Intel 8080 disassembler for Machine Monitor

package main

import "fmt"

var (
	i8080Reg8  = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}
	i8080Pair  = [4]string{"B", "D", "H", "SP"}
	i8080Push  = [4]string{"B", "D", "H", "PSW"}
	i8080Cond  = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	i8080ALU   = [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
	i8080Imm   = [8]string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}
	i8080Accum = [8]string{"RLC", "RRC", "RAL", "RAR", "DAA", "CMA", "STC", "CMC"}
)

func disassemble8080(read func(addr uint16) byte, addr uint16, count int) []DisassembledLine {
	return disassemble(read, addr, count, decode8080)
}

func decode8080(r *opcodeReader) decoded {
	op := r.next()
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y&1 == 1

	d := decoded{}
	switch op >> 6 {
	case 0:
		switch z {
		case 0:
			d.mnemonic = "NOP"
			if y != 0 {
				d.mnemonic += undocMark
			}
		case 1:
			if q {
				d.mnemonic = "DAD " + i8080Pair[p]
			} else {
				d.mnemonic = fmt.Sprintf("LXI %s, $%04X", i8080Pair[p], r.word())
			}
		case 2:
			switch {
			case p == 2 && !q:
				d.mnemonic = fmt.Sprintf("SHLD $%04X", r.word())
			case p == 2:
				d.mnemonic = fmt.Sprintf("LHLD $%04X", r.word())
			case p == 3 && !q:
				d.mnemonic = fmt.Sprintf("STA $%04X", r.word())
			case p == 3:
				d.mnemonic = fmt.Sprintf("LDA $%04X", r.word())
			case !q:
				d.mnemonic = "STAX " + i8080Pair[p]
			default:
				d.mnemonic = "LDAX " + i8080Pair[p]
			}
		case 3:
			if q {
				d.mnemonic = "DCX " + i8080Pair[p]
			} else {
				d.mnemonic = "INX " + i8080Pair[p]
			}
		case 4:
			d.mnemonic = "INR " + i8080Reg8[y]
		case 5:
			d.mnemonic = "DCR " + i8080Reg8[y]
		case 6:
			d.mnemonic = fmt.Sprintf("MVI %s, $%02X", i8080Reg8[y], r.next())
		case 7:
			d.mnemonic = i8080Accum[y]
		}
	case 1:
		if op == 0x76 {
			d.mnemonic = "HLT"
			break
		}
		d.mnemonic = fmt.Sprintf("MOV %s, %s", i8080Reg8[y], i8080Reg8[z])
	case 2:
		d.mnemonic = fmt.Sprintf("%s %s", i8080ALU[y], i8080Reg8[z])
	case 3:
		switch z {
		case 0:
			d.mnemonic = "R" + i8080Cond[y]
		case 1:
			switch {
			case !q:
				d.mnemonic = "POP " + i8080Push[p]
			case p == 0:
				d.mnemonic = "RET"
			case p == 1:
				d.mnemonic = "RET" + undocMark
			case p == 2:
				d.mnemonic = "PCHL"
			default:
				d.mnemonic = "SPHL"
			}
		case 2:
			d.target = r.word()
			d.branch = true
			d.mnemonic = fmt.Sprintf("J%s $%04X", i8080Cond[y], d.target)
		case 3:
			switch y {
			case 0, 1:
				d.target = r.word()
				d.branch = true
				d.mnemonic = fmt.Sprintf("JMP $%04X", d.target)
				if y == 1 {
					d.mnemonic += undocMark
				}
			case 2:
				d.mnemonic = fmt.Sprintf("OUT $%02X", r.next())
			case 3:
				d.mnemonic = fmt.Sprintf("IN $%02X", r.next())
			case 4:
				d.mnemonic = "XTHL"
			case 5:
				d.mnemonic = "XCHG"
			case 6:
				d.mnemonic = "DI"
			case 7:
				d.mnemonic = "EI"
			}
		case 4:
			d.target = r.word()
			d.branch = true
			d.mnemonic = fmt.Sprintf("C%s $%04X", i8080Cond[y], d.target)
		case 5:
			if !q {
				d.mnemonic = "PUSH " + i8080Push[p]
				break
			}
			d.target = r.word()
			d.branch = true
			d.mnemonic = fmt.Sprintf("CALL $%04X", d.target)
			if p != 0 {
				d.mnemonic += undocMark
			}
		case 6:
			d.mnemonic = fmt.Sprintf("%s $%02X", i8080Imm[y], r.next())
		case 7:
			d.target = uint16(y) * 8
			d.branch = true
			d.mnemonic = fmt.Sprintf("RST %d", y)
		}
	}
	d.size = r.size
	return d
}
