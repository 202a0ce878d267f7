// debug_cpu_z80.go - Z80/8080 debug adapter for Machine Monitor

package main

import (
	"strings"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

type debugReg struct {
	name    string
	width   int
	group   string
	z80Only bool
	get     func() uint64
	set     func(uint64)
}

// DebugZ80 exposes a cpu.CPU to the monitor. The register set follows the
// current model, so an 8080 shows no shadow or index registers.
type DebugZ80 struct {
	cpu   *cpu.CPU
	regs  []debugReg
	index map[string]int
}

func NewDebugZ80(c *cpu.CPU) *DebugZ80 {
	d := &DebugZ80{cpu: c, index: make(map[string]int)}
	d.regs = []debugReg{
		reg8("A", "general", false, &c.A),
		reg8("F", "flags", false, &c.F),
		reg8("B", "general", false, &c.B),
		reg8("C", "general", false, &c.C),
		reg8("D", "general", false, &c.D),
		reg8("E", "general", false, &c.E),
		reg8("H", "general", false, &c.H),
		reg8("L", "general", false, &c.L),
		{name: "AF", width: 16, group: "pair", get: u16(c.AF), set: set16(c.SetAF)},
		{name: "BC", width: 16, group: "pair", get: u16(c.BC), set: set16(c.SetBC)},
		{name: "DE", width: 16, group: "pair", get: u16(c.DE), set: set16(c.SetDE)},
		{name: "HL", width: 16, group: "pair", get: u16(c.HL), set: set16(c.SetHL)},
		reg16("SP", "general", false, &c.SP),
		reg16("PC", "general", false, &c.PC),
		reg16("IX", "index", true, &c.IX),
		reg16("IY", "index", true, &c.IY),
		reg8("I", "status", true, &c.I),
		reg8("R", "status", true, &c.R),
		{name: "IM", width: 8, group: "status", z80Only: true,
			get: func() uint64 { return uint64(c.IM) },
			set: func(v uint64) { c.IM = byte(min(v, 2)) }},
		{name: "IFF", width: 8, group: "status",
			get: func() uint64 { return uint64(b2u(c.IFF1) | b2u(c.IFF2)<<1) },
			set: func(v uint64) { c.IFF1, c.IFF2 = v&1 != 0, v&2 != 0 }},
		reg8("A'", "shadow", true, &c.A2),
		reg8("F'", "shadow", true, &c.F2),
		reg8("B'", "shadow", true, &c.B2),
		reg8("C'", "shadow", true, &c.C2),
		reg8("D'", "shadow", true, &c.D2),
		reg8("E'", "shadow", true, &c.E2),
		reg8("H'", "shadow", true, &c.H2),
		reg8("L'", "shadow", true, &c.L2),
		{name: "AF'", width: 16, group: "shadow", z80Only: true, get: u16(c.AF2), set: set16(c.SetAF2)},
		{name: "BC'", width: 16, group: "shadow", z80Only: true, get: u16(c.BC2), set: set16(c.SetBC2)},
		{name: "DE'", width: 16, group: "shadow", z80Only: true, get: u16(c.DE2), set: set16(c.SetDE2)},
		{name: "HL'", width: 16, group: "shadow", z80Only: true, get: u16(c.HL2), set: set16(c.SetHL2)},
		flagReg(c, "FS", cpu.FlagS, false),
		flagReg(c, "FZ", cpu.FlagZ, false),
		flagReg(c, "FH", cpu.FlagH, false),
		flagReg(c, "FP", cpu.FlagPV, false),
		flagReg(c, "FN", cpu.FlagN, true),
		flagReg(c, "FC", cpu.FlagC, false),
	}
	for i, r := range d.regs {
		d.index[r.name] = i
	}
	// Intel names for the 8080 pairs
	d.index["PSW"] = d.index["AF"]
	d.index["M"] = d.index["HL"]
	return d
}

func reg8(name, group string, z80Only bool, p *byte) debugReg {
	return debugReg{name: name, width: 8, group: group, z80Only: z80Only,
		get: func() uint64 { return uint64(*p) },
		set: func(v uint64) { *p = byte(v) }}
}

func reg16(name, group string, z80Only bool, p *uint16) debugReg {
	return debugReg{name: name, width: 16, group: group, z80Only: z80Only,
		get: func() uint64 { return uint64(*p) },
		set: func(v uint64) { *p = uint16(v) }}
}

func flagReg(c *cpu.CPU, name string, mask byte, z80Only bool) debugReg {
	return debugReg{name: name, width: 1, group: "flags", z80Only: z80Only,
		get: func() uint64 { return uint64(b2u(c.Flag(mask))) },
		set: func(v uint64) { c.SetFlag(mask, v != 0) }}
}

func u16(fn func() uint16) func() uint64 {
	return func() uint64 { return uint64(fn()) }
}

func set16(fn func(uint16)) func(uint64) {
	return func(v uint64) { fn(uint16(v)) }
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (d *DebugZ80) CPUName() string { return d.cpu.Model().String() }

func (d *DebugZ80) isZ80() bool { return d.cpu.Model() == cpu.ModelZ80 }

func (d *DebugZ80) lookup(name string) (debugReg, bool) {
	i, ok := d.index[strings.ToUpper(name)]
	if !ok {
		return debugReg{}, false
	}
	r := d.regs[i]
	if r.z80Only && !d.isZ80() {
		return debugReg{}, false
	}
	return r, true
}

func (d *DebugZ80) GetRegisters() []RegisterInfo {
	out := make([]RegisterInfo, 0, len(d.regs))
	for _, r := range d.regs {
		if r.z80Only && !d.isZ80() {
			continue
		}
		out = append(out, RegisterInfo{Name: r.name, BitWidth: r.width, Value: r.get(), Group: r.group})
	}
	return out
}

func (d *DebugZ80) GetRegister(name string) (uint64, bool) {
	r, ok := d.lookup(name)
	if !ok {
		return 0, false
	}
	return r.get(), true
}

func (d *DebugZ80) SetRegister(name string, value uint64) bool {
	r, ok := d.lookup(name)
	if !ok {
		return false
	}
	r.set(value)
	return true
}

func (d *DebugZ80) GetPC() uint16     { return d.cpu.PC }
func (d *DebugZ80) SetPC(addr uint16) { d.cpu.PC = addr }
func (d *DebugZ80) Cycles() uint64    { return d.cpu.Cycles }

func (d *DebugZ80) Step() (int, error) {
	return d.cpu.Step()
}

func (d *DebugZ80) Disassemble(addr uint16, count int) []DisassembledLine {
	read := d.cpu.Memory().Peek
	var lines []DisassembledLine
	if d.isZ80() {
		lines = disassembleZ80(read, addr, count)
	} else {
		lines = disassemble8080(read, addr, count)
	}
	for i := range lines {
		if lines[i].Address == d.cpu.PC {
			lines[i].IsPC = true
		}
	}
	return lines
}

func (d *DebugZ80) ReadMemory(addr uint16, size int) []byte {
	mem := d.cpu.Memory()
	result := make([]byte, size)
	for i := range size {
		result[i] = mem.Peek(addr + uint16(i))
	}
	return result
}

func (d *DebugZ80) WriteMemory(addr uint16, data []byte) {
	mem := d.cpu.Memory()
	for i, b := range data {
		mem.Poke(addr+uint16(i), b)
	}
}
