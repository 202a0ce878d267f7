package cpu

import (
	"github.com/sirupsen/logrus"
)

// opcode is one dispatch table entry. tstates is the base cost; handlers
// add the cost of taken branches and repeated block iterations.
type opcode struct {
	exec    func(*CPU)
	tstates uint8
	undoc   bool
}

type opTable [256]opcode

func (t *opTable) set(op int, tstates int, exec func(*CPU)) {
	t[op] = opcode{exec: exec, tstates: uint8(tstates)}
}

func (t *opTable) setUndoc(op int, tstates int, exec func(*CPU)) {
	t[op] = opcode{exec: exec, tstates: uint8(tstates), undoc: true}
}

var (
	z80Base   opTable
	z80CB     opTable
	z80ED     opTable
	z80DD     opTable
	z80FD     opTable
	z80DDCB   opTable
	z80FDCB   opTable
	i8080Base opTable
)

func init() {
	buildZ80Base(&z80Base)
	buildZ80CB(&z80CB)
	buildZ80ED(&z80ED)
	buildIndexOps(&z80DD, useIX)
	buildIndexOps(&z80FD, useIY)
	buildIndexCB(&z80DDCB)
	buildIndexCB(&z80FDCB)
	build8080(&i8080Base)
}

func (c *CPU) setModel(m Model) {
	c.model = m
	if m == Model8080 {
		c.ops = &i8080Base
		c.F = c.F&^flagXY | flags8080
	} else {
		c.ops = &z80Base
	}
}

// dispatch runs entry op of t, trapping with code when the entry is
// missing or undocumented while undocumented opcodes are disabled.
func (c *CPU) dispatch(t *opTable, op byte, code Error) {
	e := &t[op]
	if e.exec == nil || (e.undoc && !c.cfg.Undocumented) {
		c.trap(code)
		return
	}
	c.tick(int(e.tstates))
	e.exec(c)
}

func (c *CPU) trap(code Error) {
	c.log.WithFields(logrus.Fields{
		"pc":     c.instrPC,
		"opcode": c.opBytes[:c.opLen],
	}).Info("opcode trap")
	c.fail(&Fault{
		Err:    code,
		PC:     c.instrPC,
		Opcode: append([]byte(nil), c.opBytes[:c.opLen]...),
	})
}

// Undocumented reports whether the opcode sequence starting with prefix
// bytes is an undocumented Z80 or 8080 instruction. It is used by tooling
// to annotate disassembly.
func Undocumented(model Model, code []byte) bool {
	if len(code) == 0 {
		return false
	}
	if model == Model8080 {
		return i8080Base[code[0]].undoc
	}
	t := &z80Base
	for i := 0; i < len(code); i++ {
		e := t[code[i]]
		if e.undoc {
			return true
		}
		switch {
		case t == &z80Base && code[i] == 0xCB:
			t = &z80CB
		case t == &z80Base && code[i] == 0xED:
			t = &z80ED
		case t == &z80Base && code[i] == 0xDD:
			t = &z80DD
		case t == &z80Base && code[i] == 0xFD:
			t = &z80FD
		case (t == &z80DD || t == &z80FD) && code[i] == 0xCB:
			if len(code) < i+3 {
				return false
			}
			if t == &z80DD {
				return z80DDCB[code[i+2]].undoc
			}
			return z80FDCB[code[i+2]].undoc
		case (t == &z80DD || t == &z80FD) && e.exec == nil:
			return true
		default:
			return false
		}
	}
	return false
}
