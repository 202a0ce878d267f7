package cpu

// index selects IX or IY for the DD and FD tables.
type index byte

const (
	useIX index = iota
	useIY
)

func (c *CPU) idx(x index) *uint16 {
	if x == useIY {
		return &c.IY
	}
	return &c.IX
}

// idxReg8 reads register code with H and L replaced by the index halves.
func (c *CPU) idxReg8(x index, code byte) byte {
	switch code {
	case 4:
		return byte(*c.idx(x) >> 8)
	case 5:
		return byte(*c.idx(x))
	default:
		return c.reg8(code)
	}
}

func (c *CPU) setIdxReg8(x index, code byte, value byte) {
	r := c.idx(x)
	switch code {
	case 4:
		*r = *r&0x00FF | uint16(value)<<8
	case 5:
		*r = *r&0xFF00 | uint16(value)
	default:
		c.setReg8(code, value)
	}
}

// indexAddr fetches the displacement and returns IX+d or IY+d.
func (c *CPU) indexAddr(x index) uint16 {
	d := int8(c.fetchByte())
	addr := uint16(int32(*c.idx(x)) + int32(d))
	c.WZ = addr
	return addr
}

// indexPrefix dispatches the opcode following DD or FD. An opcode with no
// index form makes the prefix a 4 T-state NOP when undocumented opcodes
// are enabled; the opcode then runs as the next instruction.
func (c *CPU) indexPrefix(t *opTable) {
	op := c.fetchOpcode()
	if t[op].exec == nil {
		if !c.cfg.Undocumented {
			c.trap(ErrOpTrap2)
			return
		}
		c.PC--
		c.addR(0x7F)
		c.tick(4)
		return
	}
	c.dispatch(t, op, ErrOpTrap2)
}

func buildIndexOps(t *opTable, x index) {
	for rr := byte(0); rr < 4; rr++ {
		pair := rr
		t.set(int(0x09|pair<<4), 15, func(c *CPU) {
			r := c.idx(x)
			v := *r
			if pair != 2 {
				v = c.reg16(pair, false)
			}
			*r = c.add16(*r, v)
		})
	}

	t.set(0x21, 14, func(c *CPU) { *c.idx(x) = c.fetchWord() })
	t.set(0x22, 20, func(c *CPU) {
		addr := c.fetchWord()
		c.writeWord(addr, *c.idx(x))
		c.WZ = addr + 1
	})
	t.set(0x2A, 20, func(c *CPU) {
		addr := c.fetchWord()
		*c.idx(x) = c.readWord(addr)
		c.WZ = addr + 1
	})
	t.set(0x23, 10, func(c *CPU) { *c.idx(x)++ })
	t.set(0x2B, 10, func(c *CPU) { *c.idx(x)-- })

	for _, h := range []byte{4, 5} {
		half := h
		t.setUndoc(int(0x04|half<<3), 8, func(c *CPU) {
			c.setIdxReg8(x, half, c.inc8(c.idxReg8(x, half)))
		})
		t.setUndoc(int(0x05|half<<3), 8, func(c *CPU) {
			c.setIdxReg8(x, half, c.dec8(c.idxReg8(x, half)))
		})
		t.setUndoc(int(0x06|half<<3), 11, func(c *CPU) {
			c.setIdxReg8(x, half, c.fetchByte())
		})
	}

	t.set(0x34, 23, func(c *CPU) {
		addr := c.indexAddr(x)
		c.write(addr, c.inc8(c.read(addr)))
	})
	t.set(0x35, 23, func(c *CPU) {
		addr := c.indexAddr(x)
		c.write(addr, c.dec8(c.read(addr)))
	})
	t.set(0x36, 19, func(c *CPU) {
		addr := c.indexAddr(x)
		c.write(addr, c.fetchByte())
	})

	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue
		}
		dest := byte(op>>3) & 7
		src := byte(op) & 7
		switch {
		case src == regMem:
			t.set(op, 19, func(c *CPU) {
				c.setReg8(dest, c.read(c.indexAddr(x)))
			})
		case dest == regMem:
			t.set(op, 19, func(c *CPU) {
				c.write(c.indexAddr(x), c.reg8(src))
			})
		case dest == 4 || dest == 5 || src == 4 || src == 5:
			t.setUndoc(op, 8, func(c *CPU) {
				c.setIdxReg8(x, dest, c.idxReg8(x, src))
			})
		}
	}

	for op := 0x80; op <= 0xBF; op++ {
		alu := aluOp((op >> 3) & 7)
		src := byte(op) & 7
		switch src {
		case regMem:
			t.set(op, 19, func(c *CPU) {
				c.performALU(alu, c.read(c.indexAddr(x)))
			})
		case 4, 5:
			t.setUndoc(op, 8, func(c *CPU) {
				c.performALU(alu, c.idxReg8(x, src))
			})
		}
	}

	t.set(0xE1, 14, func(c *CPU) { *c.idx(x) = c.popWord() })
	t.set(0xE5, 15, func(c *CPU) { c.pushWord(*c.idx(x)) })
	t.set(0xE3, 23, func(c *CPU) {
		r := c.idx(x)
		*r = c.exSP(*r)
	})
	t.set(0xE9, 8, func(c *CPU) { c.PC = *c.idx(x) })
	t.set(0xF9, 10, func(c *CPU) { c.SP = *c.idx(x) })

	cb := &z80DDCB
	if x == useIY {
		cb = &z80FDCB
	}
	t.set(0xCB, 0, func(c *CPU) {
		c.ea = c.indexAddr(x)
		c.dispatch(cb, c.fetchByte(), ErrOpTrap4)
	})
}

// buildIndexCB fills the DDCB or FDCB table. Entries operate on c.ea; the
// register forms also copy the result to the register.
func buildIndexCB(t *opTable) {
	for op := 0x00; op <= 0xFF; op++ {
		group := byte(op>>3) & 7
		reg := byte(op) & 7
		doc := reg == regMem

		var cost int
		var exec func(*CPU)
		switch {
		case op < 0x40:
			cost = 23
			doc = doc && group != rotSLL
			exec = func(c *CPU) {
				v := c.rotate(group, c.read(c.ea))
				c.write(c.ea, v)
				if reg != regMem {
					c.setReg8(reg, v)
				}
			}
		case op < 0x80:
			cost = 20
			exec = func(c *CPU) {
				c.bit(group, c.read(c.ea), byte(c.ea>>8))
			}
		default:
			cost = 23
			set := op >= 0xC0
			mask := byte(1) << group
			exec = func(c *CPU) {
				v := c.read(c.ea)
				if set {
					v |= mask
				} else {
					v &^= mask
				}
				c.write(c.ea, v)
				if reg != regMem {
					c.setReg8(reg, v)
				}
			}
		}
		if doc {
			t.set(op, cost, exec)
		} else {
			t.setUndoc(op, cost, exec)
		}
	}
}
