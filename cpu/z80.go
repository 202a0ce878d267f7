package cpu

// Z80 register codes as encoded in opcode bits: B C D E H L (HL) A.
const regMem = 6

func (c *CPU) reg8(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case regMem:
		return c.read(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) setReg8(code byte, value byte) {
	switch code {
	case 0:
		c.B = value
	case 1:
		c.C = value
	case 2:
		c.D = value
	case 3:
		c.E = value
	case 4:
		c.H = value
	case 5:
		c.L = value
	case regMem:
		c.write(c.HL(), value)
	default:
		c.A = value
	}
}

// reg16 uses the dd encoding BC DE HL SP; af selects AF in place of SP
// for PUSH and POP.
func (c *CPU) reg16(code byte, af bool) uint16 {
	switch code {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		if af {
			return c.AF()
		}
		return c.SP
	}
}

func (c *CPU) setReg16(code byte, af bool, value uint16) {
	switch code {
	case 0:
		c.SetBC(value)
	case 1:
		c.SetDE(value)
	case 2:
		c.SetHL(value)
	default:
		if af {
			c.SetAF(value)
		} else {
			c.SP = value
		}
	}
}

// condition evaluates the cc field: NZ Z NC C PO PE P M.
func (c *CPU) condition(cc byte) bool {
	switch cc {
	case 0:
		return !c.Flag(FlagZ)
	case 1:
		return c.Flag(FlagZ)
	case 2:
		return !c.Flag(FlagC)
	case 3:
		return c.Flag(FlagC)
	case 4:
		return !c.Flag(FlagPV)
	case 5:
		return c.Flag(FlagPV)
	case 6:
		return !c.Flag(FlagS)
	default:
		return c.Flag(FlagS)
	}
}

func buildZ80Base(t *opTable) {
	t.set(0x00, 4, func(c *CPU) {})
	t.set(0x76, 4, (*CPU).opHALT)

	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue
		}
		dest := byte(op>>3) & 7
		src := byte(op) & 7
		cost := 4
		if dest == regMem || src == regMem {
			cost = 7
		}
		t.set(op, cost, func(c *CPU) {
			c.setReg8(dest, c.reg8(src))
		})
	}

	for r := byte(0); r < 8; r++ {
		reg := r
		imm, incdec := 7, 4
		if reg == regMem {
			imm, incdec = 10, 11
		}
		t.set(int(0x06|reg<<3), imm, func(c *CPU) {
			c.setReg8(reg, c.fetchByte())
		})
		t.set(int(0x04|reg<<3), incdec, func(c *CPU) {
			if reg == regMem {
				addr := c.HL()
				c.write(addr, c.inc8(c.read(addr)))
				return
			}
			c.setReg8(reg, c.inc8(c.reg8(reg)))
		})
		t.set(int(0x05|reg<<3), incdec, func(c *CPU) {
			if reg == regMem {
				addr := c.HL()
				c.write(addr, c.dec8(c.read(addr)))
				return
			}
			c.setReg8(reg, c.dec8(c.reg8(reg)))
		})
	}

	for op := 0x80; op <= 0xBF; op++ {
		alu := aluOp((op >> 3) & 7)
		src := byte(op) & 7
		cost := 4
		if src == regMem {
			cost = 7
		}
		t.set(op, cost, func(c *CPU) {
			c.performALU(alu, c.reg8(src))
		})
	}
	for a := aluAdd; a <= aluCp; a++ {
		alu := a
		t.set(0xC6|int(alu)<<3, 7, func(c *CPU) {
			c.performALU(alu, c.fetchByte())
		})
	}
	// SUB A has a fixed result
	t.set(0x97, 4, func(c *CPU) {
		c.A = 0
		c.F = FlagZ | FlagN
	})

	for rr := byte(0); rr < 4; rr++ {
		pair := rr
		t.set(int(0x01|pair<<4), 10, func(c *CPU) {
			c.setReg16(pair, false, c.fetchWord())
		})
		t.set(int(0x03|pair<<4), 6, func(c *CPU) {
			c.setReg16(pair, false, c.reg16(pair, false)+1)
		})
		t.set(int(0x0B|pair<<4), 6, func(c *CPU) {
			c.setReg16(pair, false, c.reg16(pair, false)-1)
		})
		t.set(int(0x09|pair<<4), 11, func(c *CPU) {
			c.SetHL(c.add16(c.HL(), c.reg16(pair, false)))
		})
		t.set(int(0xC1|pair<<4), 10, func(c *CPU) {
			c.setReg16(pair, true, c.popWord())
		})
		t.set(int(0xC5|pair<<4), 11, func(c *CPU) {
			c.pushWord(c.reg16(pair, true))
		})
	}

	for cc := byte(0); cc < 8; cc++ {
		cond := cc
		t.set(int(0xC2|cond<<3), 10, func(c *CPU) {
			addr := c.fetchWord()
			c.WZ = addr
			if c.condition(cond) {
				c.PC = addr
			}
		})
		t.set(int(0xC4|cond<<3), 10, func(c *CPU) {
			addr := c.fetchWord()
			c.WZ = addr
			if c.condition(cond) {
				c.pushWord(c.PC)
				c.PC = addr
				c.tick(7)
			}
		})
		t.set(int(0xC0|cond<<3), 5, func(c *CPU) {
			if c.condition(cond) {
				c.PC = c.popWord()
				c.WZ = c.PC
				c.tick(6)
			}
		})
		vector := uint16(cond) << 3
		t.set(int(0xC7|cond<<3), 11, func(c *CPU) {
			c.pushWord(c.PC)
			c.PC = vector
			c.WZ = vector
		})
	}
	for cc := byte(0); cc < 4; cc++ {
		cond := cc
		t.set(int(0x20|cond<<3), 7, func(c *CPU) {
			c.jr(c.condition(cond))
		})
	}

	t.set(0x02, 7, func(c *CPU) {
		c.write(c.BC(), c.A)
		c.WZ = uint16(c.A)<<8 | (c.BC()+1)&0xFF
	})
	t.set(0x12, 7, func(c *CPU) {
		c.write(c.DE(), c.A)
		c.WZ = uint16(c.A)<<8 | (c.DE()+1)&0xFF
	})
	t.set(0x0A, 7, func(c *CPU) {
		c.A = c.read(c.BC())
		c.WZ = c.BC() + 1
	})
	t.set(0x1A, 7, func(c *CPU) {
		c.A = c.read(c.DE())
		c.WZ = c.DE() + 1
	})
	t.set(0x22, 16, func(c *CPU) {
		addr := c.fetchWord()
		c.writeWord(addr, c.HL())
		c.WZ = addr + 1
	})
	t.set(0x2A, 16, func(c *CPU) {
		addr := c.fetchWord()
		c.SetHL(c.readWord(addr))
		c.WZ = addr + 1
	})
	t.set(0x32, 13, func(c *CPU) {
		addr := c.fetchWord()
		c.write(addr, c.A)
		c.WZ = uint16(c.A)<<8 | (addr+1)&0xFF
	})
	t.set(0x3A, 13, func(c *CPU) {
		addr := c.fetchWord()
		c.A = c.read(addr)
		c.WZ = addr + 1
	})

	t.set(0x07, 4, func(c *CPU) { c.rotateA(rotRLC) })
	t.set(0x0F, 4, func(c *CPU) { c.rotateA(rotRRC) })
	t.set(0x17, 4, func(c *CPU) { c.rotateA(rotRL) })
	t.set(0x1F, 4, func(c *CPU) { c.rotateA(rotRR) })

	t.set(0x08, 4, (*CPU).ExAF)
	t.set(0xD9, 4, (*CPU).Exx)
	t.set(0xEB, 4, func(c *CPU) {
		c.D, c.H = c.H, c.D
		c.E, c.L = c.L, c.E
	})
	t.set(0xE3, 19, func(c *CPU) {
		c.SetHL(c.exSP(c.HL()))
	})

	t.set(0x10, 8, func(c *CPU) {
		c.B--
		c.jr(c.B != 0)
	})
	t.set(0x18, 7, func(c *CPU) { c.jr(true) })

	t.set(0x27, 4, (*CPU).daa)
	t.set(0x2F, 4, func(c *CPU) {
		c.A = ^c.A
		c.F = c.F&(flagSZP|FlagC) | FlagH | FlagN | c.xy(c.A)
	})
	t.set(0x37, 4, func(c *CPU) {
		c.F = c.F&flagSZP | FlagC | c.scfXY()
		c.modF = true
	})
	t.set(0x3F, 4, func(c *CPU) {
		fl := c.F&flagSZP | c.scfXY()
		c.modF = true
		if c.Flag(FlagC) {
			fl |= FlagH
		} else {
			fl |= FlagC
		}
		c.F = fl
	})

	t.set(0xC3, 10, func(c *CPU) {
		c.PC = c.fetchWord()
		c.WZ = c.PC
	})
	t.set(0xCD, 17, func(c *CPU) {
		addr := c.fetchWord()
		c.pushWord(c.PC)
		c.PC = addr
		c.WZ = addr
	})
	t.set(0xC9, 10, func(c *CPU) {
		c.PC = c.popWord()
		c.WZ = c.PC
	})
	t.set(0xE9, 4, func(c *CPU) { c.PC = c.HL() })
	t.set(0xF9, 6, func(c *CPU) { c.SP = c.HL() })

	t.set(0xD3, 11, func(c *CPU) {
		port := c.fetchByte()
		c.out(port, c.A, c.A)
		c.WZ = uint16(c.A)<<8 | uint16(port+1)
	})
	t.set(0xDB, 11, func(c *CPU) {
		port := c.fetchByte()
		c.WZ = (uint16(c.A)<<8 | uint16(port)) + 1
		c.A = c.in(port, c.A)
	})

	t.set(0xF3, 4, func(c *CPU) {
		c.IFF1 = false
		c.IFF2 = false
	})
	t.set(0xFB, 4, (*CPU).opEI)

	t.set(0xCB, 0, func(c *CPU) {
		c.dispatch(&z80CB, c.fetchOpcode(), ErrOpTrap2)
	})
	t.set(0xED, 0, func(c *CPU) {
		c.dispatch(&z80ED, c.fetchOpcode(), ErrOpTrap2)
	})
	t.set(0xDD, 0, func(c *CPU) { c.indexPrefix(&z80DD) })
	t.set(0xFD, 0, func(c *CPU) { c.indexPrefix(&z80FD) })
}

func (c *CPU) jr(cond bool) {
	disp := int8(c.fetchByte())
	if cond {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.WZ = c.PC
		c.tick(5)
	}
}

// exSP swaps value with the word on top of the stack.
func (c *CPU) exSP(value uint16) uint16 {
	c.stackCycle = BusSTACK
	old := c.readWord(c.SP)
	c.writeWord(c.SP, value)
	c.stackCycle = 0
	c.WZ = old
	return old
}

func (c *CPU) opEI() {
	c.IFF1 = true
	c.IFF2 = true
	c.intProtection = true
}
