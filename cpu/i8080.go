package cpu

// flags8080 are the bits of F that read as constant on the 8080.
const flags8080 byte = FlagN

func (c *CPU) add8080(value, carry byte) {
	a := c.A
	res := a + value + carry
	cout := addCarries(a, value, res)
	fl := flags8080 | szpTable[res]
	if cout&0x08 != 0 {
		fl |= FlagH
	}
	if cout&0x80 != 0 {
		fl |= FlagC
	}
	c.A = res
	c.F = fl
}

// sub8080 reports H as the inverted half borrow.
func (c *CPU) sub8080(value, carry byte, store bool) {
	a := c.A
	res := a - value - carry
	cout := subBorrows(a, value, res)
	fl := flags8080 | szpTable[res]
	if cout&0x08 == 0 {
		fl |= FlagH
	}
	if cout&0x80 != 0 {
		fl |= FlagC
	}
	if store {
		c.A = res
	}
	c.F = fl
}

func (c *CPU) alu8080(op aluOp, value byte) {
	switch op {
	case aluAdd:
		c.add8080(value, 0)
	case aluAdc:
		c.add8080(value, c.carry())
	case aluSub:
		c.sub8080(value, 0, true)
	case aluSbc:
		c.sub8080(value, c.carry(), true)
	case aluAnd:
		fl := flags8080
		if (c.A|value)&0x08 != 0 {
			fl |= FlagH
		}
		c.A &= value
		c.F = fl | szpTable[c.A]
	case aluXor:
		c.A ^= value
		c.F = flags8080 | szpTable[c.A]
	case aluOr:
		c.A |= value
		c.F = flags8080 | szpTable[c.A]
	case aluCp:
		c.sub8080(value, 0, false)
	}
}

func (c *CPU) inr8080(value byte) byte {
	res := value + 1
	fl := c.F&FlagC | flags8080 | szpTable[res]
	if res&0x0F == 0 {
		fl |= FlagH
	}
	c.F = fl
	return res
}

func (c *CPU) dcr8080(value byte) byte {
	res := value - 1
	fl := c.F&FlagC | flags8080 | szpTable[res]
	if res&0x0F != 0x0F {
		fl |= FlagH
	}
	c.F = fl
	return res
}

func (c *CPU) daa8080() {
	tmp := uint16(c.A)
	fl := c.F
	if c.A&0x0F > 9 || fl&FlagH != 0 {
		if c.A&0x0F > 9 {
			fl |= FlagH
		} else {
			fl &^= FlagH
		}
		tmp += 0x06
	}
	if tmp&0x1F0 > 0x90 || fl&FlagC != 0 {
		tmp += 0x60
	}
	if tmp&0x100 != 0 {
		fl |= FlagC
	}
	c.A = byte(tmp)
	c.F = fl&^flagSZP | szpTable[c.A]
}

// rotate8080 is RLC, RRC, RAL and RAR: only carry changes.
func (c *CPU) rotate8080(group byte) {
	keep := c.F &^ FlagC
	c.A = c.rotate(group, c.A)
	c.F = keep | c.F&FlagC
}

func build8080(t *opTable) {
	t.set(0x00, 4, func(c *CPU) {})
	for _, op := range []int{0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		t.setUndoc(op, 4, func(c *CPU) {})
	}
	t.set(0x76, 7, (*CPU).opHALT)

	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue
		}
		dest := byte(op>>3) & 7
		src := byte(op) & 7
		cost := 5
		if dest == regMem || src == regMem {
			cost = 7
		}
		t.set(op, cost, func(c *CPU) {
			c.setReg8(dest, c.reg8(src))
		})
	}

	for r := byte(0); r < 8; r++ {
		reg := r
		mvi, incdec := 7, 5
		if reg == regMem {
			mvi, incdec = 10, 10
		}
		t.set(int(0x06|reg<<3), mvi, func(c *CPU) {
			c.setReg8(reg, c.fetchByte())
		})
		t.set(int(0x04|reg<<3), incdec, func(c *CPU) {
			if reg == regMem {
				addr := c.HL()
				c.write(addr, c.inr8080(c.read(addr)))
				return
			}
			c.setReg8(reg, c.inr8080(c.reg8(reg)))
		})
		t.set(int(0x05|reg<<3), incdec, func(c *CPU) {
			if reg == regMem {
				addr := c.HL()
				c.write(addr, c.dcr8080(c.read(addr)))
				return
			}
			c.setReg8(reg, c.dcr8080(c.reg8(reg)))
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
			c.alu8080(alu, c.reg8(src))
		})
	}
	for a := aluAdd; a <= aluCp; a++ {
		alu := a
		t.set(0xC6|int(alu)<<3, 7, func(c *CPU) {
			c.alu8080(alu, c.fetchByte())
		})
	}
	// SUB A and CMP A have a fixed result
	t.set(0x97, 4, func(c *CPU) {
		c.A = 0
		c.F = c.F&^(FlagS|FlagC) | FlagZ | FlagH | FlagPV
	})
	t.set(0xBF, 4, func(c *CPU) {
		c.F = c.F&^(FlagS|FlagC) | FlagZ | FlagH | FlagPV
	})
	t.set(0xAF, 4, func(c *CPU) {
		c.A = 0
		c.F = c.F&^(FlagS|FlagH|FlagC) | FlagZ | FlagPV
	})

	for rr := byte(0); rr < 4; rr++ {
		pair := rr
		t.set(int(0x01|pair<<4), 10, func(c *CPU) {
			c.setReg16(pair, false, c.fetchWord())
		})
		t.set(int(0x03|pair<<4), 5, func(c *CPU) {
			c.setReg16(pair, false, c.reg16(pair, false)+1)
		})
		t.set(int(0x0B|pair<<4), 5, func(c *CPU) {
			c.setReg16(pair, false, c.reg16(pair, false)-1)
		})
		t.set(int(0x09|pair<<4), 10, func(c *CPU) {
			sum := uint32(c.HL()) + uint32(c.reg16(pair, false))
			c.SetHL(uint16(sum))
			c.SetFlag(FlagC, sum > 0xFFFF)
		})
		t.set(int(0xC1|pair<<4), 10, func(c *CPU) {
			v := c.popWord()
			if pair == 3 {
				v = v&^uint16(flagXY) | uint16(flags8080)
			}
			c.setReg16(pair, true, v)
		})
		t.set(int(0xC5|pair<<4), 11, func(c *CPU) {
			c.pushWord(c.reg16(pair, true))
		})
	}

	for cc := byte(0); cc < 8; cc++ {
		cond := cc
		t.set(int(0xC2|cond<<3), 10, func(c *CPU) {
			addr := c.fetchWord()
			if c.condition(cond) {
				c.PC = addr
			}
		})
		t.set(int(0xC4|cond<<3), 11, func(c *CPU) {
			addr := c.fetchWord()
			if c.condition(cond) {
				c.pushWord(c.PC)
				c.PC = addr
				c.tick(6)
			}
		})
		t.set(int(0xC0|cond<<3), 5, func(c *CPU) {
			if c.condition(cond) {
				c.PC = c.popWord()
				c.tick(6)
			}
		})
		vector := uint16(cond) << 3
		t.set(int(0xC7|cond<<3), 11, func(c *CPU) {
			c.pushWord(c.PC)
			c.PC = vector
		})
	}

	t.set(0x02, 7, func(c *CPU) { c.write(c.BC(), c.A) })
	t.set(0x12, 7, func(c *CPU) { c.write(c.DE(), c.A) })
	t.set(0x0A, 7, func(c *CPU) { c.A = c.read(c.BC()) })
	t.set(0x1A, 7, func(c *CPU) { c.A = c.read(c.DE()) })
	t.set(0x22, 16, func(c *CPU) { c.writeWord(c.fetchWord(), c.HL()) })
	t.set(0x2A, 16, func(c *CPU) { c.SetHL(c.readWord(c.fetchWord())) })
	t.set(0x32, 13, func(c *CPU) { c.write(c.fetchWord(), c.A) })
	t.set(0x3A, 13, func(c *CPU) { c.A = c.read(c.fetchWord()) })

	t.set(0x07, 4, func(c *CPU) { c.rotate8080(rotRLC) })
	t.set(0x0F, 4, func(c *CPU) { c.rotate8080(rotRRC) })
	t.set(0x17, 4, func(c *CPU) { c.rotate8080(rotRL) })
	t.set(0x1F, 4, func(c *CPU) { c.rotate8080(rotRR) })

	t.set(0x27, 4, (*CPU).daa8080)
	t.set(0x2F, 4, func(c *CPU) { c.A = ^c.A })
	t.set(0x37, 4, func(c *CPU) { c.F |= FlagC })
	t.set(0x3F, 4, func(c *CPU) { c.F ^= FlagC })

	jmp := func(c *CPU) { c.PC = c.fetchWord() }
	call := func(c *CPU) {
		addr := c.fetchWord()
		c.pushWord(c.PC)
		c.PC = addr
	}
	ret := func(c *CPU) { c.PC = c.popWord() }
	t.set(0xC3, 10, jmp)
	t.setUndoc(0xCB, 10, jmp)
	t.set(0xCD, 17, call)
	t.setUndoc(0xDD, 17, call)
	t.setUndoc(0xED, 17, call)
	t.setUndoc(0xFD, 17, call)
	t.set(0xC9, 10, ret)
	t.setUndoc(0xD9, 10, ret)

	t.set(0xE3, 18, func(c *CPU) { c.SetHL(c.exSP(c.HL())) })
	t.set(0xE9, 5, func(c *CPU) { c.PC = c.HL() })
	t.set(0xF9, 5, func(c *CPU) { c.SP = c.HL() })
	t.set(0xEB, 4, func(c *CPU) {
		c.D, c.H = c.H, c.D
		c.E, c.L = c.L, c.E
	})

	t.set(0xD3, 10, func(c *CPU) {
		port := c.fetchByte()
		c.out(port, port, c.A)
	})
	t.set(0xDB, 10, func(c *CPU) {
		port := c.fetchByte()
		c.A = c.in(port, port)
	})

	t.set(0xF3, 4, func(c *CPU) {
		c.IFF1 = false
		c.IFF2 = false
	})
	t.set(0xFB, 4, (*CPU).opEI)
}
