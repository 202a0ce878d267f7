package cpu

func buildZ80ED(t *opTable) {
	for op := 0x00; op <= 0xFF; op++ {
		t.setUndoc(op, 8, func(c *CPU) {})
	}

	for r := byte(0); r < 8; r++ {
		reg := r
		in := func(c *CPU) {
			c.WZ = c.BC() + 1
			v := c.in(c.C, c.B)
			c.F = c.F&FlagC | szpTable[v] | c.xy(v)
			if reg != regMem {
				c.setReg8(reg, v)
			}
		}
		out := func(c *CPU) {
			var v byte
			if reg != regMem {
				v = c.reg8(reg)
			}
			c.WZ = c.BC() + 1
			c.out(c.C, c.B, v)
		}
		if reg == regMem {
			// IN F,(C) and OUT (C),0
			t.setUndoc(int(0x40|reg<<3), 12, in)
			t.setUndoc(int(0x41|reg<<3), 12, out)
		} else {
			t.set(int(0x40|reg<<3), 12, in)
			t.set(int(0x41|reg<<3), 12, out)
		}
	}

	for rr := byte(0); rr < 4; rr++ {
		pair := rr
		t.set(int(0x42|pair<<4), 15, func(c *CPU) { c.sbcHL(c.reg16(pair, false)) })
		t.set(int(0x4A|pair<<4), 15, func(c *CPU) { c.adcHL(c.reg16(pair, false)) })
		t.set(int(0x43|pair<<4), 20, func(c *CPU) {
			addr := c.fetchWord()
			c.writeWord(addr, c.reg16(pair, false))
			c.WZ = addr + 1
		})
		t.set(int(0x4B|pair<<4), 20, func(c *CPU) {
			addr := c.fetchWord()
			c.setReg16(pair, false, c.readWord(addr))
			c.WZ = addr + 1
		})
	}

	neg := func(c *CPU) {
		a := c.A
		c.A = 0
		c.subA(a, 0, true)
	}
	retn := func(c *CPU) {
		c.PC = c.popWord()
		c.WZ = c.PC
		c.IFF1 = c.IFF2
	}
	for _, op := range []int{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		if op == 0x44 {
			t.set(op, 8, neg)
		} else {
			t.setUndoc(op, 8, neg)
		}
	}
	for _, op := range []int{0x45, 0x4D, 0x55, 0x5D, 0x65, 0x6D, 0x75, 0x7D} {
		if op == 0x45 || op == 0x4D {
			t.set(op, 14, retn)
		} else {
			t.setUndoc(op, 14, retn)
		}
	}
	im := map[int]byte{0x46: 0, 0x56: 1, 0x5E: 2, 0x4E: 0, 0x66: 0, 0x6E: 0, 0x76: 1, 0x7E: 2}
	for op, mode := range im {
		m := mode
		exec := func(c *CPU) { c.IM = m }
		if op == 0x46 || op == 0x56 || op == 0x5E {
			t.set(op, 8, exec)
		} else {
			t.setUndoc(op, 8, exec)
		}
	}

	t.set(0x47, 9, func(c *CPU) { c.I = c.A })
	t.set(0x4F, 9, func(c *CPU) { c.R = c.A })
	t.set(0x57, 9, func(c *CPU) {
		c.A = c.I
		c.ldAIRFlags()
	})
	t.set(0x5F, 9, func(c *CPU) {
		c.A = c.R
		c.ldAIRFlags()
	})

	t.set(0x67, 18, func(c *CPU) {
		addr := c.HL()
		v := c.read(addr)
		c.write(addr, v>>4|c.A<<4)
		c.A = c.A&0xF0 | v&0x0F
		c.WZ = addr + 1
		c.F = c.F&FlagC | szpTable[c.A] | c.xy(c.A)
	})
	t.set(0x6F, 18, func(c *CPU) {
		addr := c.HL()
		v := c.read(addr)
		c.write(addr, v<<4|c.A&0x0F)
		c.A = c.A&0xF0 | v>>4
		c.WZ = addr + 1
		c.F = c.F&FlagC | szpTable[c.A] | c.xy(c.A)
	})

	blocks := []struct {
		op   int
		step func(*CPU) bool
	}{
		{0xA0, func(c *CPU) bool { return c.ldBlock(1) }},
		{0xA8, func(c *CPU) bool { return c.ldBlock(0xFFFF) }},
		{0xA1, func(c *CPU) bool { return c.cpBlock(1) }},
		{0xA9, func(c *CPU) bool { return c.cpBlock(0xFFFF) }},
		{0xA2, func(c *CPU) bool { return c.inBlock(1) }},
		{0xAA, func(c *CPU) bool { return c.inBlock(0xFFFF) }},
		{0xA3, func(c *CPU) bool { return c.outBlock(1) }},
		{0xAB, func(c *CPU) bool { return c.outBlock(0xFFFF) }},
	}
	for _, b := range blocks {
		step := b.step
		t.set(b.op, 16, func(c *CPU) { step(c) })
		t.set(b.op|0x10, 16, func(c *CPU) { c.repeat(step) })
	}
}

func (c *CPU) ldAIRFlags() {
	fl := c.F&FlagC | szpTable[c.A]&^FlagPV | c.xy(c.A)
	if c.IFF2 {
		fl |= FlagPV
	}
	c.F = fl
}

// repeat completes a repeating block instruction whose first iteration is
// step. In cycle-accurate mode PC is rewound so the instruction is fetched
// again; in fast mode the remaining iterations run here with the same
// timing and refresh accounting.
func (c *CPU) repeat(step func(*CPU) bool) {
	if !step(c) {
		return
	}
	start := c.PC - 2
	if c.cfg.Exec == ExecCycleAccurate {
		c.PC = start
		c.WZ = start + 1
		c.tick(5)
		return
	}
	for {
		c.WZ = start + 1
		c.tick(5)
		if !c.State().active() {
			c.PC = start
			return
		}
		c.addR(2)
		c.tick(16)
		if !step(c) {
			return
		}
	}
}

// ldBlock is one LDI (dir 1) or LDD (dir 0xFFFF) iteration. It reports
// whether LDIR/LDDR repeat.
func (c *CPU) ldBlock(dir uint16) bool {
	value := c.read(c.HL())
	c.write(c.DE(), value)
	c.SetHL(c.HL() + dir)
	c.SetDE(c.DE() + dir)
	bc := c.BC() - 1
	c.SetBC(bc)

	fl := c.F & (FlagS | FlagZ | FlagC)
	if bc != 0 {
		fl |= FlagPV
	}
	if c.cfg.UndocFlags {
		n := c.A + value
		fl |= n & FlagX
		fl |= (n << 4) & FlagY
	}
	c.F = fl
	return bc != 0
}

func (c *CPU) cpBlock(dir uint16) bool {
	value := c.read(c.HL())
	res := c.A - value
	cout := subBorrows(c.A, value, res)
	c.SetHL(c.HL() + dir)
	bc := c.BC() - 1
	c.SetBC(bc)
	c.WZ += dir

	fl := c.F&FlagC | FlagN | szpTable[res]&(FlagS|FlagZ)
	if cout&0x08 != 0 {
		fl |= FlagH
	}
	if bc != 0 {
		fl |= FlagPV
	}
	if c.cfg.UndocFlags {
		n := res
		if fl&FlagH != 0 {
			n--
		}
		fl |= n & FlagX
		fl |= (n << 4) & FlagY
	}
	c.F = fl
	return bc != 0 && fl&FlagZ == 0
}

func (c *CPU) inBlock(dir uint16) bool {
	c.WZ = c.BC() + dir
	value := c.in(c.C, c.B)
	c.write(c.HL(), value)
	c.B--
	c.SetHL(c.HL() + dir)
	c.blockIOFlags(value, c.C+byte(dir))
	return c.B != 0
}

func (c *CPU) outBlock(dir uint16) bool {
	value := c.read(c.HL())
	c.B--
	c.WZ = c.BC() + dir
	c.out(c.C, c.B, value)
	c.SetHL(c.HL() + dir)
	c.blockIOFlags(value, c.L)
	return c.B != 0
}

func (c *CPU) blockIOFlags(value byte, k byte) {
	fl := szpTable[c.B]&(FlagS|FlagZ) | c.xy(c.B)
	if value&0x80 != 0 {
		fl |= FlagN
	}
	sum := uint16(value) + uint16(k)
	if sum > 0xFF {
		fl |= FlagH | FlagC
	}
	fl |= szpTable[byte(sum)&7^c.B] & FlagPV
	c.F = fl
}
