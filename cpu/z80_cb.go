package cpu

func buildZ80CB(t *opTable) {
	for op := 0x00; op <= 0xFF; op++ {
		group := byte(op>>3) & 7
		reg := byte(op) & 7
		mem := reg == regMem

		switch {
		case op < 0x40:
			cost := 8
			if mem {
				cost = 15
			}
			exec := func(c *CPU) {
				c.setReg8(reg, c.rotate(group, c.reg8(reg)))
			}
			if group == rotSLL {
				t.setUndoc(op, cost, exec)
			} else {
				t.set(op, cost, exec)
			}
		case op < 0x80:
			if mem {
				t.set(op, 12, func(c *CPU) {
					c.bit(group, c.read(c.HL()), byte(c.WZ>>8))
				})
				continue
			}
			t.set(op, 8, func(c *CPU) {
				v := c.reg8(reg)
				c.bit(group, v, v)
			})
		default:
			set := op >= 0xC0
			mask := byte(1) << group
			cost := 8
			if mem {
				cost = 15
			}
			t.set(op, cost, func(c *CPU) {
				v := c.reg8(reg)
				if set {
					v |= mask
				} else {
					v &^= mask
				}
				c.setReg8(reg, v)
			})
		}
	}
}
