package cpu

type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

func (c *CPU) performALU(op aluOp, value byte) {
	switch op {
	case aluAdd:
		c.addA(value, 0)
	case aluAdc:
		c.addA(value, c.carry())
	case aluSub:
		c.subA(value, 0, true)
	case aluSbc:
		c.subA(value, c.carry(), true)
	case aluAnd:
		c.andA(value)
	case aluXor:
		c.xorA(value)
	case aluOr:
		c.orA(value)
	case aluCp:
		c.subA(value, 0, false)
	}
}

func (c *CPU) addA(value byte, carry byte) {
	a := c.A
	res := a + value + carry
	cout := addCarries(a, value, res)

	fl := szpTable[res]&^FlagPV | c.xy(res)
	if cout&0x08 != 0 {
		fl |= FlagH
	}
	if overflow(cout) {
		fl |= FlagPV
	}
	if cout&0x80 != 0 {
		fl |= FlagC
	}
	c.A = res
	c.F = fl
}

// subA subtracts value and carry from A. CP (store false) takes X and Y
// from the operand rather than the result.
func (c *CPU) subA(value byte, carry byte, store bool) {
	a := c.A
	res := a - value - carry
	cout := subBorrows(a, value, res)

	fl := szpTable[res]&^FlagPV | FlagN
	if store {
		c.A = res
		fl |= c.xy(res)
	} else {
		fl |= c.xy(value)
	}
	if cout&0x08 != 0 {
		fl |= FlagH
	}
	if overflow(cout) {
		fl |= FlagPV
	}
	if cout&0x80 != 0 {
		fl |= FlagC
	}
	c.F = fl
}

func (c *CPU) andA(value byte) {
	c.A &= value
	c.F = szpTable[c.A] | FlagH | c.xy(c.A)
}

func (c *CPU) xorA(value byte) {
	c.A ^= value
	c.F = szpTable[c.A] | c.xy(c.A)
}

func (c *CPU) orA(value byte) {
	c.A |= value
	c.F = szpTable[c.A] | c.xy(c.A)
}

func (c *CPU) inc8(value byte) byte {
	res := value + 1
	fl := c.F&FlagC | szpTable[res]&^FlagPV | c.xy(res)
	if addCarries(value, 1, res)&0x08 != 0 {
		fl |= FlagH
	}
	if value == 0x7F {
		fl |= FlagPV
	}
	c.F = fl
	return res
}

func (c *CPU) dec8(value byte) byte {
	res := value - 1
	fl := c.F&FlagC | szpTable[res]&^FlagPV | FlagN | c.xy(res)
	if subBorrows(value, 1, res)&0x08 != 0 {
		fl |= FlagH
	}
	if value == 0x80 {
		fl |= FlagPV
	}
	c.F = fl
	return res
}

// add16 is ADD HL/IX/IY,rr: S, Z and P/V are preserved.
func (c *CPU) add16(a, b uint16) uint16 {
	sum := uint32(a) + uint32(b)
	res := uint16(sum)
	c.WZ = a + 1

	fl := c.F&flagSZP | c.xy(byte(res>>8))
	if (a&0x0FFF)+(b&0x0FFF) > 0x0FFF {
		fl |= FlagH
	}
	if sum > 0xFFFF {
		fl |= FlagC
	}
	c.F = fl
	return res
}

func (c *CPU) adcHL(value uint16) {
	hl := c.HL()
	carry := uint32(c.carry())
	sum := uint32(hl) + uint32(value) + carry
	res := uint16(sum)
	c.WZ = hl + 1

	fl := c.xy(byte(res >> 8))
	if res == 0 {
		fl |= FlagZ
	}
	if res&0x8000 != 0 {
		fl |= FlagS
	}
	if uint32(hl&0x0FFF)+uint32(value&0x0FFF)+carry > 0x0FFF {
		fl |= FlagH
	}
	if (^(hl^value))&(hl^res)&0x8000 != 0 {
		fl |= FlagPV
	}
	if sum > 0xFFFF {
		fl |= FlagC
	}
	c.F = fl
	c.SetHL(res)
}

func (c *CPU) sbcHL(value uint16) {
	hl := c.HL()
	carry := int32(c.carry())
	diff := int32(hl) - int32(value) - carry
	res := uint16(diff)
	c.WZ = hl + 1

	fl := FlagN | c.xy(byte(res>>8))
	if res == 0 {
		fl |= FlagZ
	}
	if res&0x8000 != 0 {
		fl |= FlagS
	}
	if int32(hl&0x0FFF)-int32(value&0x0FFF)-carry < 0 {
		fl |= FlagH
	}
	if (hl^value)&(hl^res)&0x8000 != 0 {
		fl |= FlagPV
	}
	if diff < 0 {
		fl |= FlagC
	}
	c.F = fl
	c.SetHL(res)
}

// daa applies the BCD correction for the last addition or subtraction.
func (c *CPU) daa() {
	a := c.A
	lo := a & 0x0F
	var adj byte
	carry := c.Flag(FlagC)
	if c.Flag(FlagH) || lo > 9 {
		adj |= 0x06
	}
	if carry || a > 0x99 {
		adj |= 0x60
		carry = true
	}

	var res byte
	sub := c.Flag(FlagN)
	if sub {
		res = a - adj
	} else {
		res = a + adj
	}

	fl := szpTable[res] | c.xy(res) | c.F&FlagN
	if (a^res)&0x10 != 0 {
		fl |= FlagH
	}
	if carry {
		fl |= FlagC
	}
	c.A = res
	c.F = fl
}

// rotation and shift groups of the CB table
const (
	rotRLC = iota
	rotRRC
	rotRL
	rotRR
	rotSLA
	rotSRA
	rotSLL
	rotSRL
)

// rotate performs a CB-group rotate or shift and sets S, Z, P and C.
func (c *CPU) rotate(group byte, value byte) byte {
	var res byte
	var carry bool
	switch group {
	case rotRLC:
		carry = value&0x80 != 0
		res = value<<1 | value>>7
	case rotRRC:
		carry = value&0x01 != 0
		res = value>>1 | value<<7
	case rotRL:
		carry = value&0x80 != 0
		res = value<<1 | c.carry()
	case rotRR:
		carry = value&0x01 != 0
		res = value>>1 | c.carry()<<7
	case rotSLA:
		carry = value&0x80 != 0
		res = value << 1
	case rotSRA:
		carry = value&0x01 != 0
		res = value>>1 | value&0x80
	case rotSLL:
		carry = value&0x80 != 0
		res = value<<1 | 0x01
	case rotSRL:
		carry = value&0x01 != 0
		res = value >> 1
	}

	fl := szpTable[res] | c.xy(res)
	if carry {
		fl |= FlagC
	}
	c.F = fl
	return res
}

// rotateA is RLCA, RRCA, RLA and RRA: S, Z and P/V are preserved.
func (c *CPU) rotateA(group byte) {
	keep := c.F & flagSZP
	c.A = c.rotate(group, c.A)
	c.F = keep | c.F&FlagC | c.xy(c.A)
}

func (c *CPU) bit(n byte, value byte, xySource byte) {
	mask := byte(1) << n
	fl := c.F&FlagC | FlagH | c.xy(xySource)
	if value&mask == 0 {
		fl |= FlagZ | FlagPV
	}
	if n == 7 && value&mask != 0 {
		fl |= FlagS
	}
	c.F = fl
}
