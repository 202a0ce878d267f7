package cpu

const (
	FlagS  = 0x80
	FlagZ  = 0x40
	FlagY  = 0x20
	FlagH  = 0x10
	FlagX  = 0x08
	FlagPV = 0x04
	FlagN  = 0x02
	FlagC  = 0x01

	flagXY  = FlagX | FlagY
	flagSZP = FlagS | FlagZ | FlagPV
)

// szpTable maps a result byte to its sign, zero and even-parity flags.
var szpTable [256]byte

func init() {
	for i := range szpTable {
		v := byte(i)
		var fl byte
		if v&0x80 != 0 {
			fl |= FlagS
		}
		if v == 0 {
			fl |= FlagZ
		}
		if parity8(v) {
			fl |= FlagPV
		}
		szpTable[i] = fl
	}
}

// SZP returns the sign, zero and parity flags for value.
func SZP(value byte) byte {
	return szpTable[value]
}

func parity8(value byte) bool {
	value ^= value >> 4
	value ^= value >> 2
	value ^= value >> 1
	return value&1 == 0
}

// addCarries returns the per-bit carry-out vector of a+b(+carry) = res.
func addCarries(a, b, res byte) byte {
	return (a & b) | ((a | b) &^ res)
}

// subBorrows returns the per-bit borrow-out vector of a-b(-carry) = res.
func subBorrows(a, b, res byte) byte {
	return (^a & b) | ((^a | b) & res)
}

// overflow derives V from the carries into and out of bit 7.
func overflow(cout byte) bool {
	return (cout>>6^cout>>7)&1 != 0
}

func (c *CPU) Flag(mask byte) bool {
	return c.F&mask != 0
}

func (c *CPU) SetFlag(mask byte, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

// xy returns the X and Y bits of value when undocumented flags are enabled.
func (c *CPU) xy(value byte) byte {
	if !c.cfg.UndocFlags {
		return 0
	}
	return value & flagXY
}

// scfXY returns X/Y for SCF and CCF: A's bits are ORed in, and the old
// bits of F survive unless the previous instruction changed F.
func (c *CPU) scfXY() byte {
	if !c.cfg.UndocFlags {
		return 0
	}
	if c.pmodF {
		return c.A & flagXY
	}
	return (c.A | c.F) & flagXY
}

func (c *CPU) carry() byte {
	return c.F & FlagC
}
