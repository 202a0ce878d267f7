package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type blockCase struct {
	name    string
	program []byte
	setup   func(c *CPU, mem *RAM, dev *testIO)
}

var blockCases = []blockCase{
	{
		name:    "LDIR",
		program: []byte{0xED, 0xB0},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			for i := 0; i < 64; i++ {
				mem[0x1000+i] = byte(i * 3)
			}
			c.SetHL(0x1000)
			c.SetDE(0x2000)
			c.SetBC(64)
		},
	},
	{
		name:    "LDDR",
		program: []byte{0xED, 0xB8},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			for i := 0; i < 32; i++ {
				mem[0x1000+i] = byte(0xA0 + i)
			}
			c.SetHL(0x101F)
			c.SetDE(0x301F)
			c.SetBC(32)
		},
	},
	{
		name:    "CPIR found",
		program: []byte{0xED, 0xB1},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			copy(mem[0x1000:], "hello, world")
			c.A = 'w'
			c.SetHL(0x1000)
			c.SetBC(100)
		},
	},
	{
		name:    "CPDR exhausted",
		program: []byte{0xED, 0xB9},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			c.A = 0x55
			c.SetHL(0x1010)
			c.SetBC(16)
		},
	},
	{
		name:    "INIR",
		program: []byte{0xED, 0xB2},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			dev.in[0x40] = 0x9C
			c.SetBC(0x1040)
			c.SetHL(0x4000)
		},
	},
	{
		name:    "OTDR",
		program: []byte{0xED, 0xBB},
		setup: func(c *CPU, mem *RAM, dev *testIO) {
			for i := 0; i < 8; i++ {
				mem[0x5000+i] = byte(0x70 + i)
			}
			c.SetBC(0x0841)
			c.SetHL(0x5007)
		},
	},
}

func runBlock(t *testing.T, tc blockCase, opts ...func(*Config)) *cpuTestRig {
	t.Helper()
	rig := newCPUTestRig(opts...)
	rig.resetAndLoad(0x0100, tc.program)
	tc.setup(rig.cpu, rig.mem, rig.io)
	rig.runUntil(t, 0x0102, 0x10000)
	return rig
}

func TestBlockInstructionModesAgree(t *testing.T) {
	for _, tc := range blockCases {
		t.Run(tc.name, func(t *testing.T) {
			cycle := runBlock(t, tc)
			fast := runBlock(t, tc, withFast)

			a, b := cycle.cpu, fast.cpu
			assert.Equal(t, a.AF(), b.AF(), "AF")
			assert.Equal(t, a.BC(), b.BC(), "BC")
			assert.Equal(t, a.DE(), b.DE(), "DE")
			assert.Equal(t, a.HL(), b.HL(), "HL")
			assert.Equal(t, a.WZ, b.WZ, "WZ")
			assert.Equal(t, a.R, b.R, "R")
			assert.Equal(t, a.Cycles, b.Cycles, "Cycles")
			assert.Equal(t, *cycle.mem, *fast.mem, "memory")
			assert.Equal(t, cycle.io.out, fast.io.out, "port writes")
		})
	}
}

func TestLDIRResult(t *testing.T) {
	rig := runBlock(t, blockCases[0], withFast)

	for i := 0; i < 64; i++ {
		requireEqualU8(t, "copy", rig.mem[0x2000+i], byte(i*3))
	}
	requireEqualU16(t, "BC", rig.cpu.BC(), 0)
	assert.Zero(t, rig.cpu.F&FlagPV)
	// 63 repeated iterations at 21 T and a final one at 16 T
	assert.Equal(t, uint64(63*21+16), rig.cpu.Cycles)
}

func TestCPIRStopsOnMatch(t *testing.T) {
	rig := runBlock(t, blockCases[2])

	requireEqualU16(t, "HL", rig.cpu.HL(), 0x1008)
	requireEqualU16(t, "BC", rig.cpu.BC(), 92)
	assert.NotZero(t, rig.cpu.F&FlagZ)
	assert.NotZero(t, rig.cpu.F&FlagPV)
}

func TestBlockRepeatRewindsInCycleMode(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0x0100, []byte{0xED, 0xB0})
	rig.cpu.SetHL(0x1000)
	rig.cpu.SetDE(0x2000)
	rig.cpu.SetBC(3)

	cycles, err := rig.cpu.Step()

	assert.NoError(t, err)
	assert.Equal(t, 21, cycles)
	requireEqualU16(t, "PC", rig.cpu.PC, 0x0100)
	requireEqualU16(t, "BC", rig.cpu.BC(), 2)
}
