package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test8080SubSelf(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0x97}) // SUB A
	rig.cpu.A = 0x5A
	rig.cpu.F = FlagS | FlagC | FlagN

	rig.cpu.Step()

	requireEqualU8(t, "A", rig.cpu.A, 0x00)
	requireEqualU8(t, "F", rig.cpu.F, FlagZ|FlagH|FlagPV|FlagN)
}

func Test8080DADCarry(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0x29}) // DAD H
	rig.cpu.SetHL(0x8000)
	rig.cpu.F = FlagN

	cycles, err := rig.cpu.Step()

	require.NoError(t, err)
	requireEqualU16(t, "HL", rig.cpu.HL(), 0x0000)
	requireEqualU8(t, "F", rig.cpu.F, FlagN|FlagC)
	assert.Equal(t, 10, cycles)
}

func Test8080Flags(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Name    string
		Program []byte
		A, B    byte
		F       byte
		WantA   byte
		WantF   byte
	}{
		{Name: "ADD B half carry", Program: []byte{0x80}, A: 0x0F, B: 0x01, F: FlagN, WantA: 0x10, WantF: 0x12},
		{Name: "SUB B borrow", Program: []byte{0x90}, A: 0x00, B: 0x01, F: FlagN, WantA: 0xFF, WantF: 0x87},
		{Name: "INR A", Program: []byte{0x3C}, A: 0x0F, F: FlagN, WantA: 0x10, WantF: 0x12},
		{Name: "DCR A", Program: []byte{0x3D}, A: 0x10, F: FlagN, WantA: 0x0F, WantF: 0x06},
		{Name: "ANA B", Program: []byte{0xA0}, A: 0x08, B: 0x00, F: FlagN | FlagC, WantA: 0x00, WantF: 0x56},
		{Name: "ORA B", Program: []byte{0xB0}, A: 0x01, B: 0x02, F: FlagN | FlagC | FlagH, WantA: 0x03, WantF: 0x06},
		{Name: "XRA A", Program: []byte{0xAF}, A: 0x77, F: FlagN | FlagS | FlagC, WantA: 0x00, WantF: 0x46},
		{Name: "CMP A", Program: []byte{0xBF}, A: 0x33, F: FlagN | FlagC, WantA: 0x33, WantF: 0x56},
		{Name: "DAA", Program: []byte{0x27}, A: 0x9B, F: FlagN, WantA: 0x01, WantF: 0x13},
		{Name: "RLC", Program: []byte{0x07}, A: 0x80, F: FlagN | FlagZ, WantA: 0x01, WantF: FlagN | FlagZ | FlagC},
		{Name: "STC", Program: []byte{0x37}, F: FlagN, WantF: FlagN | FlagC},
		{Name: "CMC", Program: []byte{0x3F}, F: FlagN | FlagC, WantF: FlagN},
	}

	for _, tc := range table {
		rig := newCPUTestRig(with8080)
		rig.resetAndLoad(0x0000, tc.Program)
		rig.cpu.A = tc.A
		rig.cpu.B = tc.B
		rig.cpu.F = tc.F

		_, err := rig.cpu.Step()

		assert.NoError(err, tc.Name)
		assert.Equal(tc.WantA, rig.cpu.A, tc.Name)
		assert.Equal(tc.WantF, rig.cpu.F, tc.Name)
	}
}

func Test8080PopPSWForcesFixedBits(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0xF1}) // POP PSW
	rig.cpu.SP = 0x8000
	rig.mem[0x8000] = 0xFF
	rig.mem[0x8001] = 0x12

	rig.cpu.Step()

	requireEqualU8(t, "A", rig.cpu.A, 0x12)
	requireEqualU8(t, "F", rig.cpu.F, 0xD7)
}

func Test8080UndocumentedOpcodes(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{
		0x08,             // *NOP
		0xCB, 0x00, 0x10, // *JMP 0x1000
	})
	rig.mem.Load(0x1000, []byte{
		0xDD, 0x00, 0x20, // *CALL 0x2000
	})
	rig.mem[0x2000] = 0xD9 // *RET
	rig.cpu.SP = 0xF000

	cycles, err := rig.cpu.Step()
	require.NoError(t, err)
	assert.Equal(t, 4, cycles)

	rig.cpu.Step()
	requireEqualU16(t, "PC", rig.cpu.PC, 0x1000)
	rig.cpu.Step()
	requireEqualU16(t, "PC", rig.cpu.PC, 0x2000)
	rig.cpu.Step()
	requireEqualU16(t, "PC", rig.cpu.PC, 0x1003)
}

func Test8080UndocumentedTrap(t *testing.T) {
	rig := newCPUTestRig(with8080, withoutUndoc)
	rig.resetAndLoad(0x0100, []byte{0x10})

	cycles, err := rig.cpu.Step()

	assert.Equal(t, 0, cycles)
	assert.Equal(t, ErrOpTrap1, Code(err))
	var ft *Fault
	require.ErrorAs(t, err, &ft)
	assert.Equal(t, uint16(0x0100), ft.PC)
	assert.Equal(t, []byte{0x10}, ft.Opcode)
	assert.Equal(t, Stopped, rig.cpu.State())
}

func Test8080HaltWithInterruptsDisabled(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0x76})

	cycles, err := rig.cpu.Step()

	assert.Equal(t, 7, cycles)
	assert.Equal(t, ErrOpHalt, Code(err))
	assert.Equal(t, Stopped, rig.cpu.State())
}

func Test8080InterruptRST(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x1234, []byte{0x00})
	rig.cpu.SP = 0x8000
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.cpu.RequestInterrupt(0xCF) // RST 1

	cycles, err := rig.cpu.Step()

	require.NoError(t, err)
	assert.Equal(t, 11, cycles)
	requireEqualU16(t, "PC", rig.cpu.PC, 0x0008)
	requireEqualU16(t, "SP", rig.cpu.SP, 0x7FFE)
	requireEqualU8(t, "return low", rig.mem[0x7FFE], 0x34)
	requireEqualU8(t, "return high", rig.mem[0x7FFF], 0x12)
	assert.False(t, rig.cpu.IFF1)
}

func Test8080InterruptBadBusData(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0x00})
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.cpu.RequestInterrupt(0x3E)

	_, err := rig.cpu.Step()

	assert.Equal(t, ErrIntError, Code(err))
	var ft *Fault
	require.ErrorAs(t, err, &ft)
	assert.Equal(t, byte(0x3E), ft.Data)
}

func Test8080IgnoresNMI(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0x00})
	rig.cpu.TriggerNMI()

	rig.cpu.Step()

	requireEqualU16(t, "PC", rig.cpu.PC, 0x0001)
}

func TestSwitchModelNormalisesFlags(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0x0000, []byte{0x08}) // EX AF,AF' on the Z80, NOP on the 8080
	rig.cpu.F = 0xFF

	rig.cpu.SwitchModel(Model8080)

	assert.Equal(t, Model8080, rig.cpu.Model())
	requireEqualU8(t, "F", rig.cpu.F, 0xD7)
	rig.cpu.Step()
	requireEqualU8(t, "F", rig.cpu.F, 0xD7)

	rig.cpu.SwitchModel(ModelZ80)
	assert.Equal(t, ModelZ80, rig.cpu.Config().Model)
}

func Test8080DAAAllInputs(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.mem[0] = 0x27
	for a := 0; a < 256; a++ {
		for _, fl := range []byte{FlagN, FlagN | FlagH, FlagN | FlagC, FlagN | FlagH | FlagC} {
			rig.cpu.PC = 0
			rig.cpu.A = byte(a)
			rig.cpu.F = fl

			rig.cpu.Step()

			wantA, wantF := daa8080Reference(byte(a), fl)
			if rig.cpu.A != wantA || rig.cpu.F != wantF {
				t.Fatalf("DAA A=0x%02X F=0x%02X: got A=0x%02X F=0x%02X, want A=0x%02X F=0x%02X",
					a, fl, rig.cpu.A, rig.cpu.F, wantA, wantF)
			}
		}
	}
}

// daa8080Reference follows the 8080 data sheet: the low nibble is adjusted
// first, then the high nibble, and AC is the carry out of bit 3.
func daa8080Reference(a, f byte) (byte, byte) {
	lo, hi := a&0x0F, a>>4
	carry := f&FlagC != 0

	var corr byte
	if lo > 9 || f&FlagH != 0 {
		corr = 0x06
	}
	if hi > 9 || carry || (hi >= 9 && lo > 9) {
		corr |= 0x60
		carry = true
	}
	res := a + corr

	fl := byte(FlagN) | res&FlagS | zeroFlag(res)
	if parity8(res) {
		fl |= FlagPV
	}
	if lo+corr&0x0F > 0x0F {
		fl |= FlagH
	}
	if carry {
		fl |= FlagC
	}
	return res, fl
}

func TestNew8080PushesFixedFlagBits(t *testing.T) {
	rig := newCPUTestRig(with8080)
	rig.resetAndLoad(0x0000, []byte{0xF5}) // PUSH PSW
	rig.cpu.SP = 0x8000

	requireEqualU8(t, "F after New", rig.cpu.F, FlagN)
	rig.cpu.Step()

	requireEqualU8(t, "pushed F", rig.mem[0x7FFE], FlagN)
}
