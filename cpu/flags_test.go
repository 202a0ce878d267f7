package cpu

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSZPTable(t *testing.T) {
	for i := 0; i < 256; i++ {
		v := byte(i)
		var want byte
		if v&0x80 != 0 {
			want |= FlagS
		}
		if v == 0 {
			want |= FlagZ
		}
		if bits.OnesCount8(v)%2 == 0 {
			want |= FlagPV
		}
		if got := SZP(v); got != want {
			t.Fatalf("SZP(0x%02X) = 0x%02X, want 0x%02X", v, got, want)
		}
	}
}

func TestCarryFormulas(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			sum := byte(a + b)
			cout := addCarries(byte(a), byte(b), sum)
			if (cout&0x80 != 0) != (a+b > 0xFF) {
				t.Fatalf("add carry out wrong for 0x%02X+0x%02X", a, b)
			}
			if (cout&0x08 != 0) != ((a&0x0F)+(b&0x0F) > 0x0F) {
				t.Fatalf("add half carry wrong for 0x%02X+0x%02X", a, b)
			}
			if overflow(cout) != (int(int8(a))+int(int8(b)) != int(int8(sum))) {
				t.Fatalf("add overflow wrong for 0x%02X+0x%02X", a, b)
			}

			diff := byte(a - b)
			bout := subBorrows(byte(a), byte(b), diff)
			if (bout&0x80 != 0) != (a < b) {
				t.Fatalf("sub borrow wrong for 0x%02X-0x%02X", a, b)
			}
			if (bout&0x08 != 0) != (a&0x0F < b&0x0F) {
				t.Fatalf("sub half borrow wrong for 0x%02X-0x%02X", a, b)
			}
			if overflow(bout) != (int(int8(a))-int(int8(b)) != int(int8(diff))) {
				t.Fatalf("sub overflow wrong for 0x%02X-0x%02X", a, b)
			}
		}
	}
}

func TestUndocFlagsSwitch(t *testing.T) {
	rig := newCPUTestRig()
	rig.resetAndLoad(0x0000, []byte{0x3E, 0x28}) // LD A,0x28
	rig.cpu.Step()
	assert.Equal(t, byte(0x28), rig.cpu.xy(rig.cpu.A))

	rig = newCPUTestRig(withoutUndocFlags)
	assert.Zero(t, rig.cpu.xy(0xFF))
}

func TestFlagAccessors(t *testing.T) {
	rig := newCPUTestRig()
	rig.cpu.SetFlag(FlagC, true)
	rig.cpu.SetFlag(FlagZ, true)
	rig.cpu.SetFlag(FlagZ, false)

	assert.True(t, rig.cpu.Flag(FlagC))
	assert.False(t, rig.cpu.Flag(FlagZ))
	assert.Equal(t, byte(1), rig.cpu.carry())
}
