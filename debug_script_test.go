package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaRegistersAndMemory(t *testing.T) {
	mon, out := newTestMonitor(t, nil)
	c := mon.machine.CPU()

	err := mon.RunLuaString(`
setreg("hl", 0x4000)
poke(0x4000, 0x34)
poke(0x4001, 0x12)
setreg("a", peek(reg("hl")) + 1)
print(string.format("%04x", word(0x4000)))
`)
	require.NoError(t, err)
	assert.Equal(t, byte(0x35), c.A)
	assert.Contains(t, out.String(), "1234")
}

func TestLuaRunToBreakpoint(t *testing.T) {
	mon, _ := newTestMonitor(t, loopProgram)
	c := mon.machine.CPU()

	err := mon.RunLuaString(`
local n = bp(1, 4)
assert(n == 0)
local e = run()
assert(e == nil, e)
setreg("b", reg("a"))
bpclear()
`)
	require.NoError(t, err)
	assert.Equal(t, byte(4), c.B)
	assert.Equal(t, -1, mon.breakpointIndex(1))
	assert.Equal(t, byte(0x00), mon.machine.Bus().Peek(1))
}

func TestLuaStepAndDisasm(t *testing.T) {
	mon, out := newTestMonitor(t, loopProgram)

	err := mon.RunLuaString(`
local before = cycles()
local stopped = step(3)
assert(stopped == false)
assert(reg("pc") == 0)
assert(cycles() > before)
for _, l in ipairs(disasm(0, 3)) do print(l) end
`)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "0000 INC A")
	assert.Contains(t, out.String(), "0002 JR $0000")
}

func TestLuaRunReturnsFault(t *testing.T) {
	mon, out := newTestMonitor(t, []byte{0x76})

	err := mon.RunLuaString(`print(run())`)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "HALT Op-Code reached at 0x0000")
}

func TestLuaCommand(t *testing.T) {
	mon, _ := newTestMonitor(t, nil)

	err := mon.RunLuaString(`assert(cmd("r a=9") == false)`)
	require.NoError(t, err)
	assert.Equal(t, byte(9), mon.machine.CPU().A)
}

func TestLuaErrors(t *testing.T) {
	mon, _ := newTestMonitor(t, nil)

	assert.Error(t, mon.RunLuaString(`setreg("nope", 1)`))
	assert.Error(t, mon.RunLuaString(`this is not lua`))
}

func TestScriptCommandRunsLuaFile(t *testing.T) {
	mon, out := newTestMonitor(t, nil)
	path := filepath.Join(t.TempDir(), "setup.lua")
	require.NoError(t, os.WriteFile(path, []byte(`setreg("de", 0xbeef)`), 0o644))

	mon.ExecuteCommand("script " + path)
	assert.Equal(t, uint16(0xBEEF), mon.machine.CPU().DE())

	mon.ExecuteCommand("script " + filepath.Join(t.TempDir(), "missing.lua"))
	assert.Contains(t, out.String(), "Error: ")
}

func TestEvalExpressionResultTypes(t *testing.T) {
	m := newTestMachine(t, nil)
	d := NewDebugZ80(m.CPU())
	m.CPU().SetHL2(0x1111)

	v, err := evalExpression("hl_ + 1", d)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1112), v)

	v, err = evalExpression("fz or fc", d)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, err = evalExpression("'x'", d)
	assert.ErrorAs(t, err, new(ErrParseExpression))
}
