// debug_script.go - Lua scripting for Machine Monitor

package main

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// luaBindings exposes the monitor to a Lua state.
type luaBindings struct {
	mon *MachineMonitor
	L   *lua.LState
}

// RunLuaFile executes a Lua script against the monitor. Scripts see the
// functions reg, setreg, peek, poke, word, step, run, bp, bpclear,
// disasm, cycles and cmd; print writes to the monitor output.
func (m *MachineMonitor) RunLuaFile(path string) error {
	m.scriptDepth++
	defer func() { m.scriptDepth-- }()
	if m.scriptDepth > 8 {
		return errors.New(tr("script recursion limit reached"))
	}

	b := newLuaBindings(m)
	defer b.L.Close()

	return b.L.DoFile(path)
}

// RunLuaString is RunLuaFile for a script held in memory.
func (m *MachineMonitor) RunLuaString(src string) error {
	b := newLuaBindings(m)
	defer b.L.Close()

	return b.L.DoString(src)
}

func newLuaBindings(m *MachineMonitor) *luaBindings {
	L := lua.NewState()
	L.SetContext(m.ctx)
	b := &luaBindings{mon: m, L: L}
	for name, fn := range map[string]lua.LGFunction{
		"print":   b.print,
		"reg":     b.reg,
		"setreg":  b.setreg,
		"peek":    b.peek,
		"poke":    b.poke,
		"word":    b.word,
		"step":    b.step,
		"run":     b.run,
		"bp":      b.bp,
		"bpclear": b.bpclear,
		"disasm":  b.disasm,
		"cycles":  b.cycles,
		"cmd":     b.cmd,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return b
}

func (b *luaBindings) print(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	b.mon.appendOutput(strings.Join(parts, "\t"), colorWhite)
	return 0
}

// reg(name) returns a register value or nil for an unknown name.
func (b *luaBindings) reg(L *lua.LState) int {
	v, ok := b.mon.cpu.GetRegister(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (b *luaBindings) setreg(L *lua.LState) int {
	name := L.CheckString(1)
	if !b.mon.cpu.SetRegister(name, uint64(L.CheckInt64(2))) {
		L.ArgError(1, "unknown register "+name)
	}
	return 0
}

func (b *luaBindings) peek(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	L.Push(lua.LNumber(b.mon.cpu.ReadMemory(addr, 1)[0]))
	return 1
}

func (b *luaBindings) poke(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	b.mon.cpu.WriteMemory(addr, []byte{byte(L.CheckInt(2))})
	return 0
}

func (b *luaBindings) word(L *lua.LState) int {
	data := b.mon.cpu.ReadMemory(uint16(L.CheckInt(1)), 2)
	L.Push(lua.LNumber(int(data[0]) | int(data[1])<<8))
	return 1
}

// step([count]) executes instructions with breakpoints armed. It returns
// true when a breakpoint stopped it, or raises the CPU error.
func (b *luaBindings) step(L *lua.LState) int {
	count := L.OptInt(1, 1)
	var stopped bool
	var err error
	b.mon.withBreakpoints(func() {
		for range count {
			if stopped, err = b.mon.stepWithBreakpoints(); stopped || err != nil {
				return
			}
		}
	})
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LBool(stopped))
	return 1
}

// run([addr]) runs until a breakpoint or error. It returns the error
// message, or nil when a breakpoint stopped the CPU.
func (b *luaBindings) run(L *lua.LState) int {
	if L.GetTop() >= 1 {
		b.mon.cpu.SetPC(uint16(L.CheckInt(1)))
	}
	if err := b.mon.runWithBreakpoints(); err != nil {
		L.Push(lua.LString(err.Error()))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// bp(addr[, pass]) sets a breakpoint and returns its number.
func (b *luaBindings) bp(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	slot, err := b.mon.SetBreakpoint(-1, addr, L.OptInt(2, 1))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(slot))
	return 1
}

func (b *luaBindings) bpclear(L *lua.LState) int {
	if L.GetTop() == 0 {
		b.mon.ClearAllBreakpoints()
		return 0
	}
	L.Push(lua.LBool(b.mon.ClearBreakpointAt(uint16(L.CheckInt(1)))))
	return 1
}

// disasm([addr[, count]]) returns a table of "addr mnemonic" strings.
func (b *luaBindings) disasm(L *lua.LState) int {
	addr := uint16(L.OptInt(1, int(b.mon.cpu.GetPC())))
	count := L.OptInt(2, 1)
	tbl := L.NewTable()
	for _, line := range b.mon.cpu.Disassemble(addr, count) {
		tbl.Append(lua.LString(fmt.Sprintf("%04x %s", line.Address, line.Mnemonic)))
	}
	L.Push(tbl)
	return 1
}

func (b *luaBindings) cycles(L *lua.LState) int {
	L.Push(lua.LNumber(b.mon.cpu.Cycles()))
	return 1
}

// cmd(line) runs a monitor command and returns true if it asked to quit.
func (b *luaBindings) cmd(L *lua.LState) int {
	L.Push(lua.LBool(b.mon.ExecuteCommand(L.CheckString(1))))
	return 1
}
