// debug_monitor.go - Machine Monitor core (output, software breakpoints, history)

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

const (
	maxBreakpoints = 8
	historySize    = 100
	haltOpcode     = 0x76
)

// OutputLine holds styled text for the monitor scrollback buffer.
type OutputLine struct {
	Text  string
	Color uint32 // RGBA packed
}

// softBreakpoint replaces the opcode at addr with HALT while the program
// runs. It stops execution on the pass'th hit.
type softBreakpoint struct {
	addr    uint16
	opcode  byte
	pass    int
	counter int
}

func (bp *softBreakpoint) set() bool { return bp.pass > 0 }

type historyEntry struct {
	pc, af, bc, de, hl, ix, iy, sp uint16
}

// MachineMonitor is the interactive debugger of the reference machine.
type MachineMonitor struct {
	mu sync.Mutex

	machine *Machine
	cpu     DebuggableCPU
	out     io.Writer
	color   bool
	ctx     context.Context

	outputLines []OutputLine
	maxOutput   int
	history     []string

	breakpoints [maxBreakpoints]softBreakpoint
	bpNext      int
	bpInserted  bool

	hist      [historySize]historyEntry
	histNext  int
	histWrap  bool
	histPause bool

	tsStart, tsEnd uint16
	tsOn           bool
	tsBegin        uint64
	tsStates       uint64

	wrkAddr       uint16
	clockDuration time.Duration
	scriptDepth   int
	macros        map[string][]string
}

// NewMachineMonitor attaches a monitor to machine. Output goes to out.
func NewMachineMonitor(machine *Machine, out io.Writer) *MachineMonitor {
	m := &MachineMonitor{
		machine:       machine,
		cpu:           NewDebugZ80(machine.CPU()),
		out:           out,
		ctx:           context.Background(),
		maxOutput:     500,
		clockDuration: 3 * time.Second,
		macros:        make(map[string][]string),
		wrkAddr:       machine.CPU().PC,
	}
	machine.CPU().SetBreakpointCheck(func(addr uint16) bool {
		return m.bpInserted && m.breakpointIndex(addr) >= 0
	})
	machine.AddInstructionHook(m.onInstruction)
	return m
}

// SetColor enables ANSI colours on the output writer.
func (m *MachineMonitor) SetColor(on bool) {
	m.color = on
}

// SetContext sets the context runs started from the monitor use.
func (m *MachineMonitor) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// Run reads commands from in until q or end of input.
func (m *MachineMonitor) Run(in io.Reader) {
	m.reportState(nil)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(m.out, ">>> ")
		if !scanner.Scan() {
			fmt.Fprintln(m.out)
			return
		}
		if m.ExecuteCommand(scanner.Text()) {
			return
		}
	}
}

// Output returns the scrollback buffer.
func (m *MachineMonitor) Output() []OutputLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OutputLine(nil), m.outputLines...)
}

// appendOutput prints a line and adds it to the scrollback buffer.
func (m *MachineMonitor) appendOutput(text string, color uint32) {
	m.mu.Lock()
	m.outputLines = append(m.outputLines, OutputLine{Text: text, Color: color})
	if len(m.outputLines) > m.maxOutput {
		m.outputLines = m.outputLines[len(m.outputLines)-m.maxOutput:]
	}
	m.mu.Unlock()

	if m.out == nil {
		return
	}
	if esc := ansiColor(color); m.color && esc != "" {
		fmt.Fprintf(m.out, "%s%s\x1b[0m\n", esc, text)
		return
	}
	fmt.Fprintln(m.out, text)
}

func (m *MachineMonitor) reportFault(err error) {
	if err == nil {
		return
	}
	m.appendOutput(err.Error(), colorRed)
}

// reportState prints the error, registers and next instruction, as after
// a single step.
func (m *MachineMonitor) reportState(err error) {
	m.reportFault(err)
	m.showRegisters()
	m.showDisassemblyAt(m.cpu.GetPC(), 1)
	m.wrkAddr = m.cpu.GetPC()
}

// onInstruction runs on the CPU goroutine before every instruction.
func (m *MachineMonitor) onInstruction(pc uint16) {
	c := m.machine.CPU()
	if !m.histPause {
		m.hist[m.histNext] = historyEntry{
			pc: pc, af: c.AF(), bc: c.BC(), de: c.DE(), hl: c.HL(),
			ix: c.IX, iy: c.IY, sp: c.SP,
		}
		m.histNext++
		if m.histNext == historySize {
			m.histNext = 0
			m.histWrap = true
		}
	}

	if pc == m.tsStart && !m.tsOn {
		m.tsOn = true
		m.tsBegin = c.Cycles
	} else if pc == m.tsEnd && m.tsOn {
		m.tsOn = false
		m.tsStates += c.Cycles - m.tsBegin
	}
}

// dropHistory forgets the newest entry, the HALT of a breakpoint.
func (m *MachineMonitor) dropHistory() {
	if m.histNext == 0 {
		if !m.histWrap {
			return
		}
		m.histNext = historySize
	}
	m.histNext--
}

func (m *MachineMonitor) clearHistory() {
	m.hist = [historySize]historyEntry{}
	m.histNext = 0
	m.histWrap = false
}

// historyEntries returns the recorded instructions, oldest first.
func (m *MachineMonitor) historyEntries() []historyEntry {
	if !m.histWrap {
		return append([]historyEntry(nil), m.hist[:m.histNext]...)
	}
	out := make([]historyEntry, 0, historySize)
	out = append(out, m.hist[m.histNext:]...)
	return append(out, m.hist[:m.histNext]...)
}

func (m *MachineMonitor) breakpointIndex(addr uint16) int {
	for i := range m.breakpoints {
		if m.breakpoints[i].set() && m.breakpoints[i].addr == addr {
			return i
		}
	}
	return -1
}

// SetBreakpoint installs a breakpoint in slot (or the next slot when slot
// is negative) that stops on the pass'th hit.
func (m *MachineMonitor) SetBreakpoint(slot int, addr uint16, pass int) (int, error) {
	if slot >= maxBreakpoints {
		return 0, errors.New(tr("breakpoint %d not available", slot))
	}
	if slot < 0 {
		slot = m.bpNext
		m.bpNext = (m.bpNext + 1) % maxBreakpoints
	}
	m.breakpoints[slot] = softBreakpoint{addr: addr, pass: max(pass, 1)}
	return slot, nil
}

// ClearBreakpoint removes the breakpoint in slot.
func (m *MachineMonitor) ClearBreakpoint(slot int) bool {
	if slot < 0 || slot >= maxBreakpoints || !m.breakpoints[slot].set() {
		return false
	}
	m.breakpoints[slot] = softBreakpoint{}
	return true
}

// ClearBreakpointAt removes every breakpoint on addr.
func (m *MachineMonitor) ClearBreakpointAt(addr uint16) bool {
	found := false
	for i := range m.breakpoints {
		if m.breakpoints[i].set() && m.breakpoints[i].addr == addr {
			m.breakpoints[i] = softBreakpoint{}
			found = true
		}
	}
	return found
}

func (m *MachineMonitor) ClearAllBreakpoints() {
	m.breakpoints = [maxBreakpoints]softBreakpoint{}
	m.bpNext = 0
}

// insertBreakpoints saves the opcodes under the breakpoints and replaces
// them with HALT.
func (m *MachineMonitor) insertBreakpoints() {
	bus := m.machine.Bus()
	for i := range m.breakpoints {
		bp := &m.breakpoints[i]
		if !bp.set() {
			continue
		}
		if j := m.breakpointIndex(bp.addr); j < i {
			bp.opcode = m.breakpoints[j].opcode
			continue
		}
		bp.opcode = bus.Peek(bp.addr)
		bus.Poke(bp.addr, haltOpcode)
	}
	m.bpInserted = true
}

func (m *MachineMonitor) removeBreakpoints() {
	bus := m.machine.Bus()
	for i := len(m.breakpoints) - 1; i >= 0; i-- {
		if bp := &m.breakpoints[i]; bp.set() {
			bus.Poke(bp.addr, bp.opcode)
		}
	}
	m.bpInserted = false
}

func (m *MachineMonitor) withBreakpoints(fn func()) {
	m.insertBreakpoints()
	defer m.removeBreakpoints()
	fn()
}

// handleBreak executes the original instruction under the breakpoint the
// CPU stopped on and reports whether execution should continue.
func (m *MachineMonitor) handleBreak(addr uint16) (bool, error) {
	i := m.breakpointIndex(addr)
	if i < 0 {
		return false, nil
	}
	bp := &m.breakpoints[i]
	bus := m.machine.Bus()

	m.dropHistory()
	bus.Poke(addr, bp.opcode)
	_, err := m.cpu.Step()
	bus.Poke(addr, haltOpcode)
	if err != nil {
		return false, err
	}

	bp.counter++
	if bp.counter != bp.pass {
		return true, nil
	}
	m.appendOutput(fmt.Sprintf("Software breakpoint %d reached at %04x", i, addr), colorYellow)
	bp.counter = 0
	return false, nil
}

// runWithBreakpoints runs the machine until it stops on a breakpoint whose
// pass count is reached, or for any other reason.
func (m *MachineMonitor) runWithBreakpoints() error {
	var err error
	m.withBreakpoints(func() {
		for {
			if err = m.machine.Run(m.ctx); err != nil {
				return
			}
			addr, hit := m.machine.CPU().BreakpointHit()
			if !hit {
				return
			}
			var cont bool
			if cont, err = m.handleBreak(addr); !cont || err != nil {
				return
			}
		}
	})
	return err
}

// stepWithBreakpoints executes one instruction; a breakpoint hit counts
// like in a run. It reports whether a breakpoint stopped execution.
func (m *MachineMonitor) stepWithBreakpoints() (bool, error) {
	_, err := m.cpu.Step()
	if err != nil {
		return false, err
	}
	addr, hit := m.machine.CPU().BreakpointHit()
	if !hit {
		return false, nil
	}
	cont, err := m.handleBreak(addr)
	return !cont && err == nil, err
}

// clockMeasure runs JP 0000H for the clock duration and returns the
// T-states executed, restoring memory and PC afterwards.
func (m *MachineMonitor) clockMeasure() (uint64, error) {
	c := m.machine.CPU()
	saved := m.cpu.ReadMemory(0, 3)
	pc := c.PC
	m.cpu.WriteMemory(0, []byte{0xC3, 0x00, 0x00})
	c.PC = 0
	before := c.Cycles

	m.histPause = true
	m.machine.StartExecution()
	time.Sleep(m.clockDuration)
	m.machine.Stop()
	m.histPause = false

	m.cpu.WriteMemory(0, saved)
	c.PC = pc
	return c.Cycles - before, m.machine.LastError()
}

func (m *MachineMonitor) registerHead() string {
	if m.machine.CPU().Model() == cpu.ModelZ80 {
		return "PC   A  SZHPNC I  IFF BC   DE   HL   A'F' B'C' D'E' H'L' IX   IY   SP"
	}
	return "PC   A  SZHPC BC   DE   HL   SP"
}

// registerLine formats the registers in one line under registerHead.
func (m *MachineMonitor) registerLine() string {
	c := m.machine.CPU()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04x %02x ", c.PC, c.A)
	flags := []byte{cpu.FlagS, cpu.FlagZ, cpu.FlagH, cpu.FlagPV, cpu.FlagN, cpu.FlagC}
	z80 := c.Model() == cpu.ModelZ80
	for _, f := range flags {
		if f == cpu.FlagN && !z80 {
			continue
		}
		sb.WriteByte('0' + b2u(c.F&f != 0))
	}
	if !z80 {
		fmt.Fprintf(&sb, " %04x %04x %04x %04x", c.BC(), c.DE(), c.HL(), c.SP)
		return sb.String()
	}
	fmt.Fprintf(&sb, " %02x %c%c  %04x %04x %04x %04x %04x %04x %04x %04x %04x %04x",
		c.I, '0'+b2u(c.IFF1), '0'+b2u(c.IFF2),
		c.BC(), c.DE(), c.HL(), c.AF2(), c.BC2(), c.DE2(), c.HL2(), c.IX, c.IY, c.SP)
	return sb.String()
}

func ansiColor(color uint32) string {
	switch color {
	case colorCyan:
		return "\x1b[36m"
	case colorYellow:
		return "\x1b[33m"
	case colorRed:
		return "\x1b[31m"
	case colorGreen:
		return "\x1b[32m"
	case colorDim:
		return "\x1b[34m"
	}
	return ""
}

// Color constants (RGBA packed as 0xRRGGBBAA)
const (
	colorWhite  = 0xFFFFFFFF
	colorCyan   = 0x64C8FFFF
	colorYellow = 0xFFFF55FF
	colorRed    = 0xFF5555FF
	colorGreen  = 0x55FF55FF
	colorDim    = 0x5555FFFF
)
