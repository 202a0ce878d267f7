// debug_commands.go - Command parser and handlers for Machine Monitor

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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
	// Slot is the breakpoint number written directly after b, as in
	// "b2 1234", or -1.
	Slot int
}

// ParseCommand splits a raw input line into a command name and arguments.
// Arguments are separated by white space or commas outside parentheses.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{Slot: -1}
	}
	parts := splitArgs(input)
	cmd := MonitorCommand{Name: strings.ToLower(parts[0]), Slot: -1}
	if len(parts) > 1 {
		cmd.Args = parts[1:]
	}
	if len(cmd.Name) > 1 && cmd.Name[0] == 'b' {
		if n, err := strconv.Atoi(cmd.Name[1:]); err == nil {
			cmd.Name = "b"
			cmd.Slot = n
		}
	}
	return cmd
}

func splitArgs(s string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '(':
			depth++
		case ch == ')' && depth > 0:
			depth--
		case depth == 0 && (ch == ',' || ch == ' ' || ch == '\t'):
			flush()
			continue
		}
		current.WriteByte(ch)
	}
	flush()
	return parts
}

// ParseAddress parses a monitor address in various formats:
// $hex, 0xhex, bare hex, #decimal
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// #decimal
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}

	// $hex
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}

	// 0x or 0X hex
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}

	// bare hex
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress evaluates a simple expression: <term> [+|- <term>]*
// Each term is a register name, a numeric address or a $(...) Starlark
// expression.
func EvalAddress(expr string, cpu DebuggableCPU) (uint64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	type token struct {
		text string
		op   byte // 0 for first term, '+' or '-'
	}

	var tokens []token
	current := strings.Builder{}
	currentOp := byte(0)
	depth := 0

	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		if (ch == '+' || ch == '-') && i > 0 && depth == 0 {
			t := strings.TrimSpace(current.String())
			if t != "" {
				tokens = append(tokens, token{text: t, op: currentOp})
			}
			currentOp = ch
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}
	t := strings.TrimSpace(current.String())
	if t != "" {
		tokens = append(tokens, token{text: t, op: currentOp})
	}

	if len(tokens) == 0 {
		return 0, false
	}

	var result uint64
	for _, tok := range tokens {
		val, ok := evalTerm(tok.text, cpu)
		if !ok {
			return 0, false
		}

		switch tok.op {
		case 0, '+':
			result += val
		case '-':
			result -= val
		}
	}

	return result, true
}

func evalTerm(text string, cpu DebuggableCPU) (uint64, bool) {
	if strings.HasPrefix(text, "$(") && strings.HasSuffix(text, ")") {
		v, err := evalExpression(text[2:len(text)-1], cpu)
		return v, err == nil
	}
	// Register names take precedence; write 0a or $a for the number.
	if cpu != nil {
		if val, ok := cpu.GetRegister(strings.ToUpper(text)); ok {
			return val, true
		}
	}
	return ParseAddress(text)
}

// ExecuteCommand dispatches a parsed command to the appropriate handler.
// An empty line single-steps. Returns true if the monitor should exit.
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return m.cmdSingleStep()
	}

	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	switch cmd.Name {
	case "t":
		return m.cmdTrace(cmd)
	case "g":
		return m.cmdGo(cmd)
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdMemoryDump(cmd)
	case "l":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdModify(cmd)
	case "f":
		return m.cmdFill(cmd)
	case "v":
		return m.cmdMove(cmd)
	case "p":
		return m.cmdPort(cmd)
	case "b":
		return m.cmdBreakpoint(cmd)
	case "bc":
		return m.cmdBreakpointClear(cmd)
	case "h":
		return m.cmdHistory(cmd)
	case "z":
		return m.cmdCount(cmd)
	case "c":
		return m.cmdClock(cmd)
	case "s":
		return m.cmdSettings(cmd)
	case "x":
		return m.cmdLoad(cmd)
	case "eval":
		return m.cmdEval(cmd)
	case "snap":
		return m.cmdSnapshotSave(cmd)
	case "restore":
		return m.cmdSnapshotRestore(cmd)
	case "reset":
		m.machine.Reset()
		m.reportState(nil)
		return false
	case "hreset":
		m.machine.HardReset()
		m.reportState(nil)
		return false
	case "script":
		return m.cmdScript(cmd)
	case "macro":
		return m.cmdMacro(cmd)
	case "?", "help":
		return m.cmdHelp(cmd)
	case "q":
		return true
	default:
		if cmds, ok := m.macros[cmd.Name]; ok {
			return m.executeMacro(cmds)
		}
		m.appendOutput(fmt.Sprintf("Unknown command: %s", cmd.Name), colorRed)
		return false
	}
}

func (m *MachineMonitor) evalArg(s string) (uint16, bool) {
	v, ok := EvalAddress(s, m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", s), colorRed)
	}
	return uint16(v), ok
}

func (m *MachineMonitor) cmdSingleStep() bool {
	_, err := m.cpu.Step()
	m.reportState(err)
	return false
}

func (m *MachineMonitor) cmdTrace(cmd MonitorCommand) bool {
	count := 20
	if len(cmd.Args) >= 1 {
		n, err := strconv.Atoi(cmd.Args[0])
		if err != nil || n < 1 {
			m.appendOutput("Usage: t [count]", colorRed)
			return false
		}
		count = n
	}

	m.appendOutput(m.registerHead(), colorCyan)
	m.appendOutput(m.registerLine(), colorWhite)
	var err error
	m.withBreakpoints(func() {
		for range count {
			var stop bool
			stop, err = m.stepWithBreakpoints()
			m.appendOutput(m.registerLine(), colorWhite)
			if stop || err != nil {
				return
			}
		}
	})
	m.reportFault(err)
	m.wrkAddr = m.cpu.GetPC()
	return false
}

func (m *MachineMonitor) cmdGo(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 {
		addr, ok := m.evalArg(cmd.Args[0])
		if !ok {
			return false
		}
		m.cpu.SetPC(addr)
	}

	err := m.runWithBreakpoints()
	m.reportFault(err)
	m.showRegisters()
	m.wrkAddr = m.cpu.GetPC()
	return false
}

func (m *MachineMonitor) cmdRegisters(cmd MonitorCommand) bool {
	if len(cmd.Args) == 0 {
		m.showRegisters()
		return false
	}

	name, value := cmd.Args[0], ""
	if i := strings.IndexByte(name, '='); i >= 0 {
		name, value = name[:i], name[i+1:]
	} else if len(cmd.Args) >= 2 {
		value = cmd.Args[1]
	}

	if value == "" {
		v, ok := m.cpu.GetRegister(name)
		if !ok {
			m.appendOutput(fmt.Sprintf("Unknown register: %s", name), colorRed)
			return false
		}
		m.appendOutput(fmt.Sprintf("%s = %s", strings.ToUpper(name), m.formatRegister(name, v)), colorWhite)
		return false
	}

	v, ok := EvalAddress(value, m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid value: %s", value), colorRed)
		return false
	}
	if !m.cpu.SetRegister(name, v) {
		m.appendOutput(fmt.Sprintf("can't change register %s", name), colorRed)
		return false
	}
	m.showRegisters()
	return false
}

func (m *MachineMonitor) formatRegister(name string, v uint64) string {
	for _, r := range m.cpu.GetRegisters() {
		if strings.EqualFold(r.Name, name) {
			switch r.BitWidth {
			case 1:
				return strconv.FormatUint(v, 2)
			case 8:
				return fmt.Sprintf("%02x", v)
			}
		}
	}
	return fmt.Sprintf("%04x", v)
}

func (m *MachineMonitor) showRegisters() {
	m.appendOutput(m.registerHead(), colorCyan)
	m.appendOutput(m.registerLine(), colorWhite)
}

func (m *MachineMonitor) cmdDisassemble(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 {
		addr, ok := m.evalArg(cmd.Args[0])
		if !ok {
			return false
		}
		m.wrkAddr = addr
	}
	m.wrkAddr = m.showDisassemblyAt(m.wrkAddr, 10)
	return false
}

// showDisassemblyAt lists count instructions and returns the address
// after the last one.
func (m *MachineMonitor) showDisassemblyAt(addr uint16, count int) uint16 {
	lines := m.cpu.Disassemble(addr, count)

	for _, line := range lines {
		color := uint32(colorWhite)
		if line.IsPC {
			color = colorYellow
		}
		suffix := ""
		if i := m.breakpointIndex(line.Address); i >= 0 {
			color = colorRed
			suffix = fmt.Sprintf("  ; b%d", i)
		}
		text := fmt.Sprintf("%04x - %-11s  %s%s", line.Address, line.HexBytes, line.Mnemonic, suffix)
		m.appendOutput(text, color)
		addr = line.Address + uint16(line.Size)
	}
	return addr
}

func (m *MachineMonitor) cmdMemoryDump(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 {
		addr, ok := m.evalArg(cmd.Args[0])
		if !ok {
			return false
		}
		m.wrkAddr = addr - addr%16
	}

	var head strings.Builder
	head.WriteString("Adr    ")
	for i := range 16 {
		fmt.Fprintf(&head, "%02x ", i)
	}
	head.WriteString(" ASCII")
	m.appendOutput(head.String(), colorCyan)

	for range 16 {
		data := m.cpu.ReadMemory(m.wrkAddr, 16)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04x - ", m.wrkAddr)
		for _, b := range data {
			fmt.Fprintf(&sb, "%02x ", b)
		}
		sb.WriteByte('\t')
		for _, b := range data {
			if b >= 0x20 && b < 0x7F {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		m.appendOutput(sb.String(), colorWhite)
		m.wrkAddr += 16
	}
	return false
}

func (m *MachineMonitor) cmdModify(cmd MonitorCommand) bool {
	addr := m.wrkAddr
	if len(cmd.Args) >= 1 {
		var ok bool
		if addr, ok = m.evalArg(cmd.Args[0]); !ok {
			return false
		}
	}
	if len(cmd.Args) < 2 {
		m.appendOutput(fmt.Sprintf("%04x = %02x", addr, m.cpu.ReadMemory(addr, 1)[0]), colorWhite)
		m.wrkAddr = addr
		return false
	}

	for _, arg := range cmd.Args[1:] {
		v, ok := EvalAddress(arg, m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid value: %s", arg), colorRed)
			break
		}
		m.cpu.WriteMemory(addr, []byte{byte(v)})
		addr++
	}
	m.wrkAddr = addr
	return false
}

func (m *MachineMonitor) cmdFill(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("count missing", colorRed)
		return false
	}
	if len(cmd.Args) < 3 {
		m.appendOutput("value missing", colorRed)
		return false
	}
	addr, ok1 := m.evalArg(cmd.Args[0])
	count, ok2 := EvalAddress(cmd.Args[1], m.cpu)
	val, ok3 := EvalAddress(cmd.Args[2], m.cpu)
	if !ok1 || !ok2 || !ok3 {
		m.appendOutput("Usage: f address,count,value", colorRed)
		return false
	}

	for range count {
		m.cpu.WriteMemory(addr, []byte{byte(val)})
		addr++
	}
	return false
}

func (m *MachineMonitor) cmdMove(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("to missing", colorRed)
		return false
	}
	if len(cmd.Args) < 3 {
		m.appendOutput("count missing", colorRed)
		return false
	}
	from, ok1 := m.evalArg(cmd.Args[0])
	to, ok2 := m.evalArg(cmd.Args[1])
	count, ok3 := EvalAddress(cmd.Args[2], m.cpu)
	if !ok1 || !ok2 || !ok3 {
		return false
	}

	for range count {
		m.cpu.WriteMemory(to, m.cpu.ReadMemory(from, 1))
		from++
		to++
	}
	return false
}

func (m *MachineMonitor) cmdPort(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: p port[,value]", colorRed)
		return false
	}
	port, ok := m.evalArg(cmd.Args[0])
	if !ok {
		return false
	}

	ports := m.machine.Ports()
	v, err := ports.In(byte(port), 0)
	if err != nil {
		m.reportFault(err)
		return false
	}
	m.appendOutput(fmt.Sprintf("%02x = %02x", byte(port), v), colorWhite)

	if len(cmd.Args) >= 2 {
		val, ok := EvalAddress(cmd.Args[1], m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid value: %s", cmd.Args[1]), colorRed)
			return false
		}
		if err := ports.Out(byte(port), 0, byte(val)); err != nil {
			m.reportFault(err)
		}
	}
	return false
}

func (m *MachineMonitor) cmdBreakpoint(cmd MonitorCommand) bool {
	if len(cmd.Args) == 0 {
		if cmd.Slot >= 0 {
			m.appendOutput("Usage: b[no] address[,pass] | b[no] c", colorRed)
			return false
		}
		return m.cmdBreakpointList(cmd)
	}

	if strings.EqualFold(cmd.Args[0], "c") {
		if !m.ClearBreakpoint(cmd.Slot) {
			m.appendOutput(fmt.Sprintf("breakpoint %d not set", cmd.Slot), colorRed)
		}
		return false
	}

	addr, ok := m.evalArg(cmd.Args[0])
	if !ok {
		return false
	}
	pass := 1
	if len(cmd.Args) >= 2 {
		v, ok := EvalAddress(cmd.Args[1], m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid pass count: %s", cmd.Args[1]), colorRed)
			return false
		}
		pass = int(v)
	}

	slot, err := m.SetBreakpoint(cmd.Slot, addr, pass)
	if err != nil {
		m.appendOutput(err.Error(), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Breakpoint %d set at %04x", slot, addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: bc <addr|*>", colorRed)
		return false
	}

	if cmd.Args[0] == "*" {
		m.ClearAllBreakpoints()
		m.appendOutput("All breakpoints cleared", colorGreen)
		return false
	}

	addr, ok := m.evalArg(cmd.Args[0])
	if !ok {
		return false
	}
	if m.ClearBreakpointAt(addr) {
		m.appendOutput(fmt.Sprintf("Breakpoint cleared at %04x", addr), colorGreen)
	} else {
		m.appendOutput(fmt.Sprintf("No breakpoint at %04x", addr), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(_ MonitorCommand) bool {
	m.appendOutput("No Addr Pass  Counter", colorCyan)
	for i, bp := range m.breakpoints {
		if bp.set() {
			m.appendOutput(fmt.Sprintf("%02d %04x %05d %05d", i, bp.addr, bp.pass, bp.counter), colorWhite)
		}
	}
	return false
}

func (m *MachineMonitor) cmdHistory(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 && strings.EqualFold(cmd.Args[0], "c") {
		m.clearHistory()
		return false
	}

	entries := m.historyEntries()
	if len(entries) == 0 {
		m.appendOutput("History memory is empty", colorWhite)
		return false
	}

	start := -1
	if len(cmd.Args) >= 1 {
		addr, ok := m.evalArg(cmd.Args[0])
		if !ok {
			return false
		}
		start = int(addr)
	}

	z80 := m.machine.CPU().Model() == cpu.ModelZ80
	for _, h := range entries {
		if start >= 0 {
			if int(h.pc) < start {
				continue
			}
			start = -1
		}
		if z80 {
			m.appendOutput(fmt.Sprintf("%04x AF=%04x BC=%04x DE=%04x HL=%04x IX=%04x IY=%04x SP=%04x",
				h.pc, h.af, h.bc, h.de, h.hl, h.ix, h.iy, h.sp), colorWhite)
		} else {
			m.appendOutput(fmt.Sprintf("%04x AF=%04x BC=%04x DE=%04x HL=%04x SP=%04x",
				h.pc, h.af, h.bc, h.de, h.hl, h.sp), colorWhite)
		}
	}
	return false
}

func (m *MachineMonitor) cmdCount(cmd MonitorCommand) bool {
	if len(cmd.Args) == 0 {
		status := "off"
		if m.tsOn {
			status = "on "
		}
		m.appendOutput("start  stop  status  T-states", colorCyan)
		m.appendOutput(fmt.Sprintf("%04x   %04x    %s   %d", m.tsStart, m.tsEnd, status, m.tsStates), colorWhite)
		return false
	}

	start, ok := m.evalArg(cmd.Args[0])
	if !ok {
		return false
	}
	m.tsStart = start
	if len(cmd.Args) >= 2 {
		end, ok := m.evalArg(cmd.Args[1])
		if !ok {
			return false
		}
		m.tsEnd = end
	}
	m.tsStates = 0
	m.tsOn = false
	return false
}

func (m *MachineMonitor) cmdClock(_ MonitorCommand) bool {
	states, err := m.clockMeasure()
	if err != nil {
		if cpu.Code(err) == cpu.ErrUserInt {
			m.appendOutput("Interrupted by user", colorRed)
		} else {
			m.reportFault(err)
		}
		return false
	}

	jp := "JP"
	if m.machine.CPU().Model() == cpu.Model8080 {
		jp = "JMP"
	}
	secs := m.clockDuration.Seconds()
	m.appendOutput(fmt.Sprintf("CPU executed %d %s instructions in %v", states/10, jp, m.clockDuration), colorWhite)
	m.appendOutput(fmt.Sprintf("clock frequency = %5.2f Mhz", float64(states)/secs/1e6), colorWhite)
	return false
}

func (m *MachineMonitor) cmdSettings(_ MonitorCommand) bool {
	ccfg := m.machine.CPU().Config()
	mcfg := m.machine.Config()

	speed := "unlimited"
	if ccfg.FrequencyMHz > 0 {
		speed = fmt.Sprintf("%d MHz", ccfg.FrequencyMHz)
	}
	undoc := "not "
	if ccfg.Undocumented {
		undoc = ""
	}
	ioMode := "ignored"
	if mcfg.StrictIO {
		ioMode = "trapped"
	}
	rom := "none"
	if start, end, ok := m.machine.Bus().ROM(); ok {
		rom = fmt.Sprintf("%04x-%04x", start, end)
	}

	for _, line := range []string{
		fmt.Sprintf("CPU model: %s", ccfg.Model),
		fmt.Sprintf("Execution: %s", ccfg.Exec),
		fmt.Sprintf("CPU speed: %s", speed),
		fmt.Sprintf("No. of entries in history memory: %d", historySize),
		fmt.Sprintf("No. of software breakpoints: %d", maxBreakpoints),
		fmt.Sprintf("Undocumented op-codes %sexecuted", undoc),
		fmt.Sprintf("Unused I/O ports %s", ioMode),
		fmt.Sprintf("ROM: %s", rom),
		"T-State counting possible",
	} {
		m.appendOutput(line, colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdLoad(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: x filename[,address]", colorRed)
		return false
	}
	addr := m.machine.Config().LoadAddr
	if len(cmd.Args) >= 2 {
		var ok bool
		if addr, ok = m.evalArg(cmd.Args[1]); !ok {
			return false
		}
	}

	res, err := m.machine.LoadProgramAt(cmd.Args[0], addr)
	if err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Loader statistics for file %s:", cmd.Args[0]), colorCyan)
	m.appendOutput(fmt.Sprintf("FORMAT: %s", res.Format), colorWhite)
	m.appendOutput(fmt.Sprintf("START : %04x", res.Start), colorWhite)
	m.appendOutput(fmt.Sprintf("END   : %04x", res.End), colorWhite)
	m.appendOutput(fmt.Sprintf("PC    : %04x", res.Entry), colorWhite)
	m.appendOutput(fmt.Sprintf("LOADED: %04x (%d)", res.Count, res.Count), colorWhite)
	m.wrkAddr = m.cpu.GetPC()
	return false
}

func (m *MachineMonitor) cmdSnapshotSave(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: snap <filename>", colorRed)
		return false
	}
	if err := SaveSnapshotToFile(TakeSnapshot(m.machine), cmd.Args[0]); err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Snapshot saved to %s", cmd.Args[0]), colorGreen)
	return false
}

func (m *MachineMonitor) cmdSnapshotRestore(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: restore <filename>", colorRed)
		return false
	}
	snap, err := LoadSnapshotFromFile(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	RestoreSnapshot(m.machine, snap)
	m.reportState(nil)
	return false
}

func (m *MachineMonitor) cmdEval(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: eval <expr>", colorRed)
		return false
	}
	expr := strings.Join(cmd.Args, " ")
	v, ok := EvalAddress(expr, m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid expression: %s", expr), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("%04x  #%d", v, v), colorWhite)
	return false
}

func (m *MachineMonitor) cmdHelp(_ MonitorCommand) bool {
	helpLines := []string{
		"Machine Monitor Commands:",
		"  return                    Single step",
		"  t [count]                 Trace program (default 20)",
		"  g [addr]                  Run program",
		"  r [reg[=value]]           Show/modify register (fs fz fh fp fn fc for flags)",
		"  d [addr]                  Dump memory",
		"  l [addr]                  List memory",
		"  m [addr] [bytes..]        Show/modify memory",
		"  f addr,count,value        Fill memory",
		"  v from,to,count           Move memory",
		"  p port[,value]            Show/modify port",
		"  b[no] addr[,pass]         Set soft breakpoint",
		"  b                         Show soft breakpoints",
		"  b[no] c                   Clear soft breakpoint",
		"  bc <addr|*>               Clear breakpoint(s) by address",
		"  h [addr]                  Show history",
		"  h c                       Clear history",
		"  z start,stop              Set trigger addresses for T-state count",
		"  z                         Show T-state count",
		"  c                         Measure clock frequency",
		"  s                         Show settings",
		"  x file[,addr]             Load program into memory",
		"  eval <expr>               Evaluate expression",
		"  snap <file>               Save registers and memory",
		"  restore <file>            Restore a saved snapshot",
		"  reset / hreset            Reset CPU / CPU and devices",
		"  script <file>             Run command script or .lua script",
		"  macro <name> <cmds..>     Define macro (;-separated)",
		"  q                         Quit",
		"",
		"Addresses: $hex, 0xhex, bare hex, #decimal, register, expr+expr",
		"Expressions: $(...) in Starlark, registers as a, hl, hl_ (HL'), peek(addr), word(addr)",
	}
	for _, line := range helpLines {
		m.appendOutput(line, colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdScript(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: script <filename>", colorRed)
		return false
	}

	quit, err := m.RunScript(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
	}
	return quit
}

// RunScript executes a file of monitor commands, or a Lua script when the
// name ends in .lua. It reports whether the script asked to quit.
func (m *MachineMonitor) RunScript(path string) (bool, error) {
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		return false, m.RunLuaFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	m.scriptDepth++
	defer func() { m.scriptDepth-- }()
	if m.scriptDepth > 8 {
		return false, errors.New(tr("script recursion limit reached"))
	}

	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m.ExecuteCommand(line) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MachineMonitor) cmdMacro(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("Usage: macro <name> <cmd1> ; <cmd2> ; ...", colorRed)
		return false
	}

	name := strings.ToLower(cmd.Args[0])
	body := strings.Join(cmd.Args[1:], " ")
	cmds := strings.Split(body, ";")
	var cleaned []string
	for _, c := range cmds {
		c = strings.TrimSpace(c)
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}

	m.macros[name] = cleaned
	m.appendOutput(fmt.Sprintf("Macro '%s' defined (%d commands)", name, len(cleaned)), colorCyan)
	return false
}

func (m *MachineMonitor) executeMacro(cmds []string) bool {
	m.scriptDepth++
	if m.scriptDepth > 8 {
		m.scriptDepth--
		m.appendOutput("Macro recursion limit reached", colorRed)
		return false
	}

	if slices.ContainsFunc(cmds, m.ExecuteCommand) {
		m.scriptDepth--
		return true
	}

	m.scriptDepth--
	return false
}
