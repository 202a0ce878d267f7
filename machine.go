package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

const defaultLoadAddr = 0x0000

// ConsoleHost connects the console device to the host terminal while the
// CPU runs.
type ConsoleHost interface {
	Start()
	Stop()
}

type MachineConfig struct {
	CPU      cpu.Config
	Fill     int
	StrictIO bool
	LoadAddr uint16
	// Range restricts where programs may be loaded.
	Range LoadRange

	ROM      bool
	ROMStart uint16
	ROMEnd   uint16

	// Host creates the terminal adapter used for the duration of a run.
	// Without one the console only sees input queued by EnqueueByte.
	Host func(console *TerminalIO, onBreak func()) ConsoleHost
	// HandleSignals turns SIGINT into a user interrupt while running.
	HandleSignals bool

	Logger logrus.FieldLogger
}

// Machine is the reference system: 64K of memory, the console and hardware
// control ports and one Z80/8080 engine.
type Machine struct {
	cfg     MachineConfig
	bus     *MachineBus
	ports   *cpu.Ports
	console *TerminalIO
	cpu     *cpu.CPU
	log     logrus.FieldLogger

	hookMu sync.Mutex
	hooks  []func(pc uint16)

	execMu     sync.Mutex
	execDone   chan struct{}
	execActive bool
	lastErr    error
}

func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	m := &Machine{
		cfg:     cfg,
		bus:     NewMachineBus(cfg.Fill),
		ports:   cpu.NewPorts(cfg.Logger),
		console: NewTerminalIO(),
		log:     cfg.Logger,
	}
	if cfg.ROM {
		m.bus.ProtectROM(cfg.ROMStart, cfg.ROMEnd)
	}
	m.ports.Strict = cfg.StrictIO
	m.console.Attach(m.ports)

	cpuCfg := cfg.CPU
	cpuCfg.Logger = cfg.Logger
	userHook := cpuCfg.OnInstruction
	cpuCfg.OnInstruction = func(pc uint16) {
		if userHook != nil {
			userHook(pc)
		}
		m.runHooks(pc)
	}
	m.cpu = cpu.New(cpuCfg, m.bus, m.ports)

	m.console.OnHardwareReset(m.cpu.AssertReset)
	m.console.OnModelSwitch(m.cpu.SwitchModel)
	m.cpu.Reset()
	return m
}

func (m *Machine) CPU() *cpu.CPU {
	return m.cpu
}

func (m *Machine) Bus() *MachineBus {
	return m.bus
}

func (m *Machine) Ports() *cpu.Ports {
	return m.ports
}

func (m *Machine) Console() *TerminalIO {
	return m.console
}

func (m *Machine) Config() MachineConfig {
	return m.cfg
}

// AddInstructionHook registers fn to be called before every instruction.
// It returns a function removing the hook.
func (m *Machine) AddInstructionHook(fn func(pc uint16)) func() {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.hooks = append(m.hooks, fn)
	idx := len(m.hooks) - 1
	return func() {
		m.hookMu.Lock()
		defer m.hookMu.Unlock()
		if idx < len(m.hooks) {
			m.hooks[idx] = nil
		}
	}
}

func (m *Machine) runHooks(pc uint16) {
	m.hookMu.Lock()
	hooks := m.hooks
	m.hookMu.Unlock()
	for _, fn := range hooks {
		if fn != nil {
			fn(pc)
		}
	}
}

// LoadProgram loads a program file and points PC at its entry.
func (m *Machine) LoadProgram(filename string) (LoadResult, error) {
	return m.LoadProgramAt(filename, m.cfg.LoadAddr)
}

// LoadProgramAt loads a program file, placing raw binaries at addr.
func (m *Machine) LoadProgramAt(filename string, addr uint16) (LoadResult, error) {
	res, err := LoadProgramFile(m.bus, filename, addr, m.cfg.Range)
	if err != nil {
		return res, err
	}
	m.cpu.PC = res.Entry
	m.log.WithFields(logrus.Fields{
		"file":   filename,
		"format": res.Format.String(),
		"start":  fmt.Sprintf("%04x", res.Start),
		"end":    fmt.Sprintf("%04x", res.End),
	}).Info("program loaded")
	return res, nil
}

// Reset resets the CPU only.
func (m *Machine) Reset() {
	m.cpu.Reset()
}

// HardReset resets the CPU and every I/O device.
func (m *Machine) HardReset() {
	m.cpu.ResetMachine()
}

// PowerOn refills memory with the configured pattern and resets the
// machine with randomised registers.
func (m *Machine) PowerOn() {
	m.bus.Reset()
	m.cpu.PowerOn(func() uint16 { return uint16(rand.Uint32()) })
	m.ports.Reset()
}

// Run executes until the CPU stops. A hardware control reset restarts the
// CPU from its boot vector without returning.
func (m *Machine) Run(ctx context.Context) error {
	if m.cfg.HandleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}
	if m.cfg.Host != nil {
		host := m.cfg.Host(m.console, m.Interrupt)
		host.Start()
		defer host.Stop()
	}

	for {
		err := m.cpu.Run(ctx)
		if err == nil && m.cpu.State() == cpu.Reset {
			m.cpu.ReleaseReset(false)
			continue
		}
		m.setLastErr(err)
		return err
	}
}

// Interrupt stops a running CPU with a user interrupt.
func (m *Machine) Interrupt() {
	m.cpu.Abort(cpu.ErrUserInt)
}

func (m *Machine) IsRunning() bool {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	return m.execActive
}

// StartExecution runs the machine on its own goroutine.
func (m *Machine) StartExecution() {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	if m.execActive {
		return
	}
	m.execActive = true
	m.execDone = make(chan struct{})
	go func() {
		defer func() {
			m.execMu.Lock()
			m.execActive = false
			close(m.execDone)
			m.execMu.Unlock()
		}()
		_ = m.Run(context.Background())
	}()
}

// Stop ends a run started by StartExecution and waits for it.
func (m *Machine) Stop() {
	m.execMu.Lock()
	if !m.execActive {
		m.execMu.Unlock()
		return
	}
	done := m.execDone
	m.execMu.Unlock()

	// the goroutine may not have entered the run loop yet
	for {
		m.cpu.Stop()
		select {
		case <-done:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Wait blocks until a run started by StartExecution ends and returns its
// error.
func (m *Machine) Wait() error {
	m.execMu.Lock()
	done := m.execDone
	m.execMu.Unlock()
	if done != nil {
		<-done
	}
	return m.LastError()
}

func (m *Machine) setLastErr(err error) {
	m.execMu.Lock()
	m.lastErr = err
	m.execMu.Unlock()
}

// LastError returns the error of the most recent run.
func (m *Machine) LastError() error {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	return m.lastErr
}

// ReportError prints the reason the CPU stopped. A nil error or a plain
// stop prints nothing.
func (m *Machine) ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ft *cpu.Fault
	if errors.As(err, &ft) && ft.Err == cpu.ErrPowerOff {
		return
	}
	fmt.Fprintf(w, "\n%s\n", err)
}

// ReportStats prints the run time, T-states and effective clock.
func (m *Machine) ReportStats(w io.Writer) {
	st := m.cpu.Stats()
	fmt.Fprintln(w, tr("CPU ran %d ms and executed %d t-states", st.Elapsed.Milliseconds(), st.Cycles))
	fmt.Fprintln(w, tr("Clock frequency %4.2f MHz", st.MHz))
}
