package cpu

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// throttleWindow is the wall-clock slice the frequency limit is applied
// over.
const throttleWindow = 10 * time.Millisecond

func (c *CPU) State() State {
	return State(c.state.Load())
}

func (c *CPU) setState(s State) {
	c.state.Store(int32(s))
}

// Err returns the error that stopped the last Run, Step or StepCycle.
func (c *CPU) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *CPU) fail(ft *Fault) {
	c.mu.Lock()
	if c.err == nil {
		c.err = ft
	}
	c.mu.Unlock()
	c.setState(Stopped)
	c.log.WithFields(logrus.Fields{
		"error": ft.Err.String(),
		"pc":    ft.PC,
	}).Debug("cpu stopped")
}

// ioFault converts an error returned by the I/O collaborator. Engine error
// codes pass through; anything else is a fatal I/O error.
func (c *CPU) ioFault(err error, port byte) {
	var code Error
	if errors.As(err, &code) {
		c.fail(&Fault{Err: code, PC: c.instrPC, Port: port})
		return
	}
	c.log.WithError(err).WithField("port", port).Error("I/O device failed")
	c.fail(&Fault{Err: ErrIOError, PC: c.instrPC, Port: port})
}

// Stop ends Run at the next instruction boundary without an error.
func (c *CPU) Stop() {
	c.setState(Stopped)
}

// Abort ends Run at the next instruction boundary with code, typically
// ErrUserInt or ErrPowerOff. It is safe to call from any goroutine.
func (c *CPU) Abort(code Error) {
	c.mu.Lock()
	if c.abort == 0 {
		c.abort = code
	}
	c.mu.Unlock()
	c.setState(Stopped)
}

// AssertReset holds the CPU in reset. A running loop returns at the next
// instruction boundary.
func (c *CPU) AssertReset() {
	c.setState(Reset)
}

// ReleaseReset performs the reset held by AssertReset. full also resets
// every I/O device.
func (c *CPU) ReleaseReset(full bool) {
	if full {
		c.ResetMachine()
	} else {
		c.Reset()
	}
	c.setState(Stopped)
}

// SetBreakpointCheck installs the predicate consulted when a HALT opcode
// executes. A HALT at an address it accepts is a software breakpoint: PC
// is left on the HALT and the CPU stops without an error.
func (c *CPU) SetBreakpointCheck(fn func(addr uint16) bool) {
	c.breakpoint = fn
}

// BreakpointHit reports whether the last run stopped on a software
// breakpoint and where.
func (c *CPU) BreakpointHit() (uint16, bool) {
	return c.bpAddr, c.bpHit
}

// Halted reports whether the CPU is waiting in a HALT.
func (c *CPU) Halted() bool {
	return c.halted
}

// RequestBus asks for the bus on behalf of a DMA master. It is granted at
// the next instruction boundary.
func (c *CPU) RequestBus(mode BusMode, master BusMaster) {
	c.mu.Lock()
	c.busMode = mode
	c.busMaster = master
	c.busRequest = true
	c.mu.Unlock()
}

// EndBusRequest returns the bus to the CPU.
func (c *CPU) EndBusRequest() {
	c.mu.Lock()
	c.busMode = BusDMANone
	c.busMaster = nil
	c.busRequest = false
	c.mu.Unlock()
}

func (c *CPU) serviceBus() {
	c.mu.Lock()
	mode, req, master := c.busMode, c.busRequest, c.busMaster
	c.busRequest = false
	c.mu.Unlock()

	if mode == BusDMANone || master == nil {
		return
	}
	if !req && mode != BusDMAContinuous {
		c.tick(master(false))
	}
	if req {
		c.tick(master(true))
		if mode == BusDMAContinuous {
			c.EndBusRequest()
		}
	}
}

// SwitchModel changes the instruction set. While the CPU is running the
// switch happens at the next instruction boundary.
func (c *CPU) SwitchModel(m Model) {
	if !c.State().active() {
		c.applyModel(m)
		return
	}
	c.mu.Lock()
	c.nextModel = m
	c.modelSwitch = true
	c.mu.Unlock()
}

func (c *CPU) applyModel(m Model) {
	if m == c.model {
		return
	}
	c.setModel(m)
	c.log.WithField("model", m.String()).Info("cpu model switched")
}

// SetFrequency sets the emulated clock in MHz; 0 runs unthrottled. It
// takes effect on the next Run.
func (c *CPU) SetFrequency(mhz int) {
	c.cfg.FrequencyMHz = mhz
}

// begin prepares a run in state s. An Abort that arrived while the CPU
// was stopped is kept, and begin then reports false so the caller returns
// it without executing.
func (c *CPU) begin(s State) bool {
	c.mu.Lock()
	c.err = nil
	pending := c.abort != 0
	if c.modelSwitch {
		c.modelSwitch = false
		c.applyModel(c.nextModel)
	}
	c.mu.Unlock()
	c.bpHit = false
	if pending {
		c.setState(Stopped)
		return false
	}
	c.setState(s)
	return true
}

func (c *CPU) finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abort != 0 {
		if c.err == nil {
			c.err = &Fault{Err: c.abort, PC: c.PC}
		}
		c.abort = 0
	}
	return c.err
}

// Run executes instructions until the CPU stops, an error occurs or ctx
// is cancelled, which stops it with ErrUserInt.
func (c *CPU) Run(ctx context.Context) error {
	if !c.begin(Running) {
		return c.finish()
	}
	stop := context.AfterFunc(ctx, func() {
		c.Abort(ErrUserInt)
	})

	c.tmax = uint64(c.cfg.FrequencyMHz) * uint64(throttleWindow/time.Microsecond)
	c.tmaxNext = c.Cycles + c.tmax
	c.windowT0 = time.Now()
	t0 := time.Now()

	for c.State() == Running {
		c.step()
		if c.tmax > 0 && c.Cycles >= c.tmaxNext {
			c.throttle()
		}
	}

	c.cpuTime += time.Since(t0)
	stop()
	return c.finish()
}

// throttle sleeps out the rest of a window that finished early.
func (c *CPU) throttle() {
	elapsed := time.Since(c.windowT0)
	if elapsed > 0 && elapsed < throttleWindow {
		time.Sleep(throttleWindow - elapsed)
	}
	c.tmaxNext = c.Cycles + c.tmax
	c.windowT0 = time.Now()
}

// Step executes one instruction, or services one interrupt, and returns
// the T-states it took.
func (c *CPU) Step() (int, error) {
	if !c.begin(SingleStep) {
		return 0, c.finish()
	}
	before := c.Cycles
	t0 := time.Now()
	c.step()
	c.cpuTime += time.Since(t0)
	c.state.CompareAndSwap(int32(SingleStep), int32(Stopped))
	return int(c.Cycles - before), c.finish()
}

// StepCycle executes one instruction with the stepper consulted on every
// machine cycle.
func (c *CPU) StepCycle() (int, error) {
	if !c.begin(StepCycle) {
		return 0, c.finish()
	}
	c.stepCycles = true
	before := c.Cycles
	c.step()
	c.stepCycles = false
	c.state.CompareAndSwap(int32(StepCycle), int32(Stopped))
	return int(c.Cycles - before), c.finish()
}

func (c *CPU) step() {
	c.mu.Lock()
	if c.modelSwitch {
		c.modelSwitch = false
		c.applyModel(c.nextModel)
	}
	c.mu.Unlock()

	c.serviceBus()
	if hook := c.cfg.OnInstruction; hook != nil {
		hook(c.PC)
	}
	if c.pollInterrupts() {
		return
	}

	c.intProtection = false
	c.instrPC = c.PC
	c.opLen = 0
	f := c.F
	c.pmodF, c.modF = c.modF, false
	c.dispatch(c.ops, c.fetchOpcode(), ErrOpTrap1)
	if c.F != f {
		c.modF = true
	}
	if c.busStatus&BusINTA == 0 {
		c.busStatus = BusWO | BusM1 | BusMEMR
	}
}

func (c *CPU) opHALT() {
	c.busStatus = BusWO | BusHLTA | BusMEMR

	if c.breakpoint != nil && c.breakpoint(c.instrPC) {
		c.PC = c.instrPC
		c.bpAddr = c.instrPC
		c.bpHit = true
		c.setState(Stopped)
		return
	}
	if !c.IFF1 && c.stepper == nil {
		c.fail(&Fault{Err: ErrOpHalt, PC: c.instrPC})
		return
	}

	c.halted = true
	t0 := time.Now()
	for c.haltWait() && !c.interruptPending() {
		time.Sleep(time.Millisecond)
		c.addR(99)
	}
	c.halted = false
	c.foldHalt(time.Since(t0))

	if c.interruptPending() {
		c.busStatus = BusINTA | BusWO | BusHLTA | BusM1
	}
}

// haltWait reports whether a HALT keeps waiting in the current state. With
// a stepper attached the stepping states wait too.
func (c *CPU) haltWait() bool {
	s := c.State()
	if c.stepper != nil {
		return s.active() && c.Err() == nil
	}
	return s == Running
}

// foldHalt accounts the time spent halted as T-states at the configured
// frequency so throttling and statistics stay consistent.
func (c *CPU) foldHalt(d time.Duration) {
	if mhz := c.cfg.FrequencyMHz; mhz > 0 {
		c.tick(int(d.Microseconds()) * mhz)
		return
	}
	c.haltTime += d
}

// Stats summarises execution since the CPU was created.
type Stats struct {
	Cycles uint64
	// Elapsed is the wall time spent executing, excluding halts when
	// running unthrottled.
	Elapsed time.Duration
	// MHz is the effective clock rate.
	MHz float64
}

func (c *CPU) Stats() Stats {
	elapsed := c.cpuTime - c.haltTime
	st := Stats{Cycles: c.Cycles, Elapsed: elapsed}
	if us := elapsed.Microseconds(); us > 0 {
		st.MHz = float64(c.Cycles) / float64(us)
	}
	return st
}
