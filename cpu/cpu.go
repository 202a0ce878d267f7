package cpu

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// CPU is one Z80 or 8080 instance. Register fields are owned by the
// goroutine driving Run, Step or StepCycle.
type CPU struct {
	A  byte
	F  byte
	B  byte
	C  byte
	D  byte
	E  byte
	H  byte
	L  byte
	A2 byte
	F2 byte
	B2 byte
	C2 byte
	D2 byte
	E2 byte
	H2 byte
	L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	IM byte
	WZ uint16

	IFF1 bool
	IFF2 bool

	Cycles uint64

	cfg     Config
	log     logrus.FieldLogger
	mem     Memory
	io      IO
	stepper Stepper
	intDev  InterruptDevice

	model   Model
	ops     *opTable
	state   atomic.Int32

	// guards the fields below, which other goroutines may touch
	mu          sync.Mutex
	err         error
	intLine     bool
	intData     int
	nmiLine     bool
	nmiPending  bool
	busMode     BusMode
	busRequest  bool
	busMaster   BusMaster
	nextModel   Model
	modelSwitch bool
	abort       Error

	intProtection bool
	// F was changed by the current (modF) and previous (pmodF) instruction
	modF          bool
	pmodF         bool
	// effective address of the current DDCB/FDCB instruction
	ea            uint16
	halted        bool
	busStatus     BusStatus
	stackCycle    BusStatus
	stepCycles    bool

	// bytes fetched for the current instruction, reported on traps
	instrPC uint16
	opBytes [4]byte
	opLen   int

	breakpoint func(addr uint16) bool
	bpHit      bool
	bpAddr     uint16

	// wall-clock bookkeeping for throttling and statistics
	cpuTime   time.Duration
	haltTime  time.Duration
	tmax      uint64
	tmaxNext  uint64
	windowT0  time.Time
}

// New builds a CPU on mem and io and resets it. io may be nil, in which
// case every port reads IdleData.
func New(cfg Config, mem Memory, io IO) *CPU {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if io == nil {
		io = NewPorts(cfg.Logger)
	}
	c := &CPU{
		cfg:     cfg,
		log:     cfg.Logger,
		mem:     mem,
		io:      io,
		intData: -1,
	}
	c.setModel(cfg.Model)
	c.Reset()
	return c
}

// Config returns the configuration the CPU was built with. Model reflects
// the current instruction set after SwitchModel.
func (c *CPU) Config() Config {
	cfg := c.cfg
	cfg.Model = c.model
	return cfg
}

func (c *CPU) Model() Model {
	return c.model
}

func (c *CPU) Memory() Memory {
	return c.mem
}

func (c *CPU) IO() IO {
	return c.io
}

// AttachStepper installs the single-step controller. A CPU with a stepper
// waits in HALT with interrupts disabled instead of stopping with
// ErrOpHalt.
func (c *CPU) AttachStepper(s Stepper) {
	c.stepper = s
}

// AttachInterruptDevice installs the device acknowledged in IM0 and IM2.
func (c *CPU) AttachInterruptDevice(dev InterruptDevice) {
	c.mu.Lock()
	c.intDev = dev
	c.mu.Unlock()
}

// Reset is a CPU-only reset: PC is loaded from the boot vector, interrupts
// are disabled, I, R and IM are cleared and pending interrupts are
// dropped. Other registers keep their values.
func (c *CPU) Reset() {
	c.mu.Lock()
	c.intLine = false
	c.intData = -1
	c.nmiLine = false
	c.nmiPending = false
	c.mu.Unlock()

	c.IFF1 = false
	c.IFF2 = false
	c.intProtection = false
	c.halted = false
	c.PC = c.cfg.BootVector
	c.I = 0
	c.R = 0
	c.IM = 0
	c.WZ = 0
	c.busStatus = BusWO | BusM1 | BusMEMR
}

// ResetMachine resets the CPU and every device behind the I/O collaborator.
func (c *CPU) ResetMachine() {
	c.io.Reset()
	c.Reset()
}

// PowerOn randomises the register file the way real parts come up, then
// resets. On the 8080 the fixed bits of F are forced.
func (c *CPU) PowerOn(seed func() uint16) {
	c.SP = seed()
	c.SetAF(seed())
	c.SetBC(seed())
	c.SetDE(seed())
	c.SetHL(seed())
	if c.model == ModelZ80 {
		c.SetAF2(seed())
		c.SetBC2(seed())
		c.SetDE2(seed())
		c.SetHL2(seed())
		c.IX = seed()
		c.IY = seed()
	} else {
		c.F = c.F&^flagXY | FlagN
	}
	c.Reset()
}

func (c *CPU) AF() uint16 {
	return uint16(c.A)<<8 | uint16(c.F)
}

func (c *CPU) BC() uint16 {
	return uint16(c.B)<<8 | uint16(c.C)
}

func (c *CPU) DE() uint16 {
	return uint16(c.D)<<8 | uint16(c.E)
}

func (c *CPU) HL() uint16 {
	return uint16(c.H)<<8 | uint16(c.L)
}

func (c *CPU) AF2() uint16 {
	return uint16(c.A2)<<8 | uint16(c.F2)
}

func (c *CPU) BC2() uint16 {
	return uint16(c.B2)<<8 | uint16(c.C2)
}

func (c *CPU) DE2() uint16 {
	return uint16(c.D2)<<8 | uint16(c.E2)
}

func (c *CPU) HL2() uint16 {
	return uint16(c.H2)<<8 | uint16(c.L2)
}

func (c *CPU) SetAF(value uint16) {
	c.A = byte(value >> 8)
	c.F = byte(value)
}

func (c *CPU) SetBC(value uint16) {
	c.B = byte(value >> 8)
	c.C = byte(value)
}

func (c *CPU) SetDE(value uint16) {
	c.D = byte(value >> 8)
	c.E = byte(value)
}

func (c *CPU) SetHL(value uint16) {
	c.H = byte(value >> 8)
	c.L = byte(value)
}

func (c *CPU) SetAF2(value uint16) {
	c.A2 = byte(value >> 8)
	c.F2 = byte(value)
}

func (c *CPU) SetBC2(value uint16) {
	c.B2 = byte(value >> 8)
	c.C2 = byte(value)
}

func (c *CPU) SetDE2(value uint16) {
	c.D2 = byte(value >> 8)
	c.E2 = byte(value)
}

func (c *CPU) SetHL2(value uint16) {
	c.H2 = byte(value >> 8)
	c.L2 = byte(value)
}

// IXH and friends expose the index register halves.
func (c *CPU) IXH() byte { return byte(c.IX >> 8) }
func (c *CPU) IXL() byte { return byte(c.IX) }
func (c *CPU) IYH() byte { return byte(c.IY >> 8) }
func (c *CPU) IYL() byte { return byte(c.IY) }

func (c *CPU) SetIXH(v byte) { c.IX = c.IX&0x00FF | uint16(v)<<8 }
func (c *CPU) SetIXL(v byte) { c.IX = c.IX&0xFF00 | uint16(v) }
func (c *CPU) SetIYH(v byte) { c.IY = c.IY&0x00FF | uint16(v)<<8 }
func (c *CPU) SetIYL(v byte) { c.IY = c.IY&0xFF00 | uint16(v) }

func (c *CPU) ExAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
}

func (c *CPU) Exx() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
}

// BusStatus returns the status byte of the last machine cycle.
func (c *CPU) BusStatus() BusStatus {
	return c.busStatus
}

func (c *CPU) incrementR() {
	c.R = (c.R & 0x80) | ((c.R + 1) & 0x7F)
}

func (c *CPU) addR(n byte) {
	c.R = (c.R & 0x80) | ((c.R + n) & 0x7F)
}

func (c *CPU) record(b byte) {
	if c.opLen < len(c.opBytes) {
		c.opBytes[c.opLen] = b
		c.opLen++
	}
}

// fetchOpcode is an M1 cycle.
func (c *CPU) fetchOpcode() byte {
	opcode := c.mem.Read(c.PC)
	c.cycle(BusM1|BusMEMR|BusWO, c.PC, opcode)
	c.PC++
	c.incrementR()
	c.record(opcode)
	return opcode
}

func (c *CPU) fetchByte() byte {
	value := c.read(c.PC)
	c.PC++
	c.record(value)
	return value
}

func (c *CPU) fetchWord() uint16 {
	low := c.read(c.PC)
	high := c.read(c.PC + 1)
	c.PC += 2
	return uint16(high)<<8 | uint16(low)
}

func (c *CPU) read(addr uint16) byte {
	value := c.mem.Read(addr)
	c.cycle(BusMEMR|BusWO|c.stackCycle, addr, value)
	return value
}

func (c *CPU) write(addr uint16, value byte) {
	c.mem.Write(addr, value)
	c.cycle(c.stackCycle, addr, value)
}

func (c *CPU) readWord(addr uint16) uint16 {
	low := c.read(addr)
	high := c.read(addr + 1)
	return uint16(high)<<8 | uint16(low)
}

func (c *CPU) writeWord(addr uint16, value uint16) {
	c.write(addr, byte(value))
	c.write(addr+1, byte(value>>8))
}

func (c *CPU) pushWord(value uint16) {
	c.stackCycle = BusSTACK
	c.SP--
	c.write(c.SP, byte(value>>8))
	c.SP--
	c.write(c.SP, byte(value))
	c.stackCycle = 0
}

func (c *CPU) popWord() uint16 {
	c.stackCycle = BusSTACK
	low := c.read(c.SP)
	c.SP++
	high := c.read(c.SP)
	c.SP++
	c.stackCycle = 0
	return uint16(high)<<8 | uint16(low)
}

func (c *CPU) in(port, high byte) byte {
	t0 := time.Now()
	value, err := c.io.In(port, high)
	c.cpuTime -= time.Since(t0)
	c.cycle(BusINP|BusWO, uint16(high)<<8|uint16(port), value)
	if err != nil {
		c.ioFault(err, port)
	}
	return value
}

func (c *CPU) out(port, high, value byte) {
	t0 := time.Now()
	err := c.io.Out(port, high, value)
	c.cpuTime -= time.Since(t0)
	c.cycle(BusOUT, uint16(high)<<8|uint16(port), value)
	if err != nil {
		c.ioFault(err, port)
	}
}

func (c *CPU) tick(cycles int) {
	c.Cycles += uint64(cycles)
}

// cycle latches the bus status of a machine cycle and runs the per-cycle
// hooks.
func (c *CPU) cycle(status BusStatus, addr uint16, data byte) {
	c.busStatus = status
	if c.cfg.Exec == ExecCycleAccurate && c.cfg.OnCycle != nil {
		c.cfg.OnCycle(status, addr, data)
	}
	if c.stepCycles && c.stepper != nil {
		if !c.stepper.WaitStep() {
			c.stepCycles = false
		}
	}
}
