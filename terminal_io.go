package main

import (
	"sync"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

// Console and machine control ports.
const (
	CONSOLE_STATUS = 0x00 // bit 0 clear: input available
	CONSOLE_DATA   = 0x01
	HWCTL_PORT     = 0xA0 // virtual hardware control
	FRONTPANEL     = 0xFF // front panel switch register

	HWCTL_UNLOCK = 0xAA
	HWCTL_HALT   = 0x80
	HWCTL_RESET  = 0x40
	HWCTL_Z80    = 0x20
	HWCTL_8080   = 0x10
)

// TerminalIO is the console and hardware control device of the reference
// machine. It owns an input ring buffer and an output buffer. Tests inject
// characters via EnqueueByte(); the host adapter (TerminalHost) feeds stdin
// bytes through the same method.
type TerminalIO struct {
	mu sync.Mutex

	inputBuf  [1024]byte
	inputHead int
	inputTail int
	inputLen  int
	// last byte read, returned again when the program reads without
	// checking status
	lastIn byte

	outputBuf    []byte
	onCharOutput func(byte)

	hwctlLock byte
	fpValue   byte

	onReset       func()
	onModelSwitch func(cpu.Model)
}

func NewTerminalIO() *TerminalIO {
	return &TerminalIO{
		outputBuf: make([]byte, 0, 256),
		hwctlLock: 0xFF,
	}
}

// Attach maps the console, hardware control and front panel ports.
func (tio *TerminalIO) Attach(ports *cpu.Ports) {
	ports.Map(CONSOLE_STATUS, tio.statusIn, nil)
	ports.Map(CONSOLE_DATA, tio.dataIn, tio.dataOut)
	ports.Map(HWCTL_PORT, tio.hwctlIn, tio.hwctlOut)
	ports.Map(FRONTPANEL, tio.frontPanelIn, tio.frontPanelOut)
	ports.OnReset(tio.Reset)
}

// SetCharOutputCallback registers a callback for console output. When set,
// bytes are delivered directly to fn and not buffered.
func (tio *TerminalIO) SetCharOutputCallback(fn func(byte)) {
	tio.mu.Lock()
	tio.onCharOutput = fn
	tio.mu.Unlock()
}

// OnHardwareReset registers the action for the reset bit of the hardware
// control port.
func (tio *TerminalIO) OnHardwareReset(fn func()) {
	tio.onReset = fn
}

// OnModelSwitch registers the action for the CPU model bits of the hardware
// control port.
func (tio *TerminalIO) OnModelSwitch(fn func(cpu.Model)) {
	tio.onModelSwitch = fn
}

// Reset locks the hardware control port again. Pending input is kept.
func (tio *TerminalIO) Reset() {
	tio.mu.Lock()
	tio.hwctlLock = 0xFF
	tio.mu.Unlock()
}

func (tio *TerminalIO) statusIn(_, _ byte) (byte, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	if tio.inputLen > 0 {
		return 0x00, nil
	}
	return 0x01, nil
}

func (tio *TerminalIO) dataIn(_, _ byte) (byte, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	if tio.inputLen == 0 {
		return tio.lastIn, nil
	}
	tio.lastIn = tio.inputBuf[tio.inputHead]
	tio.inputHead = (tio.inputHead + 1) % len(tio.inputBuf)
	tio.inputLen--
	return tio.lastIn, nil
}

func (tio *TerminalIO) dataOut(_, _, value byte) error {
	// strip parity, some software won't
	ch := value & 0x7F

	tio.mu.Lock()
	fn := tio.onCharOutput
	if fn == nil {
		tio.outputBuf = append(tio.outputBuf, ch)
	}
	tio.mu.Unlock()

	if fn != nil {
		fn(ch)
	}
	return nil
}

func (tio *TerminalIO) hwctlIn(_, _ byte) (byte, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	return tio.hwctlLock, nil
}

func (tio *TerminalIO) hwctlOut(_, _, value byte) error {
	tio.mu.Lock()
	if tio.hwctlLock != 0 {
		if value == HWCTL_UNLOCK {
			tio.hwctlLock = 0
		}
		tio.mu.Unlock()
		return nil
	}
	if value&HWCTL_RESET != 0 && value&HWCTL_HALT == 0 {
		tio.hwctlLock = 0xFF
	}
	tio.mu.Unlock()

	switch {
	case value&HWCTL_HALT != 0:
		return cpu.ErrIOHalt
	case value&HWCTL_RESET != 0:
		if tio.onReset != nil {
			tio.onReset()
		}
	case value&HWCTL_Z80 != 0:
		if tio.onModelSwitch != nil {
			tio.onModelSwitch(cpu.ModelZ80)
		}
	case value&HWCTL_8080 != 0:
		if tio.onModelSwitch != nil {
			tio.onModelSwitch(cpu.Model8080)
		}
	}
	return nil
}

func (tio *TerminalIO) frontPanelIn(_, _ byte) (byte, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	return tio.fpValue, nil
}

func (tio *TerminalIO) frontPanelOut(_, _, value byte) error {
	tio.mu.Lock()
	tio.fpValue = value
	tio.mu.Unlock()
	return nil
}

// EnqueueByte adds a byte to the input ring buffer. Bytes arriving while
// the buffer is full are dropped.
func (tio *TerminalIO) EnqueueByte(b byte) {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	if tio.inputLen >= len(tio.inputBuf) {
		return
	}
	tio.inputBuf[tio.inputTail] = b
	tio.inputTail = (tio.inputTail + 1) % len(tio.inputBuf)
	tio.inputLen++
}

// EnqueueString queues every byte of s.
func (tio *TerminalIO) EnqueueString(s string) {
	for i := 0; i < len(s); i++ {
		tio.EnqueueByte(s[i])
	}
}

// DrainOutput returns and clears the accumulated output buffer.
func (tio *TerminalIO) DrainOutput() string {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	s := string(tio.outputBuf)
	tio.outputBuf = tio.outputBuf[:0]
	return s
}
