package cpu

// Memory is the byte-addressed memory seen by the engine.
type Memory interface {
	// Read and Write are engine-driven accesses.
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	// DMARead and DMAWrite are used by bus-mastering peripherals.
	DMARead(addr uint16) byte
	DMAWrite(addr uint16, value byte)
	// Peek and Poke have no side effects and ignore write protection.
	Peek(addr uint16) byte
	Poke(addr uint16, value byte)
}

// IO is the 256-port I/O space. The high byte is the upper half of the
// address bus during the access (B for the Z80 (C) forms, the port number
// again for IN n / OUT n).
type IO interface {
	In(port, high byte) (byte, error)
	Out(port, high, value byte) error
	// Reset reinitialises every attached device.
	Reset()
}

// InterruptDevice supplies the data byte on an interrupt acknowledge cycle.
type InterruptDevice interface {
	Acknowledge() byte
}

// Stepper synchronises the engine with an external single-step controller.
// It is only consulted while the run state is StepCycle or SingleStep.
type Stepper interface {
	// WaitStep blocks at a machine cycle until the controller releases it.
	// It returns false when no cycle was stepped and the engine should run
	// the rest of the instruction freely.
	WaitStep() bool
	// WaitIntStep blocks at an interrupt acknowledge cycle.
	WaitIntStep()
}

// BusStatus is the 8080-style status byte latched on each machine cycle.
type BusStatus byte

const (
	BusINTA  BusStatus = 0x01
	BusWO    BusStatus = 0x02 // active low: clear on writes
	BusSTACK BusStatus = 0x04
	BusHLTA  BusStatus = 0x08
	BusOUT   BusStatus = 0x10
	BusM1    BusStatus = 0x20
	BusINP   BusStatus = 0x40
	BusMEMR  BusStatus = 0x80
)

// BusMode is the DMA mode of a bus request.
type BusMode int

const (
	BusDMANone BusMode = iota
	BusDMAByte
	BusDMABurst
	BusDMAContinuous
)

// BusMaster runs a DMA transfer. ack is true when the CPU has granted a
// pending request. It returns the T-states the transfer consumed.
type BusMaster func(ack bool) int
