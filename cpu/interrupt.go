package cpu

// RequestInterrupt raises the maskable interrupt line. data is the byte
// the interrupting device places on the bus during acknowledge, or -1 when
// no device drives the bus. An attached InterruptDevice overrides data.
func (c *CPU) RequestInterrupt(data int) {
	c.mu.Lock()
	c.intLine = true
	c.intData = data
	c.mu.Unlock()
}

// ClearInterrupt drops a pending maskable interrupt.
func (c *CPU) ClearInterrupt() {
	c.mu.Lock()
	c.intLine = false
	c.intData = -1
	c.mu.Unlock()
}

// SetNMILine drives the edge-triggered NMI input.
func (c *CPU) SetNMILine(active bool) {
	c.mu.Lock()
	if active && !c.nmiLine {
		c.nmiPending = true
	}
	c.nmiLine = active
	c.mu.Unlock()
}

// TriggerNMI latches a non-maskable interrupt regardless of the line state.
func (c *CPU) TriggerNMI() {
	c.mu.Lock()
	c.nmiPending = true
	c.mu.Unlock()
}

// interruptPending reports whether a HALT should end. With interrupts
// disabled only an NMI wakes the CPU.
func (c *CPU) interruptPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nmiPending || (c.intLine && c.IFF1)
}

// pollInterrupts runs at an instruction boundary and services the highest
// priority pending interrupt. It reports whether one was taken.
func (c *CPU) pollInterrupts() bool {
	c.mu.Lock()
	nmi := c.nmiPending
	c.nmiPending = false
	irq := c.intLine && c.IFF1 && !c.intProtection
	data := c.intData
	dev := c.intDev
	if irq {
		c.intLine = false
		c.intData = -1
	}
	c.mu.Unlock()

	if nmi && c.model == ModelZ80 {
		c.serviceNMI()
		return true
	}
	if !irq {
		return false
	}
	c.serviceIRQ(data, dev)
	return true
}

func (c *CPU) serviceNMI() {
	c.instrPC = c.PC
	c.incrementR()
	c.IFF1 = false
	c.pushWord(c.PC)
	c.PC = 0x66
	c.WZ = c.PC
	c.tick(11)
}

func (c *CPU) serviceIRQ(data int, dev InterruptDevice) {
	c.instrPC = c.PC
	c.opLen = 0
	c.IFF1 = false
	c.IFF2 = false

	if c.stepper != nil && c.State() != Running {
		c.stepper.WaitIntStep()
	}
	if dev != nil {
		data = int(dev.Acknowledge())
	}
	c.cycle(BusINTA|BusWO|BusM1, c.PC, byte(data))

	if c.model == Model8080 {
		c.serviceIRQ8080(data)
		return
	}

	c.incrementR()
	switch c.IM {
	case 0:
		c.serviceIM0(data)
	case 1:
		c.pushWord(c.PC)
		c.PC = 0x38
		c.WZ = c.PC
		c.tick(13)
	default:
		vector := byte(0xFF)
		if data >= 0 {
			vector = byte(data)
		}
		c.pushWord(c.PC)
		c.PC = c.readWord(uint16(c.I)<<8 | uint16(vector))
		c.WZ = c.PC
		c.tick(19)
	}
}

// serviceIM0 executes the bus byte as an opcode. Only instructions that
// need no further bytes can be supplied this way.
func (c *CPU) serviceIM0(data int) {
	if data < 0 {
		c.log.WithField("pc", c.PC).Error("IM0 interrupt without a device on the bus")
		c.fail(&Fault{Err: ErrIOError, PC: c.PC})
		return
	}
	op := byte(data)
	if !singleByteOpcode(op) {
		c.fail(&Fault{Err: ErrIntError, PC: c.PC, Data: op})
		return
	}
	c.record(op)
	c.tick(2)
	c.dispatch(&z80Base, op, ErrIntError)
}

func (c *CPU) serviceIRQ8080(data int) {
	var vector uint16
	switch {
	case data < 0:
		vector = 0x38
	case byte(data)&0xC7 == 0xC7:
		vector = uint16(data) & 0x38
	default:
		c.fail(&Fault{Err: ErrIntError, PC: c.PC, Data: byte(data)})
		return
	}
	c.pushWord(c.PC)
	c.PC = vector
	c.tick(11)
}

// singleByteOpcode reports whether op is a complete unprefixed Z80
// instruction.
func singleByteOpcode(op byte) bool {
	switch {
	case op == 0xCB, op == 0xDD, op == 0xED, op == 0xFD:
		return false
	case op&0xC7 == 0x06, op&0xC7 == 0xC6: // LD r,n and ALU n
		return false
	case op&0xCF == 0x01: // LD rr,nn
		return false
	case op&0xC7 == 0xC2, op&0xC7 == 0xC4: // JP cc and CALL cc
		return false
	case op >= 0x10 && op <= 0x38 && op&0x07 == 0: // DJNZ and JR
		return false
	case op&0xE7 == 0x22: // LD (nn),HL / HL,(nn) / (nn),A / A,(nn)
		return false
	case op == 0xC3, op == 0xCD, op == 0xD3, op == 0xDB:
		return false
	}
	return true
}
