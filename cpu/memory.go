package cpu

// RAM is a flat 64K memory with no side effects.
type RAM [0x10000]byte

func (m *RAM) Read(addr uint16) byte         { return m[addr] }
func (m *RAM) Write(addr uint16, value byte) { m[addr] = value }
func (m *RAM) DMARead(addr uint16) byte      { return m[addr] }
func (m *RAM) DMAWrite(addr uint16, v byte)  { m[addr] = v }
func (m *RAM) Peek(addr uint16) byte         { return m[addr] }
func (m *RAM) Poke(addr uint16, v byte)      { m[addr] = v }

// Load copies data to addr, wrapping at the top of memory.
func (m *RAM) Load(addr uint16, data []byte) {
	for i, b := range data {
		m[addr+uint16(i)] = b
	}
}
