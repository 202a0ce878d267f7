package main

import (
	"errors"
	"testing"
	"time"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

func newTerminalPorts(t *testing.T) (*TerminalIO, *cpu.Ports) {
	t.Helper()
	tio := NewTerminalIO()
	ports := cpu.NewPorts(quietLogger())
	tio.Attach(ports)
	return tio, ports
}

func mustIn(t *testing.T, ports *cpu.Ports, port byte) byte {
	t.Helper()
	v, err := ports.In(port, 0)
	if err != nil {
		t.Fatalf("in 0x%02X: %v", port, err)
	}
	return v
}

func TestTerminalIO_WriteChar(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	if err := ports.Out(CONSOLE_DATA, 0, 'A'); err != nil {
		t.Fatalf("out: %v", err)
	}
	if out := tio.DrainOutput(); out != "A" {
		t.Fatalf("expected output 'A', got %q", out)
	}
}

func TestTerminalIO_StripsParity(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	_ = ports.Out(CONSOLE_DATA, 0, 'A'|0x80)
	if out := tio.DrainOutput(); out != "A" {
		t.Fatalf("expected parity bit stripped, got %q", out)
	}
}

func TestTerminalIO_StatusEmpty(t *testing.T) {
	_, ports := newTerminalPorts(t)
	if status := mustIn(t, ports, CONSOLE_STATUS); status&1 != 1 {
		t.Fatalf("expected bit 0 = 1 (no input), got 0x%X", status)
	}
}

func TestTerminalIO_StatusHasInput(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	tio.EnqueueByte('A')
	if status := mustIn(t, ports, CONSOLE_STATUS); status&1 != 0 {
		t.Fatalf("expected bit 0 = 0 (input available), got 0x%X", status)
	}
}

func TestTerminalIO_ReadSequence(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	tio.EnqueueString("HELLO")
	var result []byte
	for range 5 {
		result = append(result, mustIn(t, ports, CONSOLE_DATA))
	}
	if string(result) != "HELLO" {
		t.Fatalf("expected %q, got %q", "HELLO", string(result))
	}
	if status := mustIn(t, ports, CONSOLE_STATUS); status&1 != 1 {
		t.Fatalf("expected empty after reads, got 0x%X", status)
	}
}

func TestTerminalIO_ReadWithoutInputRepeatsLast(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	if v := mustIn(t, ports, CONSOLE_DATA); v != 0 {
		t.Fatalf("expected 0 before any input, got 0x%X", v)
	}
	tio.EnqueueByte('Q')
	_ = mustIn(t, ports, CONSOLE_DATA)
	if v := mustIn(t, ports, CONSOLE_DATA); v != 'Q' {
		t.Fatalf("expected last byte repeated, got 0x%X", v)
	}
}

func TestTerminalIO_RingBufferWrap(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	for round := 0; round < 3; round++ {
		for i := 0; i < 700; i++ {
			tio.EnqueueByte(byte(i + 1))
		}
		for i := 0; i < 700; i++ {
			if val := mustIn(t, ports, CONSOLE_DATA); val != byte(i+1) {
				t.Fatalf("round %d, byte %d: expected 0x%X, got 0x%X", round, i, byte(i+1), val)
			}
		}
	}
}

func TestTerminalIO_BufferFullDrops(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	for i := 0; i < 1100; i++ {
		tio.EnqueueByte('x')
	}
	count := 0
	for mustIn(t, ports, CONSOLE_STATUS)&1 == 0 {
		_ = mustIn(t, ports, CONSOLE_DATA)
		count++
	}
	if count != 1024 {
		t.Fatalf("expected 1024 buffered bytes, got %d", count)
	}
}

func TestTerminalIO_CharOutputCallback(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	var got []byte
	tio.SetCharOutputCallback(func(b byte) { got = append(got, b) })

	_ = ports.Out(CONSOLE_DATA, 0, 'A')
	if string(got) != "A" {
		t.Fatalf("expected callback byte 'A', got %q", got)
	}
	if out := tio.DrainOutput(); out != "" {
		t.Fatalf("expected no buffered output with callback set, got %q", out)
	}
}

func TestTerminalIO_CallbackNoDeadlock(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	done := make(chan struct{})
	tio.SetCharOutputCallback(func(_ byte) {
		tio.EnqueueByte('x')
		close(done)
	})

	_ = ports.Out(CONSOLE_DATA, 0, 'C')

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not complete; possible deadlock")
	}
}

func TestTerminalIO_HardwareControlLocked(t *testing.T) {
	_, ports := newTerminalPorts(t)
	if v := mustIn(t, ports, HWCTL_PORT); v != 0xFF {
		t.Fatalf("expected locked port to read 0xFF, got 0x%X", v)
	}
	if err := ports.Out(HWCTL_PORT, 0, HWCTL_HALT); err != nil {
		t.Fatalf("expected halt ignored while locked, got %v", err)
	}
	_ = ports.Out(HWCTL_PORT, 0, HWCTL_UNLOCK)
	if v := mustIn(t, ports, HWCTL_PORT); v != 0 {
		t.Fatalf("expected unlocked port to read 0, got 0x%X", v)
	}
	err := ports.Out(HWCTL_PORT, 0, HWCTL_HALT)
	if !errors.Is(err, cpu.ErrIOHalt) {
		t.Fatalf("expected ErrIOHalt, got %v", err)
	}
}

func TestTerminalIO_HardwareControlResetAndSwitch(t *testing.T) {
	tio, ports := newTerminalPorts(t)
	resets := 0
	var models []cpu.Model
	tio.OnHardwareReset(func() { resets++ })
	tio.OnModelSwitch(func(m cpu.Model) { models = append(models, m) })

	_ = ports.Out(HWCTL_PORT, 0, HWCTL_UNLOCK)
	_ = ports.Out(HWCTL_PORT, 0, HWCTL_8080)
	_ = ports.Out(HWCTL_PORT, 0, HWCTL_Z80)
	_ = ports.Out(HWCTL_PORT, 0, HWCTL_RESET)

	if len(models) != 2 || models[0] != cpu.Model8080 || models[1] != cpu.ModelZ80 {
		t.Fatalf("unexpected model switches %v", models)
	}
	if resets != 1 {
		t.Fatalf("expected one reset, got %d", resets)
	}
	if v := mustIn(t, ports, HWCTL_PORT); v != 0xFF {
		t.Fatalf("expected reset to lock the port, got 0x%X", v)
	}
}

func TestTerminalIO_MachineResetRelocks(t *testing.T) {
	_, ports := newTerminalPorts(t)
	_ = ports.Out(HWCTL_PORT, 0, HWCTL_UNLOCK)
	ports.Reset()
	if v := mustIn(t, ports, HWCTL_PORT); v != 0xFF {
		t.Fatalf("expected 0xFF after machine reset, got 0x%X", v)
	}
}

func TestTerminalIO_FrontPanel(t *testing.T) {
	_, ports := newTerminalPorts(t)
	_ = ports.Out(FRONTPANEL, 0, 0x5A)
	if v := mustIn(t, ports, FRONTPANEL); v != 0x5A {
		t.Fatalf("expected front panel 0x5A, got 0x%X", v)
	}
}
