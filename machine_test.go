package main

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

func newTestMachine(t *testing.T, program []byte, opts ...func(*MachineConfig)) *Machine {
	t.Helper()
	cfg := MachineConfig{CPU: cpu.DefaultConfig(), Logger: quietLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := NewMachine(cfg)
	m.Bus().Load(0, program)
	m.CPU().PC = 0
	return m
}

func TestMachine_ConsoleOutputAndHalt(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x3E, 'H', // LD A,'H'
		0xD3, CONSOLE_DATA, // OUT (1),A
		0x3E, 'I',
		0xD3, CONSOLE_DATA,
		0x76, // HALT
	})

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, cpu.ErrOpHalt, cpu.Code(err))
	assert.Equal(t, "HI", m.Console().DrainOutput())
	assert.Equal(t, err, m.LastError())
}

func TestMachine_ConsoleInput(t *testing.T) {
	m := newTestMachine(t, []byte{
		0xDB, CONSOLE_STATUS, // IN A,(0)
		0xE6, 0x01, // AND 1
		0x20, 0xFA, // JR NZ,0
		0xDB, CONSOLE_DATA, // IN A,(1)
		0xD3, CONSOLE_DATA, // OUT (1),A
		0x76,
	})
	m.Console().EnqueueByte('z')

	err := m.Run(context.Background())
	assert.Equal(t, cpu.ErrOpHalt, cpu.Code(err))
	assert.Equal(t, "z", m.Console().DrainOutput())
}

func TestMachine_HardwareControlHalt(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x3E, HWCTL_UNLOCK,
		0xD3, HWCTL_PORT,
		0x3E, HWCTL_HALT,
		0xD3, HWCTL_PORT,
		0x00,
	})

	err := m.Run(context.Background())
	assert.Equal(t, cpu.ErrIOHalt, cpu.Code(err))
}

func TestMachine_HardwareControlResetRestarts(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x3A, 0x00, 0x80, // LD A,(8000h)
		0x3C,             // INC A
		0x32, 0x00, 0x80, // LD (8000h),A
		0xFE, 0x02, // CP 2
		0x28, 0x08, // JR Z,0013h
		0x3E, HWCTL_UNLOCK,
		0xD3, HWCTL_PORT,
		0x3E, HWCTL_RESET,
		0xD3, HWCTL_PORT,
		0x76, // HALT
	})

	err := m.Run(context.Background())
	assert.Equal(t, cpu.ErrOpHalt, cpu.Code(err))
	assert.Equal(t, byte(2), m.Bus().Peek(0x8000), "program should run twice")
}

func TestMachine_StrictIOTraps(t *testing.T) {
	m := newTestMachine(t, []byte{0xDB, 0x50}, func(cfg *MachineConfig) { cfg.StrictIO = true })

	err := m.Run(context.Background())
	assert.Equal(t, cpu.ErrIOTrapIn, cpu.Code(err))
	var buf bytes.Buffer
	m.ReportError(&buf, err)
	assert.Contains(t, buf.String(), "I/O input Trap at 0x0000, port 0x50")
}

func TestMachine_ROMWindow(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x3E, 0x99, // LD A,99h
		0x32, 0x00, 0x00, // LD (0000h),A
		0x32, 0x00, 0x10, // LD (1000h),A
		0x76,
	}, func(cfg *MachineConfig) {
		cfg.ROM = true
		cfg.ROMStart = 0x0000
		cfg.ROMEnd = 0x0FFF
	})

	_ = m.Run(context.Background())
	assert.Equal(t, byte(0x3E), m.Bus().Peek(0x0000))
	assert.Equal(t, byte(0x99), m.Bus().Peek(0x1000))
}

func TestMachine_StartStop(t *testing.T) {
	m := newTestMachine(t, []byte{0x18, 0xFE}) // JR $

	m.StartExecution()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())
	assert.NoError(t, m.LastError())
	assert.Equal(t, uint16(0), m.CPU().PC)
}

func TestMachine_InterruptStopsWithUserInt(t *testing.T) {
	m := newTestMachine(t, []byte{0x18, 0xFE})

	m.StartExecution()
	time.Sleep(10 * time.Millisecond)
	m.Interrupt()
	err := m.Wait()
	assert.Equal(t, cpu.ErrUserInt, cpu.Code(err))
}

func TestMachine_ContextCancelInterrupts(t *testing.T) {
	m := newTestMachine(t, []byte{0x18, 0xFE})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	assert.Equal(t, cpu.ErrUserInt, cpu.Code(err))
}

func TestMachine_InstructionHooks(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0x00, 0x00, 0x76})
	var pcs []uint16
	remove := m.AddInstructionHook(func(pc uint16) { pcs = append(pcs, pc) })

	_ = m.Run(context.Background())
	assert.Equal(t, []uint16{0, 1, 2, 3}, pcs)

	remove()
	m.CPU().PC = 0
	_ = m.Run(context.Background())
	assert.Len(t, pcs, 4)
}

func TestMachine_LoadProgramSetsEntry(t *testing.T) {
	path := t.TempDir() + "/prog.com"
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0x00, 0x40, 0x76}, 0o644))

	m := newTestMachine(t, nil)
	res, err := m.LoadProgram(path)
	require.NoError(t, err)
	assert.Equal(t, FormatMostek, res.Format)
	assert.Equal(t, uint16(0x4000), m.CPU().PC)
}

func TestMachine_ReportStats(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0x76})
	_ = m.Run(context.Background())

	var buf bytes.Buffer
	m.ReportStats(&buf)
	assert.Contains(t, buf.String(), "t-states")
	assert.Contains(t, buf.String(), "Clock frequency")
}

func TestMachine_ReportErrorSkipsPowerOff(t *testing.T) {
	m := newTestMachine(t, nil)
	var buf bytes.Buffer
	m.ReportError(&buf, nil)
	m.ReportError(&buf, &cpu.Fault{Err: cpu.ErrPowerOff})
	assert.Empty(t, buf.String())
}

func TestMachine_ModelSwitchFromProgram(t *testing.T) {
	m := newTestMachine(t, []byte{
		0x3E, HWCTL_UNLOCK,
		0xD3, HWCTL_PORT,
		0x3E, HWCTL_8080,
		0xD3, HWCTL_PORT,
		0x76,
	})

	_ = m.Run(context.Background())
	assert.Equal(t, cpu.Model8080, m.CPU().Model())
}
