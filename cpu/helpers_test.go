package cpu

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type testIO struct {
	in     [256]byte
	out    [256]byte
	wrote  [256]bool
	high   byte
	resets int
}

func (d *testIO) In(port, high byte) (byte, error) {
	d.high = high
	return d.in[port], nil
}

func (d *testIO) Out(port, high, value byte) error {
	d.high = high
	d.out[port] = value
	d.wrote[port] = true
	return nil
}

func (d *testIO) Reset() {
	d.resets++
}

type cpuTestRig struct {
	mem *RAM
	io  *testIO
	cpu *CPU
	cfg Config
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newCPUTestRig(opts ...func(*Config)) *cpuTestRig {
	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &cpuTestRig{cfg: cfg}
	r.resetAndLoad(0x0000, nil)
	return r
}

func with8080(cfg *Config) { cfg.Model = Model8080 }
func withFast(cfg *Config) { cfg.Exec = ExecFast }
func withoutUndoc(cfg *Config) { cfg.Undocumented = false }
func withoutUndocFlags(cfg *Config) { cfg.UndocFlags = false }

func (r *cpuTestRig) resetAndLoad(start uint16, program []byte) {
	r.mem = &RAM{}
	r.io = &testIO{}
	r.cpu = New(r.cfg, r.mem, r.io)
	r.mem.Load(start, program)
	r.cpu.PC = start
}

// runUntil steps until PC reaches stop, failing after limit steps.
func (r *cpuTestRig) runUntil(t *testing.T, stop uint16, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if r.cpu.PC == stop {
			return
		}
		if _, err := r.cpu.Step(); err != nil {
			t.Fatalf("step at 0x%04X: %v", r.cpu.PC, err)
		}
	}
	t.Fatalf("PC did not reach 0x%04X after %d steps, at 0x%04X", stop, limit, r.cpu.PC)
}

func requireEqualU16(t *testing.T, name string, got, want uint16) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%04X, want 0x%04X", name, got, want)
	}
}

func requireEqualU8(t *testing.T, name string, got, want byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%02X, want 0x%02X", name, got, want)
	}
}
