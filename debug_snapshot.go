// debug_snapshot.go - Machine state snapshot for save/restore

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

const (
	snapshotMagic   = "IZ80"
	snapshotVersion = 1
)

// snapshotRegs is the on-disk register block.
type snapshotRegs struct {
	Model                          uint8
	A, F, B, C, D, E, H, L         uint8
	A2, F2, B2, C2, D2, E2, H2, L2 uint8
	I, R, IM, IFF                  uint8
	IX, IY, SP, PC, WZ             uint16
	Cycles                         uint64
}

// MachineSnapshot captures CPU registers and the 64K address space.
type MachineSnapshot struct {
	Model  cpu.Model
	regs   snapshotRegs
	Memory []byte
}

// TakeSnapshot captures the current CPU registers and full memory.
func TakeSnapshot(m *Machine) *MachineSnapshot {
	c := m.CPU()
	return &MachineSnapshot{
		Model: c.Model(),
		regs: snapshotRegs{
			Model: uint8(c.Model()),
			A:     c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
			A2: c.A2, F2: c.F2, B2: c.B2, C2: c.C2, D2: c.D2, E2: c.E2, H2: c.H2, L2: c.L2,
			I: c.I, R: c.R, IM: c.IM, IFF: b2u(c.IFF1) | b2u(c.IFF2)<<1,
			IX: c.IX, IY: c.IY, SP: c.SP, PC: c.PC, WZ: c.WZ,
			Cycles: c.Cycles,
		},
		Memory: m.Bus().Slice(0, MEMORY_SIZE),
	}
}

// RestoreSnapshot restores CPU registers and memory from a snapshot,
// switching the CPU model if the snapshot was taken on the other one.
func RestoreSnapshot(m *Machine, snap *MachineSnapshot) {
	c := m.CPU()
	if c.Model() != snap.Model {
		c.SwitchModel(snap.Model)
	}
	r := snap.regs
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = r.A2, r.F2, r.B2, r.C2, r.D2, r.E2, r.H2, r.L2
	c.I, c.R, c.IM = r.I, r.R, r.IM
	c.IFF1, c.IFF2 = r.IFF&1 != 0, r.IFF&2 != 0
	c.IX, c.IY, c.SP, c.PC, c.WZ = r.IX, r.IY, r.SP, r.PC, r.WZ
	c.Cycles = r.Cycles
	// ROM is restored too, as from a loader
	m.Bus().Load(0, snap.Memory)
}

// SaveSnapshotToFile writes a snapshot to disk with gzip compression.
func SaveSnapshotToFile(snap *MachineSnapshot, path string) error {
	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion)); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, &snap.regs); err != nil {
		return fmt.Errorf("writing registers: %w", err)
	}

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(snap.Memory); err != nil {
		return fmt.Errorf("compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadSnapshotFromFile reads and decompresses a snapshot from disk.
func LoadSnapshotFromFile(path string) (*MachineSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", version)
	}

	snap := &MachineSnapshot{}
	if err := binary.Read(r, binary.LittleEndian, &snap.regs); err != nil {
		return nil, fmt.Errorf("reading registers: %w", err)
	}
	snap.Model = cpu.Model(snap.regs.Model)
	if snap.Model != cpu.ModelZ80 && snap.Model != cpu.Model8080 {
		return nil, fmt.Errorf("unknown CPU model %d", snap.regs.Model)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	snap.Memory = make([]byte, MEMORY_SIZE)
	if _, err := io.ReadFull(gz, snap.Memory); err != nil {
		return nil, fmt.Errorf("decompressing memory: %w", err)
	}
	return snap, nil
}
