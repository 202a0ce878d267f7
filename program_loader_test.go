package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexRecord(addr uint16, typ byte, data ...byte) string {
	var sb strings.Builder
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	fmt.Fprintf(&sb, ":%02X%04X%02X", len(data), addr, typ)
	for _, b := range data {
		sum += b
		fmt.Fprintf(&sb, "%02X", b)
	}
	fmt.Fprintf(&sb, "%02X", byte(-int(sum)))
	return sb.String()
}

func TestDetectFormat(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name   string
		data   []byte
		format ProgramFormat
	}{
		{"prog.bin", []byte{0x3E, 0x01}, FormatBinary},
		{"prog.com", []byte{0xFF, 0x00, 0x01}, FormatMostek},
		{"prog.hex", []byte("garbage"), FormatIntelHex},
		{"prog", []byte("\r\n:00000001FF"), FormatIntelHex},
	}

	for _, entry := range table {
		assert.Equal(entry.format, DetectFormat(entry.name, entry.data), entry.name)
	}
}

func TestLoadBinary(t *testing.T) {
	bus := NewMachineBus(0)
	res, err := LoadProgram(bus, FormatBinary, []byte{1, 2, 3}, 0x0100, LoadRange{})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Format: FormatBinary, Start: 0x0100, End: 0x0102, Entry: 0x0100, Count: 3}, res)
	assert.Equal(t, []byte{1, 2, 3}, bus.Slice(0x0100, 3))

	_, err = LoadProgram(bus, FormatBinary, make([]byte, 0x200), 0xFF00, LoadRange{})
	assert.ErrorIs(t, err, ErrLoadRange)
}

func TestLoadMostek(t *testing.T) {
	bus := NewMachineBus(0)
	res, err := LoadProgram(bus, FormatMostek, []byte{0xFF, 0x00, 0x80, 0xC3, 0x00, 0x00}, 0, LoadRange{})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x8000), res.Start)
	assert.Equal(t, uint16(0x8002), res.End)
	assert.Equal(t, uint16(0x8000), res.Entry)
	assert.Equal(t, byte(0xC3), bus.Peek(0x8000))

	_, err = LoadProgram(bus, FormatMostek, []byte{0xFF, 0x00}, 0, LoadRange{})
	assert.ErrorIs(t, err, ErrMostekHeader)

	_, err = LoadProgram(bus, FormatMostek, []byte{0xFF, 0x00, 0x80, 0x00}, 0, LoadRange{Start: 0, Size: 0x100})
	assert.ErrorIs(t, err, ErrLoadRange)
}

func TestLoadIntelHex(t *testing.T) {
	bus := NewMachineBus(0)
	image := strings.Join([]string{
		hexRecord(0x0200, 0, 0x3E, 0x05),
		hexRecord(0x0100, 0, 0xC3, 0x00, 0x02),
		hexRecord(0x0000, 1),
		hexRecord(0x0300, 0, 0xEE),
	}, "\n")

	res, err := LoadProgram(bus, FormatIntelHex, []byte(image), 0, LoadRange{})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0100), res.Start)
	assert.Equal(t, uint16(0x0201), res.End)
	assert.Equal(t, uint16(0x0100), res.Entry)
	assert.Equal(t, []byte{0xC3, 0x00, 0x02}, bus.Slice(0x0100, 3))
	assert.Equal(t, byte(0x00), bus.Peek(0x0300), "records after the end record are ignored")
}

func TestLoadIntelHexEntryFromEndRecord(t *testing.T) {
	bus := NewMachineBus(0)
	image := hexRecord(0x0100, 0, 0x00) + "\n" + hexRecord(0x0100, 1)
	res, err := LoadProgram(bus, FormatIntelHex, []byte(image), 0, LoadRange{})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0100), res.Entry)
}

func TestLoadIntelHexErrors(t *testing.T) {
	table := []struct {
		name   string
		record string
		err    error
	}{
		{"checksum", ":0100000000FE", ErrHexChecksum},
		{"odd", ":010000000", ErrHexOdd},
		{"char", ":01000000ZZFF", ErrHexChar},
		{"short", ":0000", ErrHexShort},
		{"count", ":0200000000FE", ErrHexCount},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			_, err := LoadProgram(NewMachineBus(0), FormatIntelHex, []byte(entry.record), 0, LoadRange{})
			var rec *ErrHexRecord
			require.True(t, errors.As(err, &rec), "got %v", err)
			assert.Equal(t, 1, rec.LineNo)
			assert.ErrorIs(t, err, entry.err)
		})
	}
}

func TestLoadIntelHexRange(t *testing.T) {
	image := hexRecord(0x2000, 0, 0x01)
	_, err := LoadProgram(NewMachineBus(0), FormatIntelHex, []byte(image), 0, LoadRange{Start: 0, Size: 0x1000})
	assert.ErrorIs(t, err, ErrLoadRange)
}

func TestLoadProgramFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.hex")
	require.NoError(t, os.WriteFile(path, []byte(hexRecord(0x0000, 0, 0x76)+"\n"+hexRecord(0, 1)+"\n"), 0o644))

	bus := NewMachineBus(0xFF)
	res, err := LoadProgramFile(bus, path, 0, LoadRange{})
	require.NoError(t, err)
	assert.Equal(t, FormatIntelHex, res.Format)
	assert.Equal(t, byte(0x76), bus.Peek(0))
	assert.Equal(t, byte(0xFF), bus.Peek(1))

	_, err = LoadProgramFile(bus, "", 0, LoadRange{})
	assert.ErrorIs(t, err, ErrNoProgram)
}
