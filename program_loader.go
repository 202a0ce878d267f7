package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/intuitionamiga/IntuitionZ80/translate"
)

var tr = translate.From

var (
	ErrNoProgram    = errors.New(tr("no input file given"))
	ErrEmptyProgram = errors.New(tr("empty program file"))
	ErrMostekHeader = errors.New(tr("invalid Mostek header"))
	ErrLoadRange    = errors.New(tr("program outside expected address range"))
	ErrHexChar      = errors.New(tr("invalid character"))
	ErrHexOdd       = errors.New(tr("odd number of characters"))
	ErrHexShort     = errors.New(tr("record too short"))
	ErrHexChecksum  = errors.New(tr("invalid checksum"))
	ErrHexCount     = errors.New(tr("invalid count"))
)

// ErrHexRecord locates a malformed Intel HEX record.
type ErrHexRecord struct {
	LineNo int
	Record string
	Err    error
}

func (err *ErrHexRecord) Error() string {
	return tr("HEX record line %d '%v': %v", err.LineNo, err.Record, err.Err)
}

func (err *ErrHexRecord) Unwrap() error {
	return err.Err
}

// ProgramFormat is the container format of a program image.
type ProgramFormat int

const (
	FormatBinary ProgramFormat = iota
	FormatMostek
	FormatIntelHex
)

func (pf ProgramFormat) String() string {
	switch pf {
	case FormatMostek:
		return "Mostek"
	case FormatIntelHex:
		return "Intel HEX"
	default:
		return "binary"
	}
}

// LoadRange restricts where a program may be loaded. The zero value
// accepts any address.
type LoadRange struct {
	Start uint16
	Size  int
}

func (lr LoadRange) contains(addr, count int) bool {
	if lr.Size <= 0 {
		return true
	}
	return addr >= int(lr.Start) && addr+count <= int(lr.Start)+lr.Size
}

// LoadResult describes what a loader placed in memory.
type LoadResult struct {
	Format ProgramFormat
	Start  uint16
	End    uint16
	Entry  uint16
	Count  int
}

// DetectFormat identifies a program image: a leading 0xFF byte is a Mostek
// header, a leading ':' (after white space) or a .hex/.ihx name is Intel
// HEX, anything else is a raw binary.
func DetectFormat(name string, data []byte) ProgramFormat {
	if len(data) > 0 && data[0] == 0xFF {
		return FormatMostek
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hex", ".ihx":
		return FormatIntelHex
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == ':' {
		return FormatIntelHex
	}
	return FormatBinary
}

// LoadProgramFile reads name and loads it into bus. Raw binaries go to
// loadAddr; Mostek and HEX images carry their own addresses.
func LoadProgramFile(bus *MachineBus, name string, loadAddr uint16, lr LoadRange) (LoadResult, error) {
	if name == "" {
		return LoadResult{}, ErrNoProgram
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadProgram(bus, DetectFormat(name, data), data, loadAddr, lr)
}

// LoadProgram loads an in-memory image of the given format.
func LoadProgram(bus *MachineBus, format ProgramFormat, data []byte, loadAddr uint16, lr LoadRange) (LoadResult, error) {
	if len(data) == 0 {
		return LoadResult{}, ErrEmptyProgram
	}
	switch format {
	case FormatMostek:
		return loadMostek(bus, data, lr)
	case FormatIntelHex:
		return loadIntelHex(bus, data, lr)
	default:
		return loadBinary(bus, data, loadAddr, lr)
	}
}

func loadBinary(bus *MachineBus, data []byte, addr uint16, lr LoadRange) (LoadResult, error) {
	if int(addr)+len(data) > MEMORY_SIZE || !lr.contains(int(addr), len(data)) {
		return LoadResult{}, ErrLoadRange
	}
	bus.Load(addr, data)
	return LoadResult{
		Format: FormatBinary,
		Start:  addr,
		End:    addr + uint16(len(data)-1),
		Entry:  addr,
		Count:  len(data),
	}, nil
}

// loadMostek loads a binary with the 3-byte header 0xFF ll hh giving the
// load address, which is also the entry point.
func loadMostek(bus *MachineBus, data []byte, lr LoadRange) (LoadResult, error) {
	if len(data) < 3 || data[0] != 0xFF {
		return LoadResult{}, ErrMostekHeader
	}
	addr := uint16(data[1]) | uint16(data[2])<<8
	body := data[3:]
	if n := MEMORY_SIZE - int(addr); len(body) > n {
		body = body[:n]
	}
	if !lr.contains(int(addr), len(body)) {
		return LoadResult{}, ErrLoadRange
	}
	bus.Load(addr, body)
	res := LoadResult{
		Format: FormatMostek,
		Start:  addr,
		End:    addr + uint16(len(body)) - 1,
		Entry:  addr,
		Count:  len(body),
	}
	return res, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func decodeHexRecord(rec string) ([]byte, error) {
	body := rec[1:]
	out := make([]byte, 0, len(body)/2)
	var sum byte
	for i := 0; i < len(body); i += 2 {
		hi, ok := hexNibble(body[i])
		if !ok {
			return nil, ErrHexChar
		}
		if i+1 >= len(body) {
			return nil, ErrHexOdd
		}
		lo, ok := hexNibble(body[i+1])
		if !ok {
			return nil, ErrHexChar
		}
		b := hi<<4 | lo
		sum += b
		out = append(out, b)
	}
	if len(out) < 5 {
		return nil, ErrHexShort
	}
	if sum != 0 {
		return nil, ErrHexChecksum
	}
	if int(out[0])+5 != len(out) {
		return nil, ErrHexCount
	}
	return out, nil
}

// loadIntelHex loads data records (type 00) until an end record (type 01).
// The entry point is the end record's address, or the lowest loaded
// address when that is zero.
func loadIntelHex(bus *MachineBus, data []byte, lr LoadRange) (LoadResult, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lowest, highest := MEMORY_SIZE, -1
	endAddr := 0

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(rec, ":") {
			continue
		}
		raw, err := decodeHexRecord(rec)
		if err != nil {
			return LoadResult{}, &ErrHexRecord{LineNo: lineNo, Record: rec, Err: err}
		}

		count := int(raw[0])
		addr := int(raw[1])<<8 | int(raw[2])
		if raw[3] == 0x01 {
			endAddr = addr
			break
		}
		if raw[3] != 0x00 {
			continue
		}
		if !lr.contains(addr, count) {
			return LoadResult{}, &ErrHexRecord{LineNo: lineNo, Record: rec, Err: ErrLoadRange}
		}
		bus.Load(uint16(addr), raw[4:4+count])
		if count > 0 {
			lowest = min(lowest, addr)
			highest = max(highest, addr+count-1)
		}
	}
	if err := scanner.Err(); err != nil {
		return LoadResult{}, err
	}

	res := LoadResult{Format: FormatIntelHex}
	if highest >= lowest {
		res.Start = uint16(lowest)
		res.End = uint16(highest)
		res.Count = highest - lowest + 1
	}
	res.Entry = res.Start
	if endAddr != 0 {
		res.Entry = uint16(endAddr)
	}
	return res, nil
}
