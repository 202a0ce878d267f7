// machine_bus.go - 64K memory bus with ROM protection

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
machine_bus.go - Machine Bus for the Intuition Z80

This module implements the 64K memory seen by the Z80/8080 engine. It satisfies
the cpu.Memory interface and adds the two features the reference machine needs
on top of plain RAM: an optional write-protected ROM window and a configurable
power-on fill pattern.

Core Features:
    64K of memory allocated as a fixed array.
    ROM window: engine and DMA writes inside [romStart, romEnd] are dropped.
    Peek/Poke for tooling, bypassing write protection.
    Fill pattern on reset: a fixed byte, or pseudo-random contents.

Concurrency:
    Read, Write, DMARead and DMAWrite are called from the goroutine driving
    the CPU (bus masters run at instruction boundaries). Peek and Poke are used
    by the monitor while the CPU is stopped.
*/

package main

import (
	"math/rand/v2"
)

const (
	MEMORY_SIZE = 0x10000

	// FILL_RANDOM selects pseudo-random memory contents on reset.
	FILL_RANDOM = -1
)

type MachineBus struct {
	memory [MEMORY_SIZE]byte

	romEnabled bool
	romStart   uint16
	romEnd     uint16

	fill int
}

// NewMachineBus creates a bus whose memory is initialised with fill, a byte
// value or FILL_RANDOM.
func NewMachineBus(fill int) *MachineBus {
	bus := &MachineBus{fill: fill}
	bus.Reset()
	return bus
}

// Reset reinitialises memory with the fill pattern. ROM contents are
// cleared too; reload them after a reset.
func (bus *MachineBus) Reset() {
	if bus.fill == FILL_RANDOM {
		for i := range bus.memory {
			bus.memory[i] = byte(rand.IntN(256))
		}
		return
	}
	for i := range bus.memory {
		bus.memory[i] = byte(bus.fill)
	}
}

// ProtectROM makes [start, end] read-only for the CPU and bus masters.
func (bus *MachineBus) ProtectROM(start, end uint16) {
	bus.romEnabled = true
	bus.romStart = start
	bus.romEnd = end
}

// UnprotectROM removes the ROM window.
func (bus *MachineBus) UnprotectROM() {
	bus.romEnabled = false
}

// ROM returns the protected window, if any.
func (bus *MachineBus) ROM() (start, end uint16, ok bool) {
	return bus.romStart, bus.romEnd, bus.romEnabled
}

func (bus *MachineBus) inROM(addr uint16) bool {
	return bus.romEnabled && addr >= bus.romStart && addr <= bus.romEnd
}

func (bus *MachineBus) Read(addr uint16) byte {
	return bus.memory[addr]
}

func (bus *MachineBus) Write(addr uint16, value byte) {
	if bus.inROM(addr) {
		return
	}
	bus.memory[addr] = value
}

func (bus *MachineBus) DMARead(addr uint16) byte {
	return bus.memory[addr]
}

func (bus *MachineBus) DMAWrite(addr uint16, value byte) {
	if bus.inROM(addr) {
		return
	}
	bus.memory[addr] = value
}

func (bus *MachineBus) Peek(addr uint16) byte {
	return bus.memory[addr]
}

func (bus *MachineBus) Poke(addr uint16, value byte) {
	bus.memory[addr] = value
}

// Load copies data to addr with Poke semantics, wrapping at the top of
// memory.
func (bus *MachineBus) Load(addr uint16, data []byte) {
	for i, b := range data {
		bus.memory[addr+uint16(i)] = b
	}
}

// Slice returns a copy of count bytes starting at addr, wrapping at the top
// of memory.
func (bus *MachineBus) Slice(addr uint16, count int) []byte {
	out := make([]byte, count)
	for i := range out {
		out[i] = bus.memory[addr+uint16(i)]
	}
	return out
}
