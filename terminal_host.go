//go:build !windows

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// BREAK_KEY (Ctrl-\) interrupts the CPU while stdin is in raw mode, where
// Ctrl-C no longer raises SIGINT.
const BREAK_KEY = 0x1C

// TerminalHost reads raw stdin and feeds bytes into the console device.
// Only instantiated in main.go for interactive use, never in tests.
type TerminalHost struct {
	console      *TerminalIO
	onBreak      func()
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter for console. onBreak runs when
// BREAK_KEY is typed.
func NewTerminalHost(console *TerminalIO, onBreak func()) *TerminalHost {
	return &TerminalHost{
		console: console,
		onBreak: onBreak,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start puts stdin in raw non-blocking mode and begins reading in a
// goroutine. Call Stop() to restore stdin. When stdin is not a terminal
// bytes are still forwarded, without mode changes.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	if term.IsTerminal(h.fd) {
		oldState, err := term.MakeRaw(h.fd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
			close(h.done)
			return
		}
		h.oldTermState = oldState
	}

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		h.restore()
		close(h.done)
		return
	}
	h.nonblockSet = true

	go h.readLoop()
}

func (h *TerminalHost) readLoop() {
	defer close(h.done)
	buf := make([]byte, 64)

	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := syscall.Read(h.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			h.route(b)
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil || n == 0 {
			// EOF on a pipe: keep the goroutine alive until Stop
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (h *TerminalHost) route(b byte) {
	switch b {
	case BREAK_KEY:
		if h.onBreak != nil {
			h.onBreak()
		}
		return
	case 0x7F:
		// Modern terminals send DEL for Backspace
		b = 0x08
	}
	h.console.EnqueueByte(b)
}

// Stop terminates the reader and restores stdin to its previous mode.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	h.restore()
}

func (h *TerminalHost) restore() {
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
