//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// BREAK_KEY (Ctrl-\) interrupts the CPU while stdin is in raw mode.
const BREAK_KEY = 0x1C

// TerminalHost reads raw stdin and feeds bytes into the console device.
type TerminalHost struct {
	console      *TerminalIO
	onBreak      func()
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

func NewTerminalHost(console *TerminalIO, onBreak func()) *TerminalHost {
	return &TerminalHost{
		console: console,
		onBreak: onBreak,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start sets stdin to raw mode and begins reading in a goroutine. The
// blocking read means Stop only returns once another key arrives.
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

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				switch b := buf[0]; b {
				case BREAK_KEY:
					if h.onBreak != nil {
						h.onBreak()
					}
				case 0x7F:
					h.console.EnqueueByte(0x08)
				default:
					h.console.EnqueueByte(b)
				}
			}
			if err != nil {
				return
			}
		}
	}()
}

func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
