package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/intuitionamiga/IntuitionZ80/translate"
)

var f = translate.From

// Error is the reason the engine stopped.
type Error int

const (
	ErrOpHalt Error = iota + 1
	ErrIOTrapIn
	ErrIOTrapOut
	ErrIOHalt
	ErrIOError
	ErrOpTrap1
	ErrOpTrap2
	ErrOpTrap4
	ErrUserInt
	ErrIntError
	ErrPowerOff Error = 255
)

var errorNames = map[Error]string{
	ErrOpHalt:    "OPHALT",
	ErrIOTrapIn:  "IOTRAPIN",
	ErrIOTrapOut: "IOTRAPOUT",
	ErrIOHalt:    "IOHALT",
	ErrIOError:   "IOERROR",
	ErrOpTrap1:   "OPTRAP1",
	ErrOpTrap2:   "OPTRAP2",
	ErrOpTrap4:   "OPTRAP4",
	ErrUserInt:   "USERINT",
	ErrIntError:  "INTERROR",
	ErrPowerOff:  "POWEROFF",
}

// String returns the short name of the error.
func (e Error) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return f("error %d", int(e))
}

func (e Error) Error() string {
	switch e {
	case ErrOpHalt:
		return f("HALT with interrupts disabled")
	case ErrIOTrapIn:
		return f("I/O input trap")
	case ErrIOTrapOut:
		return f("I/O output trap")
	case ErrIOHalt:
		return f("System halted")
	case ErrIOError:
		return f("Fatal I/O error")
	case ErrOpTrap1, ErrOpTrap2, ErrOpTrap4:
		return f("Op-code trap")
	case ErrUserInt:
		return f("User interrupt")
	case ErrIntError:
		return f("Unsupported bus data during INT")
	case ErrPowerOff:
		return f("System powered off")
	default:
		return e.String()
	}
}

// Fault carries the diagnostic context of an abnormal stop.
type Fault struct {
	Err Error
	// PC is the address of the instruction that faulted.
	PC uint16
	// Opcode holds the bytes fetched for an opcode trap.
	Opcode []byte
	Port   byte
	// Data is the interrupt bus data for ErrIntError.
	Data byte
}

func (ft *Fault) Error() string {
	switch ft.Err {
	case ErrOpHalt:
		return f("INT disabled and HALT Op-Code reached at 0x%04x", ft.PC)
	case ErrIOTrapIn:
		return f("I/O input Trap at 0x%04x, port 0x%02x", ft.PC, ft.Port)
	case ErrIOTrapOut:
		return f("I/O output Trap at 0x%04x, port 0x%02x", ft.PC, ft.Port)
	case ErrIOError:
		return f("Fatal I/O Error at 0x%04x", ft.PC)
	case ErrOpTrap1, ErrOpTrap2, ErrOpTrap4:
		codes := make([]string, len(ft.Opcode))
		for i, b := range ft.Opcode {
			codes[i] = fmt.Sprintf("0x%02x", b)
		}
		return f("Op-code trap at 0x%04x %v", ft.PC, strings.Join(codes, " "))
	case ErrUserInt:
		return f("User Interrupt at 0x%04x", ft.PC)
	case ErrIntError:
		return f("Unsupported bus data during INT: 0x%02x", ft.Data)
	default:
		return ft.Err.Error()
	}
}

func (ft *Fault) Unwrap() error {
	return ft.Err
}

// Code extracts the engine error code from err, or 0 if err carries none.
func Code(err error) Error {
	var code Error
	if errors.As(err, &code) {
		return code
	}
	return 0
}
