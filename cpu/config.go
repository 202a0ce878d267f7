package cpu

import (
	"github.com/sirupsen/logrus"
)

// Model selects the instruction set.
type Model int

const (
	ModelZ80 Model = iota
	Model8080
)

func (m Model) String() string {
	switch m {
	case ModelZ80:
		return "Z80"
	case Model8080:
		return "8080"
	default:
		return "unknown"
	}
}

// ExecMode selects how block instructions and machine-cycle hooks behave.
type ExecMode int

const (
	// ExecCycleAccurate runs one block iteration per dispatch and reports
	// every machine cycle to Config.OnCycle.
	ExecCycleAccurate ExecMode = iota
	// ExecFast runs block instructions to completion inside one dispatch
	// and only reports instruction boundaries.
	ExecFast
)

func (m ExecMode) String() string {
	if m == ExecFast {
		return "fast"
	}
	return "cycle-accurate"
}

// CycleFunc receives the bus status, address and data of one machine cycle.
type CycleFunc func(status BusStatus, addr uint16, data byte)

// Config is fixed for the lifetime of a CPU.
type Config struct {
	Model Model
	// Undocumented enables undocumented opcodes. When false they raise
	// ErrOpTrap1, ErrOpTrap2 or ErrOpTrap4.
	Undocumented bool
	// UndocFlags maintains the X and Y bits (5 and 3) of F on the Z80.
	UndocFlags bool
	Exec       ExecMode
	// FrequencyMHz throttles execution to the given clock. 0 is unlimited.
	FrequencyMHz int
	// BootVector is loaded into PC on reset.
	BootVector uint16

	// OnInstruction is called before every instruction fetch.
	OnInstruction func(pc uint16)
	// OnCycle is called for every machine cycle in ExecCycleAccurate mode.
	OnCycle CycleFunc

	Logger logrus.FieldLogger
}

// DefaultConfig returns an unthrottled, cycle-accurate Z80 with undocumented
// opcodes and flags enabled.
func DefaultConfig() Config {
	return Config{
		Model:        ModelZ80,
		Undocumented: true,
		UndocFlags:   true,
		Exec:         ExecCycleAccurate,
	}
}
