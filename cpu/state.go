package cpu

// State is the run state of the engine.
type State int32

const (
	Stopped State = iota
	Running
	SingleStep
	StepCycle
	// Reset is asserted by a front panel and holds the engine until
	// ReleaseReset.
	Reset
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case SingleStep:
		return "single-step"
	case StepCycle:
		return "step-cycle"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}

// active reports whether the dispatch loop may keep executing in this state.
func (s State) active() bool {
	return s == Running || s == SingleStep || s == StepCycle
}
