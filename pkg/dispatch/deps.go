package dispatch

import (
	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/status"
)

// Motion is the G-code execution engine consumed by dispatch. Dispatch
// never interprets G-code itself; non-command lines are handed over
// whole.
type Motion interface {
	// ExecuteGcode runs one G-code line to completion.
	ExecuteGcode(line string) status.Code

	// SynchronizeBuffer drains the planned motion queue. Synchronous
	// commands require an empty queue before running.
	SynchronizeBuffer()

	// JobActive reports whether a stored job is currently running.
	JobActive() bool

	// SkipBlocks reports whether the interpreter is skipping input
	// blocks, e.g. while resuming into the middle of a job.
	SkipBlocks() bool

	// ReportModes writes the active G-code modal state.
	ReportModes(out log.LineWriter)

	// Abort requests a controlled reset of the execution state.
	Abort()
}

// Control is the machine's physical control-pin block.
type Control interface {
	// SafetyDoorAjar reports whether the safety door switch is open.
	SafetyDoorAjar() bool

	// Stuck reports whether any control pin is stuck active.
	Stuck() bool

	// PinsBlockUnlock reports whether active control pins forbid
	// leaving the alarm state.
	PinsBlockUnlock() bool

	// ReportStatus names the currently active pins.
	ReportStatus() string
}

// Motors drives stepper enable/disable and reinitialization.
type Motors interface {
	SetDisableAll(disable bool)
	SetDisable(axis int, disable bool)
	Init()
}

// CycleRunner starts homing cycles on the motion system. The
// orchestrator observes completion through the machine state, not
// through a return value.
type CycleRunner interface {
	// RunCycles begins homing the masked axes, or every configured
	// cycle when given AllCycles. It puts the machine into the homing
	// state and returns immediately.
	RunCycles(mask axes.Mask)

	// SetAllAxesHomed marks every axis as homed, used by the alarm
	// unlock command.
	SetAllAxesHomed()
}

// Macros runs user-defined command macros.
type Macros interface {
	// Run executes macro n, reporting output to out. It returns false
	// when n names no macro.
	Run(n int, out channel.Channel) bool

	// AfterUnlock runs the after-unlock macro, if configured.
	AfterUnlock(out channel.Channel)
}
