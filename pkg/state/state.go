// Package state tracks the controller's operating mode. The mode is
// process-wide: the dispatch path writes it during normal command flow,
// and the real-time path may force Alarm transitions that blocking loops
// must observe promptly.
package state

import "sync/atomic"

// State is the controller operating mode.
type State int

const (
	// Idle means the machine is ready to accept commands.
	Idle State = iota

	// Alarm means an alarm is active and motion is locked out.
	Alarm

	// ConfigAlarm means the machine configuration failed to load or
	// validate. Most commands are refused until it is fixed.
	ConfigAlarm

	// CheckMode means G-code is parsed but not executed.
	CheckMode

	// Homing means a homing cycle is in progress.
	Homing

	// Cycle means a motion program is running.
	Cycle

	// Hold means a feed hold is in progress.
	Hold

	// Jog means a jog motion is in progress.
	Jog

	// SafetyDoor means the safety door is open and motion is parked.
	SafetyDoor

	// Sleep means the machine has been put to sleep.
	Sleep
)

// Name maps each state to its display name.
var Name = map[State]string{
	Idle:        "Idle",
	Alarm:       "Alarm",
	ConfigAlarm: "ConfigAlarm",
	CheckMode:   "Check",
	Homing:      "Home",
	Cycle:       "Run",
	Hold:        "Hold",
	Jog:         "Jog",
	SafetyDoor:  "Door",
	Sleep:       "Sleep",
}

// String returns the display name of the state.
func (s State) String() string {
	if name, ok := Name[s]; ok {
		return name
	}
	return "<invalid>"
}

// Holder is the shared current-state cell. Reads and writes are atomic
// so the real-time path can assert Alarm while a dispatch loop polls.
type Holder struct {
	v atomic.Int32
}

// NewHolder returns a Holder starting in the given state.
func NewHolder(initial State) *Holder {
	h := &Holder{}
	h.v.Store(int32(initial))
	return h
}

// Get returns the current state.
func (h *Holder) Get() State {
	return State(h.v.Load())
}

// Set replaces the current state.
func (h *Holder) Set(s State) {
	h.v.Store(int32(s))
}

// Is reports whether the current state equals s.
func (h *Holder) Is(s State) bool {
	return h.Get() == s
}
