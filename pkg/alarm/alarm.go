// Package alarm defines the alarm codes asserted by the real-time path
// and listed by the $A command.
package alarm

import "fmt"

// Alarm identifies the cause of an alarm condition.
type Alarm int

const (
	None Alarm = iota
	HardLimit
	SoftLimit
	AbortCycle
	ProbeFailInitial
	ProbeFailContact
	HomingFailReset
	HomingFailDoor
	HomingFailPulloff
	HomingFailApproach
	SpindleControl
	ControlPin
	HomingAmbiguousSwitch
	HardStop
	Unhomed
	Init
	GCodeError
)

// Names maps each alarm to its display name.
var Names = map[Alarm]string{
	None:                  "None",
	HardLimit:             "Hard Limit",
	SoftLimit:             "Soft Limit",
	AbortCycle:            "Abort Cycle",
	ProbeFailInitial:      "Probe Fail Initial",
	ProbeFailContact:      "Probe Fail Contact",
	HomingFailReset:       "Homing Fail Reset",
	HomingFailDoor:        "Homing Fail Door",
	HomingFailPulloff:     "Homing Fail Pulloff",
	HomingFailApproach:    "Homing Fail Approach",
	SpindleControl:        "Spindle Control",
	ControlPin:            "Control Pin Initially On",
	HomingAmbiguousSwitch: "Ambiguous Switch",
	HardStop:              "Hard Stop",
	Unhomed:               "Unhomed",
	Init:                  "Init",
	GCodeError:            "GCode Error",
}

// String returns the display name of the alarm.
func (a Alarm) String() string {
	if name, ok := Names[a]; ok {
		return name
	}
	return fmt.Sprintf("alarm %d", int(a))
}

// Known reports whether the alarm number has a registered name.
func Known(n int) bool {
	_, ok := Names[Alarm(n)]
	return ok
}
