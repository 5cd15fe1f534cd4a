package settings

import (
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

// StateGuard is an entry's allowed-state predicate. The vocabulary is
// fixed; entries pick one at registration time.
type StateGuard struct {
	name string

	// allowConfigAlarm permits running while the configuration is in an
	// alarm state. Homing-class commands need this to clear an initial
	// unhomed condition.
	allowConfigAlarm bool

	allows func(s state.State) bool
}

// Check evaluates the guard against the current state. A nil guard
// means no restriction. The configuration-alarm check precedes the
// idle-only check.
func (g *StateGuard) Check(s state.State) status.Code {
	if g == nil {
		g = AnyState
	}
	if s == state.ConfigAlarm {
		if g.allowConfigAlarm {
			return status.Ok
		}
		return status.ConfigurationInvalid
	}
	if g.allows(s) {
		return status.Ok
	}
	return status.IdleError
}

// AllowsConfigAlarm reports whether the guard permits running during a
// configuration alarm.
func (g *StateGuard) AllowsConfigAlarm() bool {
	return g != nil && g.allowConfigAlarm
}

// The guard vocabulary.
var (
	// AnyState permits the entry in every state, configuration alarms
	// included. Used by the fixed allow-list: alarm/error listings,
	// logging, state display.
	AnyState = &StateGuard{
		name:             "anyState",
		allowConfigAlarm: true,
		allows:           func(state.State) bool { return true },
	}

	// NotCycleOrHold refuses the entry while a motion program or feed
	// hold is in progress.
	NotCycleOrHold = &StateGuard{
		name:             "notCycleOrHold",
		allowConfigAlarm: true,
		allows: func(s state.State) bool {
			return s != state.Cycle && s != state.Hold
		},
	}

	// IdleOrAlarm permits the entry only while idle or in an alarm.
	IdleOrAlarm = &StateGuard{
		name: "idleOrAlarm",
		allows: func(s state.State) bool {
			return s == state.Idle || s == state.Alarm
		},
	}

	// IdleOrJog permits the entry only while idle or already jogging.
	IdleOrJog = &StateGuard{
		name: "idleOrJog",
		allows: func(s state.State) bool {
			return s == state.Idle || s == state.Jog
		},
	}

	// AllowConfigStates permits the entry while idle, in an alarm, or
	// in a configuration alarm. Used by homing commands.
	AllowConfigStates = &StateGuard{
		name:             "allowConfigStates",
		allowConfigAlarm: true,
		allows: func(s state.State) bool {
			return s == state.Idle || s == state.Alarm
		},
	}
)
