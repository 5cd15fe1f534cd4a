// Package dispatch turns text lines arriving from I/O channels into
// settings reads/writes and command actions, enforcing authentication,
// machine-state preconditions and safety interlocks along the way.
package dispatch

import (
	"cnc-dispatch-go/pkg/alarm"
	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/configtree"
	"cnc-dispatch-go/pkg/coords"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/kinematics"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

// Dispatcher is the command/settings engine. One dispatcher processes
// one line to completion before the next; there is no internal
// concurrency on the dispatch path itself, but the blocking command
// loops pump the event processor so the real-time path is never
// starved.
type Dispatcher struct {
	Registry *settings.Registry
	Config   *configtree.Tree
	State    *state.Holder
	Events   *event.Pump
	Channels *channel.Registry
	Ports    *channel.PortSet
	Coords   *coords.Store
	Axes     *axes.Axes
	Kin      kinematics.Kinematics
	Storage  settings.Storage

	Motion  Motion
	Control Control
	Motors  Motors
	Runner  CycleRunner
	Macros  Macros

	// AuthEnabled turns the authentication gate on. When false every
	// caller is treated as admin.
	AuthEnabled bool

	// BuildInfo is the version string reported by $I.
	BuildInfo string

	// Startup replays boot-time log output for $SS.
	Startup *log.Capture

	reportInches bool
	lastAlarm    alarm.Alarm
}

// SetLastAlarm records the most recent alarm for the alarm listing.
// The control core calls this when it asserts an alarm.
func (d *Dispatcher) SetLastAlarm(a alarm.Alarm) {
	d.lastAlarm = a
}

// ExecuteLine is the top dispatch entry point for one input line.
func (d *Dispatcher) ExecuteLine(line string, ch channel.Channel, auth settings.AuthLevel) status.Code {
	if !d.AuthEnabled {
		auth = settings.Admin
	}
	// Empty lines are passed through for syncing purposes.
	if line == "" {
		return status.Ok
	}
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	line = line[i:]
	if line == "" {
		return status.Ok
	}
	if line[0] == '$' || line[0] == '[' {
		if d.Motion != nil && d.Motion.SkipBlocks() {
			return status.Ok
		}
		key, value := splitLine(line)
		return d.doCommandOrSetting(key, value, auth, ch)
	}
	// Everything else is G-code. Block it while alarmed or jogging.
	switch d.State.Get() {
	case state.Alarm, state.ConfigAlarm, state.Jog:
		return status.SystemGcLock
	}
	if d.Motion == nil {
		return status.InvalidStatement
	}
	result := d.Motion.ExecuteGcode(line)
	if !result.IsOk() && result != status.Reset {
		log.ErrorTo(ch, "Bad GCode: %s", line)
		if d.Motion.JobActive() {
			d.Events.PostAlarm(alarm.GCodeError)
		}
	}
	return result
}

// doCommandOrSetting resolves a parsed key/value against, in order:
// commands, the structured configuration tree, settings by canonical
// name, settings by legacy name, and finally a display-only pattern
// match over canonical setting names.
func (d *Dispatcher) doCommandOrSetting(key string, value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	// A bare "$" asks for help.
	if key == "" {
		key = "Help"
	}
	// Commands handle values internally; presence of a value does not
	// by itself mean "write".
	if cp := d.Registry.FindCommand(key); cp != nil {
		if settings.AuthFailed(cp.Permission(), auth, value != nil) {
			return status.AuthenticationFailed
		}
		if code := cp.Guard().Check(d.State.Get()); !code.IsOk() {
			return code
		}
		if cp.Synchronous() && d.Motion != nil {
			d.Motion.SynchronizeBuffer()
		}
		// "$X=" still gates as a write above, but the action sees no
		// argument: an empty value and an absent one run the same way.
		arg := value
		if arg != nil && *arg == "" {
			arg = nil
		}
		return cp.Run(arg, auth, out)
	}

	// Structured configuration items come next. A handled path ends
	// resolution even if the write then fails validation.
	if d.Config != nil {
		if code, handled := d.runtimeConfig(key, value, out); handled {
			return code
		}
	}

	if s := d.Registry.FindSetting(key); s != nil {
		if value == nil {
			showSetting(s.Name(), s.StringValue(), out)
			return status.Ok
		}
		return d.writeSetting(s, *value, out)
	}

	if s := d.Registry.FindSettingLegacy(key); s != nil {
		if value == nil {
			showSetting(s.LegacyName(), s.CompatibleValue(), out)
			return status.Ok
		}
		return d.writeSetting(s, *value, out)
	}

	// With no exact match and no value this is a display request, so
	// pattern matching over canonical names is allowed.
	if value == nil {
		found := false
		for _, s := range d.Registry.Settings() {
			if nameMatch(key, s.Name()) {
				showSetting(s.Name(), s.StringValue(), out)
				found = true
			}
		}
		if found {
			return status.Ok
		}
	}
	return status.InvalidStatement
}

func (d *Dispatcher) writeSetting(s *settings.Setting, raw string, out channel.Channel) status.Code {
	if code := s.Guard().Check(d.State.Get()); !code.IsOk() {
		return code
	}
	if code := s.SetStringValue(decodeValue(raw, out)); !code.IsOk() {
		return code
	}
	if d.Storage != nil {
		if err := s.Save(d.Storage); err != nil {
			log.Error("Failed to persist %s: %v", s.Name(), err)
		}
	}
	return status.Ok
}

// runtimeConfig attempts the key against the configuration tree. The
// second result reports whether the tree claimed the path.
func (d *Dispatcher) runtimeConfig(key string, value *string, out channel.Channel) (status.Code, bool) {
	if value == nil {
		v, ok := d.Config.Get(key)
		if !ok {
			return status.Ok, false
		}
		log.StringTo(out, "$"+key+"="+v)
		return status.Ok, true
	}
	handled, err := d.Config.Set(key, *value)
	if err != nil {
		if pe, ok := err.(*configtree.ParseError); ok {
			log.Error("Configuration parse error at line %d: %s", pe.Line, pe.Msg)
		} else {
			log.Error("Configuration change failed: %v", err)
		}
		return status.ConfigurationInvalid, true
	}
	if !handled {
		return status.Ok, false
	}
	// Validate only on change, not for display.
	if err := d.Config.Validate(); err != nil {
		log.Error("Validation error: %v", err)
		return status.ConfigurationInvalid, true
	}
	if err := d.Config.AfterParse(); err != nil {
		log.Error("Configuration change failed: %v", err)
		return status.ConfigurationInvalid, true
	}
	return status.Ok, true
}
