package dispatch

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cnc-dispatch-go/pkg/alarm"
	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

func showHelp(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	log.StringTo(out, "HLP:$$ $+ $# $S $L $G $I $N $x=val $Nx=line $J=line $SLP $C $X $H $F $E=err ~ ! ? ctrl-x")
	return status.Ok
}

func (d *Dispatcher) toggleCheckMode(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.State.Is(state.ConfigAlarm) {
		return status.ConfigurationInvalid
	}
	// Toggling off performs a reset so the interpreter state is known
	// good afterwards.
	if d.State.Is(state.CheckMode) {
		log.StringTo(out, "[MSG:Disabled]")
		if d.Motion != nil {
			d.Motion.Abort()
		}
		return status.Ok
	}
	if !d.State.Is(state.Idle) {
		return status.IdleError
	}
	d.State.Set(state.CheckMode)
	log.StringTo(out, "[MSG:Enabled]")
	return status.Ok
}

// stuckPins blocks unlocking while a control pin is active.
func (d *Dispatcher) stuckPins() status.Code {
	if d.Control == nil {
		return status.Ok
	}
	if d.Control.SafetyDoorAjar() {
		d.Events.PostAlarm(alarm.ControlPin)
		return status.CheckDoor
	}
	if d.Control.Stuck() {
		log.Info("Control pins:%s", d.Control.ReportStatus())
		d.Events.PostAlarm(alarm.ControlPin)
		return status.CheckControlPins
	}
	return status.Ok
}

func (d *Dispatcher) disableAlarmLock(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.State.Is(state.ConfigAlarm) {
		return status.ConfigurationInvalid
	}
	if d.State.Is(state.Alarm) {
		if code := d.stuckPins(); !code.IsOk() {
			return code
		}
		if d.Runner != nil {
			d.Runner.SetAllAxesHomed()
		}
		if d.Kin != nil && d.Axes != nil {
			d.Kin.ReleaseMotors(d.Axes.MotorMask(), d.Axes.HardLimitMask())
		}
		log.StringTo(out, "[MSG:Caution: Unlocked]")
		d.State.Set(state.Idle)
	}
	// The after-unlock macro runs even when no unlock was needed.
	if d.Macros != nil {
		d.Macros.AfterUnlock(out)
	}
	return status.Ok
}

func (d *Dispatcher) motorControl(value *string, disable bool, out channel.Channel) status.Code {
	if d.State.Is(state.ConfigAlarm) {
		return status.ConfigurationInvalid
	}
	verb := "En"
	if disable {
		verb = "Dis"
	}
	arg := ""
	if value != nil {
		arg = strings.TrimSpace(*value)
	}
	if arg == "" {
		log.Info("%sabling all motors", verb)
		if d.Motors != nil {
			d.Motors.SetDisableAll(disable)
		}
		return status.Ok
	}
	if d.Axes.SharedDisable {
		log.Error("Cannot %sable individual axes with a shared disable pin", strings.ToLower(verb))
		return status.InvalidStatement
	}
	for i := 0; i < d.Axes.NumberAxis; i++ {
		name := d.Axes.Name(i)
		if strings.ContainsRune(strings.ToUpper(arg), rune(name)) {
			log.Info("%sabling %c motors", verb, name)
			if d.Motors != nil {
				d.Motors.SetDisable(i, disable)
			}
		}
	}
	return status.Ok
}

func (d *Dispatcher) macrosRun(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if value == nil || *value == "" {
		log.Error("$Macros/Run requires a macro number argument")
		return status.InvalidStatement
	}
	n := int((*value)[0] - '0')
	if d.Macros == nil || !d.Macros.Run(n, out) {
		return status.NumberRange
	}
	return status.Ok
}

func (d *Dispatcher) listAlarms(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.State.Is(state.ConfigAlarm) {
		log.StringTo(out, "Configuration alarm is active. Check the boot messages for 'ERR'.")
	} else if d.State.Is(state.Alarm) {
		log.StringTo(out, "Active alarm: "+strconv.Itoa(int(d.lastAlarm))+" ("+d.lastAlarm.String()+")")
	}
	if value != nil {
		n, err := strconv.Atoi(*value)
		if err != nil || n < 0 {
			log.StringTo(out, "Malformed alarm number: "+*value)
			return status.InvalidValue
		}
		if !alarm.Known(n) {
			log.StringTo(out, "Unknown alarm number: "+strconv.Itoa(n))
			return status.InvalidValue
		}
		log.StringTo(out, strconv.Itoa(n)+": "+alarm.Alarm(n).String())
		return status.Ok
	}
	for _, n := range sortedKeys(alarmNumbers()) {
		log.StringTo(out, strconv.Itoa(n)+": "+alarm.Alarm(n).String())
	}
	return status.Ok
}

func listErrors(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if value != nil {
		n, err := strconv.Atoi(*value)
		if err != nil {
			log.StringTo(out, "Malformed error number: "+*value)
			return status.InvalidValue
		}
		name, ok := status.Name(n)
		if !ok {
			log.StringTo(out, "Unknown error number: "+strconv.Itoa(n))
			return status.InvalidValue
		}
		log.StringTo(out, strconv.Itoa(n)+": "+name)
		return status.Ok
	}
	for _, n := range sortedKeys(statusNumbers()) {
		name, _ := status.Name(n)
		log.StringTo(out, strconv.Itoa(n)+": "+name)
	}
	return status.Ok
}

func alarmNumbers() map[int]struct{} {
	out := make(map[int]struct{}, len(alarm.Names))
	for a := range alarm.Names {
		out[int(a)] = struct{}{}
	}
	return out
}

func statusNumbers() map[int]struct{} {
	out := make(map[int]struct{}, len(status.Names))
	for c := range status.Names {
		out[int(c)] = struct{}{}
	}
	return out
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (d *Dispatcher) doJog(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	// The executor wants a full $J= line; rebuild it for every entry
	// form other than a bare $J.
	if value == nil {
		return status.InvalidStatement
	}
	if d.Motion == nil {
		return status.InvalidStatement
	}
	return d.Motion.ExecuteGcode("$J=" + *value)
}

func (d *Dispatcher) restoreSettings(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if value == nil {
		return status.InvalidStatement
	}
	flags, ok := settings.RestoreTokens[strings.ToLower(*value)]
	if !ok {
		return status.InvalidStatement
	}
	settings.Restore(d.Registry, flags, d.Coords)
	if d.Storage != nil {
		for _, s := range d.Registry.Settings() {
			if err := s.Save(d.Storage); err != nil {
				log.Error("Failed to persist %s: %v", s.Name(), err)
			}
		}
	}
	return status.Ok
}

func (d *Dispatcher) showState(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	s := d.State.Get()
	name, ok := state.Name[s]
	if !ok {
		name = "<invalid>"
	}
	log.StringTo(out, "State "+strconv.Itoa(int(s))+" ("+name+")")
	return status.Ok
}

func (d *Dispatcher) setReportInterval(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if value == nil {
		actual := out.ReportInterval()
		if actual != 0 {
			log.InfoTo(out, "%s auto report interval is %d ms", out.Name(), actual.Milliseconds())
		} else {
			log.InfoTo(out, "%s auto reporting is off", out.Name())
		}
		return status.Ok
	}
	ms, err := strconv.ParseUint(*value, 10, 32)
	if err != nil {
		return status.BadNumberFormat
	}
	actual := out.SetReportInterval(time.Duration(ms) * time.Millisecond)
	if actual != 0 {
		log.Info("%s auto report interval set to %d ms", out.Name(), actual.Milliseconds())
	} else {
		log.Info("%s auto reporting turned off", out.Name())
	}
	// Push a full report immediately so the client starts with all the
	// data.
	out.NotifyWco()
	out.NotifyOvr()
	return status.Ok
}

func (d *Dispatcher) sendAlarm(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	n := 0
	if value != nil {
		n, _ = strconv.Atoi(*value)
	}
	a := alarm.Alarm(n)
	log.Debug("Sending alarm %d %s", n, a)
	d.SetLastAlarm(a)
	d.Events.PostAlarm(a)
	return status.Ok
}

func (d *Dispatcher) showStartupLog(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.Startup != nil {
		d.Startup.Dump(out)
	}
	return status.Ok
}

func (d *Dispatcher) dumpConfig(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.Config == nil {
		return status.InvalidStatement
	}
	if value == nil {
		if err := d.Config.Dump(out); err != nil {
			log.Info("Config dump error: %v", err)
		}
		return status.Ok
	}
	f, err := os.Create(*value)
	if err != nil {
		log.ErrorTo(out, "Cannot open %s: %v", *value, err)
		return status.InvalidValue
	}
	defer f.Close()
	if err := d.Config.Dump(f); err != nil {
		log.Info("Config dump error: %v", err)
	}
	return status.Ok
}

func (d *Dispatcher) msgToPort(value *string, name string) status.Code {
	if value == nil {
		return status.Ok
	}
	if dest := d.Channels.Find(name); dest != nil {
		log.NoteTo(dest, "%s", *value)
	}
	return status.Ok
}

// logCmd routes $L<x> command output: a leading '*' broadcasts to all
// channels, otherwise the message goes back to the caller.
func (d *Dispatcher) logCmd(level log.Level) settings.ActionFunc {
	return func(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
		if value == nil {
			return status.Ok
		}
		text := *value
		if strings.HasPrefix(text, "*") {
			text = text[1:]
			for _, c := range d.Channels.All() {
				log.MsgTo(c, level, "%s", text)
			}
			return status.Ok
		}
		log.MsgTo(out, level, "%s", text)
		return status.Ok
	}
}

func (d *Dispatcher) noteCmd() settings.ActionFunc {
	return func(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
		if value == nil {
			return status.Ok
		}
		text := *value
		if strings.HasPrefix(text, "*") {
			d.Channels.Broadcast("[MSG: " + text[1:] + "]\n")
			return status.Ok
		}
		log.NoteTo(out, "%s", text)
		return status.Ok
	}
}

func (d *Dispatcher) eraseStorage(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.Storage == nil {
		return status.InvalidStatement
	}
	if err := d.Storage.Erase(); err != nil {
		log.Error("Storage erase failed: %v", err)
		return status.InvalidStatement
	}
	return status.Ok
}

func (d *Dispatcher) storageStats(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if d.Storage == nil {
		return status.InvalidStatement
	}
	used, capacity := d.Storage.Stats()
	log.StringTo(out, "Storage used: "+strconv.Itoa(used)+" of "+strconv.Itoa(capacity))
	return status.Ok
}

// RegisterCommands installs the builtin command set.
func (d *Dispatcher) RegisterCommands() {
	add := func(legacy, name string, action settings.ActionFunc, guard *settings.StateGuard) {
		d.Registry.MustAddCommand(settings.NewCommand(settings.CommandSpec{
			Name:       name,
			LegacyName: legacy,
			Permission: settings.UserReadWrite,
			Guard:      guard,
			Action:     action,
		}))
	}
	addWA := func(legacy, name string, action settings.ActionFunc, guard *settings.StateGuard) {
		d.Registry.MustAddCommand(settings.NewCommand(settings.CommandSpec{
			Name:       name,
			LegacyName: legacy,
			Permission: settings.AdminOnlyWrite,
			Guard:      guard,
			Action:     action,
		}))
	}
	addAsync := func(legacy, name string, action settings.ActionFunc, guard *settings.StateGuard) {
		d.Registry.MustAddCommand(settings.NewCommand(settings.CommandSpec{
			Name:       name,
			LegacyName: legacy,
			Permission: settings.UserReadWrite,
			Guard:      guard,
			Action:     action,
			Async:      true,
		}))
	}

	add("CI", "Channel/Info", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.listChannels(out)
		return status.Ok
	}, settings.AnyState)
	add("CD", "Config/Dump", d.dumpConfig, settings.AnyState)
	add("", "Help", showHelp, settings.AnyState)
	add("T", "State", d.showState, settings.AnyState)

	add("$", "GrblSettings/List", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.showGrblSettings(out)
		return status.Ok
	}, settings.NotCycleOrHold)
	add("L", "GrblNames/List", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.listGrblNames(out)
		return status.Ok
	}, settings.NotCycleOrHold)
	add("S", "Settings/List", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.listSettings(a, out)
		return status.Ok
	}, settings.NotCycleOrHold)
	add("SC", "Settings/ListChanged", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.listChangedSettings(a, out)
		return status.Ok
	}, settings.NotCycleOrHold)
	add("CMD", "Commands/List", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.listCommands(out)
		return status.Ok
	}, settings.NotCycleOrHold)
	add("A", "Alarms/List", d.listAlarms, settings.AnyState)
	add("E", "Errors/List", listErrors, settings.AnyState)
	add("C", "GCode/Check", d.toggleCheckMode, settings.AnyState)
	add("X", "Alarm/Disable", d.disableAlarmLock, settings.AnyState)
	addWA("NVX", "Settings/Erase", d.eraseStorage, settings.IdleOrAlarm)
	add("V", "Settings/Stats", d.storageStats, settings.IdleOrAlarm)
	add("#", "GCode/Offsets", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.Coords.Report(out)
		return status.Ok
	}, settings.IdleOrAlarm)
	add("MD", "Motor/Disable", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		return d.motorControl(v, true, out)
	}, settings.IdleOrAlarm)
	add("ME", "Motor/Enable", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		return d.motorControl(v, false, out)
	}, settings.IdleOrAlarm)
	add("MI", "Motors/Init", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		if d.Motors != nil {
			d.Motors.Init()
		}
		return status.Ok
	}, settings.IdleOrAlarm)

	add("RM", "Macros/Run", d.macrosRun, nil)

	add("H", "Home", d.homeAll, settings.AllowConfigStates)
	for i := 0; i < d.Axes.NumberAxis; i++ {
		axis := i
		letter := string(d.Axes.Name(i))
		add("H"+letter, "Home/"+letter, func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
			return d.home(axes.BitToMask(axis), out)
		}, settings.AllowConfigStates)
	}

	add("MU0", "Msg/Uart0", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		return d.msgToPort(v, "uart_channel0")
	}, settings.AnyState)
	add("MU1", "Msg/Uart1", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		return d.msgToPort(v, "uart_channel1")
	}, settings.AnyState)
	add("LM", "Log/Msg", d.noteCmd(), settings.AnyState)
	add("LE", "Log/Error", d.logCmd(log.ERROR), settings.AnyState)
	add("LW", "Log/Warn", d.logCmd(log.WARN), settings.AnyState)
	add("LI", "Log/Info", d.logCmd(log.INFO), settings.AnyState)
	add("LD", "Log/Debug", d.logCmd(log.DEBUG), settings.AnyState)
	add("LV", "Log/Verbose", d.logCmd(log.VERBOSE), settings.AnyState)

	add("SLP", "System/Sleep", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		d.Events.Post(event.Event{Kind: event.SleepEvent})
		return status.Ok
	}, settings.IdleOrAlarm)
	add("I", "Build/Info", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		if v != nil {
			return status.InvalidStatement
		}
		d.showBuildInfo(out)
		return status.Ok
	}, settings.IdleOrAlarm)
	addWA("RST", "Settings/Restore", d.restoreSettings, settings.IdleOrAlarm)

	add("SA", "Alarm/Send", d.sendAlarm, settings.AnyState)
	add("SS", "Startup/Show", d.showStartupLog, settings.AnyState)
	add("UP", "Uart/Passthrough", d.uartPassthrough, settings.IdleOrAlarm)

	add("RI", "Report/Interval", d.setReportInterval, settings.AnyState)

	add("13", "Report/Inches", d.reportInchesCmd, settings.IdleOrAlarm)

	add("GS", "GRBL/Show", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		log.StringTo(out, "Grbl 3.1 ["+d.BuildInfo+" '$' for help]")
		return status.Ok
	}, settings.IdleOrAlarm)

	addAsync("J", "Jog", d.doJog, settings.IdleOrJog)
	addAsync("G", "GCode/Modes", func(v *string, a settings.AuthLevel, out channel.Channel) status.Code {
		if d.Motion != nil {
			d.Motion.ReportModes(out)
		}
		return status.Ok
	}, settings.AnyState)
}
