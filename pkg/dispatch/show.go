package dispatch

import (
	"strconv"

	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/status"
)

func showSetting(name, value string, out log.LineWriter) {
	log.StringTo(out, "$"+name+"="+encodeValue(value))
}

// showGrblSettings lists the classic numbered settings in compatible
// form, led by the inch-report flag which is a command rather than a
// setting here.
func (d *Dispatcher) showGrblSettings(out channel.Channel) {
	d.reportInchesCmd(nil, settings.Admin, out)
	for _, s := range d.Registry.Settings() {
		if s.Kind() == settings.KindGrbl && s.LegacyName() != "" {
			showSetting(s.LegacyName(), s.CompatibleValue(), out)
		}
	}
}

func (d *Dispatcher) listGrblNames(out channel.Channel) {
	log.StringTo(out, "$13 => $Report/Inches")
	for _, s := range d.Registry.Settings() {
		if s.LegacyName() != "" {
			log.StringTo(out, "$"+s.LegacyName()+" => $"+s.Name())
		}
	}
}

func (d *Dispatcher) listSettings(auth settings.AuthLevel, out channel.Channel) {
	for _, s := range d.Registry.Settings() {
		if s.Kind() == settings.KindPin {
			continue
		}
		value := s.StringValue()
		if settings.AuthFailed(s.Permission(), auth, false) {
			value = settings.RedactedValue
		}
		showSetting(s.Name(), value, out)
	}
}

func (d *Dispatcher) listChangedSettings(auth settings.AuthLevel, out channel.Channel) {
	for _, s := range d.Registry.Settings() {
		if s.Kind() == settings.KindPin || s.IsDefault() {
			continue
		}
		if settings.AuthFailed(s.Permission(), auth, false) {
			continue
		}
		showSetting(s.Name(), s.StringValue(), out)
	}
	log.StringTo(out, "(Passwords not shown)")
}

func (d *Dispatcher) listCommands(out channel.Channel) {
	for _, cp := range d.Registry.Commands() {
		line := "$" + cp.Name()
		if cp.LegacyName() != "" {
			line += " or $" + cp.LegacyName()
		}
		if cp.Description() != "" {
			line += " =" + cp.Description()
		}
		log.StringTo(out, line)
	}
}

func (d *Dispatcher) listChannels(out channel.Channel) {
	for _, c := range d.Channels.All() {
		interval := c.ReportInterval()
		line := c.Name()
		if interval != 0 {
			line += " interval=" + strconv.FormatInt(interval.Milliseconds(), 10) + "ms"
		}
		log.StringTo(out, line)
	}
}

func (d *Dispatcher) showBuildInfo(out channel.Channel) {
	log.StringTo(out, "[VER:"+d.BuildInfo+":]")
	log.StringTo(out, "[OPT:]")
}

// reportInchesCmd is the $13 handler; with no value it reports the
// flag, with a value it sets it.
func (d *Dispatcher) reportInchesCmd(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	if value == nil {
		flag := "0"
		if d.reportInches {
			flag = "1"
		}
		log.StringTo(out, "$13="+flag)
		return status.Ok
	}
	d.reportInches = len(*value) > 0 && (*value)[0] == '1'
	return status.Ok
}

// ReportInches reports whether listings and position reports use
// inches.
func (d *Dispatcher) ReportInches() bool { return d.reportInches }
