package dispatch

import (
	"time"

	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

// homingPoll is how often the blocking wait checks the machine state
// while pumping real-time events.
const homingPoll = time.Millisecond

// home runs one homing request to completion. mask is AllCycles for
// the full default cycle set, otherwise the specific axes to home
// simultaneously. The call blocks until the machine leaves the homing
// state, pumping real-time events the whole time so status queries and
// alarms keep flowing.
func (d *Dispatcher) home(mask axes.Mask, out channel.Channel) status.Code {
	if d.Control != nil && d.Control.PinsBlockUnlock() {
		return status.CheckControlPins
	}
	if mask != axes.AllCycles {
		// A specific axis set is only legal when every requested axis
		// permits single-axis homing.
		for axis := 0; axis < d.Axes.NumberAxis; axis++ {
			if !mask.Has(axis) {
				continue
			}
			ac := d.Axes.Axis[axis]
			if ac == nil || ac.Homing == nil || !ac.Homing.AllowSingleAxis {
				return status.SingleAxisHoming
			}
		}
	}
	if d.State.Is(state.ConfigAlarm) {
		return status.ConfigurationInvalid
	}
	if d.Axes.HomingMask() == 0 {
		return status.SettingDisabled
	}
	if d.Control != nil && d.Control.SafetyDoorAjar() {
		return status.CheckDoor
	}

	d.Runner.RunCycles(mask)

	for {
		d.Events.Pump()
		if !d.State.Is(state.Homing) {
			break
		}
		time.Sleep(homingPoll)
	}
	return status.Ok
}

// homeAll is the $H action. Its value selects what to home: nothing
// for the full cycle set, a digit string for an ordered cycle list, or
// an axis-letter string for one simultaneous request.
func (d *Dispatcher) homeAll(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	requested := axes.AllCycles
	if value != nil {
		v := *value
		ndigits := 0
		for i := 0; i < len(v); i++ {
			c := v[i]
			if c >= '0' && c <= '9' {
				if d.Axes.CycleMask(int(c-'0')) == 0 {
					log.Error("No axes for homing cycle %c", c)
					return status.InvalidValue
				}
				ndigits++
			}
		}
		if ndigits > 0 {
			if ndigits != len(v) {
				log.Error("Invalid homing cycle list")
				return status.InvalidValue
			}
			// Cycles run in the order given, each one to completion.
			for i := 0; i < len(v); i++ {
				mask := d.Axes.CycleMask(int(v[i] - '0'))
				if code := d.home(mask, out); !code.IsOk() {
					return code
				}
			}
			return status.Ok
		}
		mask, ok := axes.NamesToMask(v, d.Axes.NumberAxis)
		if !ok {
			return status.InvalidValue
		}
		requested = mask
	}
	return d.home(requested, out)
}
