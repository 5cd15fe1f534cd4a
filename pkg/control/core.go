package control

import (
	"strconv"
	"strings"

	"cnc-dispatch-go/pkg/alarm"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/coords"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/state"
)

// Core services real-time events. It runs on whichever goroutine pumps
// the event queue: the channel poll loops during normal operation, or
// the blocking command loops (homing wait, passthrough relay) while
// dispatch blocks.
type Core struct {
	State    *state.Holder
	Events   *event.Pump
	Channels *channel.Registry
	Coords   *coords.Store

	// Position reports the current machine position; nil means origin.
	Position func() []float64

	// OnAlarm is told about every asserted alarm, typically to feed the
	// dispatcher's alarm listing.
	OnAlarm func(alarm.Alarm)
}

// Attach registers the core's event handler on the pump.
func (c *Core) Attach() {
	c.Events.OnEvent(c.handle)
}

func (c *Core) handle(ev event.Event) {
	switch ev.Kind {
	case event.StatusReport:
		c.ReportStatus()
	case event.FeedHold:
		switch c.State.Get() {
		case state.Cycle, state.Jog:
			c.State.Set(state.Hold)
		}
	case event.CycleStart:
		if c.State.Is(state.Hold) {
			c.State.Set(state.Cycle)
		}
	case event.Reset:
		// A configuration alarm survives reset; everything else
		// returns to idle.
		if !c.State.Is(state.ConfigAlarm) {
			c.State.Set(state.Idle)
		}
		log.Info("Reset requested")
	case event.AlarmEvent:
		c.State.Set(state.Alarm)
		if c.OnAlarm != nil {
			c.OnAlarm(ev.Alarm)
		}
		c.Channels.Broadcast("ALARM:" + strconv.Itoa(int(ev.Alarm)) + "\n")
	case event.SleepEvent:
		c.State.Set(state.Sleep)
		c.Channels.Broadcast("[MSG:Sleeping]\n")
	}
}

// ReportStatus writes a status line to every channel. Channels that
// asked for WCO or override data get the extra fields once.
func (c *Core) ReportStatus() {
	pos := []float64{0, 0, 0}
	if c.Position != nil {
		pos = c.Position()
	}
	name, ok := state.Name[c.State.Get()]
	if !ok {
		name = "?"
	}
	for _, ch := range c.Channels.All() {
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(name)
		b.WriteString("|MPos:")
		for i, v := range pos {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
		}
		b.WriteString("|FS:0,0")
		wco, ovr := takeNotifications(ch)
		if wco && c.Coords != nil {
			active := c.Coords.ActiveSystem()
			b.WriteString("|WCO:")
			for i, v := range c.Coords.WorkOffset(active) {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
			}
		}
		if ovr {
			b.WriteString("|Ov:100,100,100")
		}
		b.WriteByte('>')
		log.StringTo(ch, b.String())
	}
}

type notifier interface {
	TakeNotifications() (wco, ovr bool)
}

func takeNotifications(ch channel.Channel) (bool, bool) {
	if n, ok := ch.(notifier); ok {
		return n.TakeNotifications()
	}
	return false, false
}
