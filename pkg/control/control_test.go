package control

import (
	"strings"
	"testing"

	"cnc-dispatch-go/pkg/alarm"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/coords"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/state"
)

func newCore(t *testing.T) (*Core, *channel.Pipe) {
	t.Helper()
	out := channel.NewPipe("test")
	reg := channel.NewRegistry()
	reg.Add(out)
	c := &Core{
		State:    state.NewHolder(state.Idle),
		Events:   event.NewPump(),
		Channels: reg,
	}
	c.Coords = coords.NewStore(3, reg)
	c.Attach()
	return c, out
}

func TestAlarmEvent(t *testing.T) {
	c, out := newCore(t)
	var got alarm.Alarm
	c.OnAlarm = func(a alarm.Alarm) { got = a }

	c.Events.PostAlarm(alarm.HardLimit)
	c.Events.Pump()

	if !c.State.Is(state.Alarm) {
		t.Error("alarm event did not enter the alarm state")
	}
	if got != alarm.HardLimit {
		t.Errorf("OnAlarm got %v", got)
	}
	if !strings.Contains(out.Output(), "ALARM:1") {
		t.Errorf("alarm not broadcast: %q", out.Output())
	}
}

func TestFeedHoldAndCycleStart(t *testing.T) {
	c, _ := newCore(t)
	c.State.Set(state.Cycle)

	c.Events.Post(event.Event{Kind: event.FeedHold})
	c.Events.Pump()
	if !c.State.Is(state.Hold) {
		t.Error("feed hold did not enter Hold")
	}

	c.Events.Post(event.Event{Kind: event.CycleStart})
	c.Events.Pump()
	if !c.State.Is(state.Cycle) {
		t.Error("cycle start did not resume")
	}

	// Feed hold is a no-op outside motion states.
	c.State.Set(state.Idle)
	c.Events.Post(event.Event{Kind: event.FeedHold})
	c.Events.Pump()
	if !c.State.Is(state.Idle) {
		t.Error("feed hold acted while idle")
	}
}

func TestResetKeepsConfigAlarm(t *testing.T) {
	c, _ := newCore(t)
	c.State.Set(state.Alarm)
	c.Events.Post(event.Event{Kind: event.Reset})
	c.Events.Pump()
	if !c.State.Is(state.Idle) {
		t.Error("reset did not clear the alarm")
	}

	c.State.Set(state.ConfigAlarm)
	c.Events.Post(event.Event{Kind: event.Reset})
	c.Events.Pump()
	if !c.State.Is(state.ConfigAlarm) {
		t.Error("reset cleared a configuration alarm")
	}
}

func TestStatusReport(t *testing.T) {
	c, out := newCore(t)
	c.Position = func() []float64 { return []float64{1, 2, 3} }

	c.Events.Post(event.Event{Kind: event.StatusReport})
	c.Events.Pump()
	if !strings.Contains(out.Output(), "<Idle|MPos:1.000,2.000,3.000|FS:0,0>") {
		t.Errorf("status report: %q", out.Output())
	}

	// A WCO request adds the offset once.
	out.ResetOutput()
	out.NotifyWco()
	c.Events.Post(event.Event{Kind: event.StatusReport})
	c.Events.Pump()
	if !strings.Contains(out.Output(), "|WCO:") {
		t.Errorf("WCO missing: %q", out.Output())
	}
	out.ResetOutput()
	c.Events.Post(event.Event{Kind: event.StatusReport})
	c.Events.Pump()
	if strings.Contains(out.Output(), "|WCO:") {
		t.Error("WCO repeated without a new request")
	}
}

func TestPins(t *testing.T) {
	p := NewPins()
	if p.Stuck() || p.SafetyDoorAjar() || p.PinsBlockUnlock() {
		t.Error("fresh pin block reports activity")
	}
	p.Set(PinFeedHold, true)
	if !p.Stuck() {
		t.Error("active pin not reported stuck")
	}
	if p.PinsBlockUnlock() {
		t.Error("feed hold should not block unlock")
	}
	p.Set(PinSafetyDoor, true)
	if !p.PinsBlockUnlock() || !p.SafetyDoorAjar() {
		t.Error("door pin not blocking")
	}
	status := p.ReportStatus()
	if !strings.Contains(status, "Door") || !strings.Contains(status, "FeedHold") {
		t.Errorf("ReportStatus = %q", status)
	}
}
