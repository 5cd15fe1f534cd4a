// Package control implements the machine's real-time control path: the
// physical control-pin block and the event core that services status
// queries, holds, resets and alarms posted while dispatch blocks.
package control

import (
	"strings"
	"sync"
)

// Pin identifies one control input.
type Pin int

const (
	PinSafetyDoor Pin = iota
	PinReset
	PinFeedHold
	PinCycleStart
	PinEStop
)

var pinNames = map[Pin]string{
	PinSafetyDoor: "Door",
	PinReset:      "Reset",
	PinFeedHold:   "FeedHold",
	PinCycleStart: "CycleStart",
	PinEStop:      "EStop",
}

// Pins tracks the control input block. Hardware drivers call Set when
// a pin changes; dispatch reads the aggregate conditions.
type Pins struct {
	mu     sync.Mutex
	active map[Pin]bool
}

// NewPins returns a pin block with everything inactive.
func NewPins() *Pins {
	return &Pins{active: make(map[Pin]bool)}
}

// Set records a pin state change.
func (p *Pins) Set(pin Pin, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[pin] = active
}

// Get reports one pin's state.
func (p *Pins) Get(pin Pin) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[pin]
}

// SafetyDoorAjar reports whether the safety door switch is open.
func (p *Pins) SafetyDoorAjar() bool {
	return p.Get(PinSafetyDoor)
}

// Stuck reports whether any control pin is active; a pin held active
// blocks alarm unlock because releasing it may start motion.
func (p *Pins) Stuck() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, on := range p.active {
		if on {
			return true
		}
	}
	return false
}

// PinsBlockUnlock reports whether active pins forbid leaving alarm.
func (p *Pins) PinsBlockUnlock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[PinReset] || p.active[PinEStop] || p.active[PinSafetyDoor]
}

// ReportStatus names the active pins.
func (p *Pins) ReportStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for pin := PinSafetyDoor; pin <= PinEStop; pin++ {
		if p.active[pin] {
			names = append(names, pinNames[pin])
		}
	}
	return strings.Join(names, ",")
}
