// Package event provides the real-time event pump. Status queries, feed
// hold, reset and alarm assertions can be posted from any goroutine; the
// dispatch goroutine drains them by calling Pump. Blocking operations
// (homing wait, passthrough relay) must call Pump on every iteration so
// asynchronous requests are not starved.
package event

import (
	"sync"

	"cnc-dispatch-go/pkg/alarm"
)

// Kind identifies a real-time event.
type Kind int

const (
	// StatusReport requests an immediate status report.
	StatusReport Kind = iota

	// FeedHold requests a feed hold.
	FeedHold

	// CycleStart requests resuming from a hold.
	CycleStart

	// Reset requests a soft reset of the control core.
	Reset

	// AlarmEvent asserts an alarm condition.
	AlarmEvent

	// SleepEvent requests the machine go to sleep.
	SleepEvent
)

// Event is one posted real-time event. Alarm carries the alarm cause for
// AlarmEvent; it is None otherwise.
type Event struct {
	Kind  Kind
	Alarm alarm.Alarm
}

// Handler processes one drained event. Handlers run on the goroutine
// that calls Pump.
type Handler func(Event)

// Pump is a single-consumer event queue.
type Pump struct {
	mu       sync.Mutex
	pending  []Event
	handlers []Handler
}

// NewPump returns an empty pump.
func NewPump() *Pump {
	return &Pump{}
}

// OnEvent registers a handler invoked for every drained event.
func (p *Pump) OnEvent(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

// Post queues an event. Safe to call from any goroutine, including the
// real-time path.
func (p *Pump) Post(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, ev)
}

// PostAlarm queues an alarm assertion.
func (p *Pump) PostAlarm(a alarm.Alarm) {
	p.Post(Event{Kind: AlarmEvent, Alarm: a})
}

// Pump drains all pending events in posting order, invoking the
// registered handlers for each. It returns the number of events handled.
func (p *Pump) Pump() int {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	handlers := p.handlers
	p.mu.Unlock()

	for _, ev := range batch {
		for _, h := range handlers {
			h(ev)
		}
	}
	return len(batch)
}

// Pending returns the number of queued events without draining them.
func (p *Pump) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
