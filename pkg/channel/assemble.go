package channel

import (
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
)

// assembler turns a byte stream into command lines, intercepting
// realtime control characters along the way. It is used by every
// stream-style channel implementation.
type assembler struct {
	owner   Channel
	events  *event.Pump
	handler LineHandler

	line     []byte
	overflow bool
}

func newAssembler(owner Channel, events *event.Pump, handler LineHandler) *assembler {
	return &assembler{owner: owner, events: events, handler: handler}
}

func (a *assembler) feed(data []byte) {
	for _, b := range data {
		a.feedByte(b)
	}
}

func (a *assembler) feedByte(b byte) {
	switch b {
	case rtStatusReport:
		a.events.Post(event.Event{Kind: event.StatusReport})
	case rtFeedHold:
		a.events.Post(event.Event{Kind: event.FeedHold})
	case rtCycleStart:
		a.events.Post(event.Event{Kind: event.CycleStart})
	case rtReset:
		a.events.Post(event.Event{Kind: event.Reset})
	case '\r':
		// Swallowed; lines end on \n.
	case '\n':
		line := string(a.line)
		a.line = a.line[:0]
		if a.overflow {
			a.overflow = false
			log.ErrorTo(a.owner, "Line exceeded %d characters", maxLineLen)
			return
		}
		if a.handler != nil {
			a.handler(line, a.owner)
		}
	default:
		if len(a.line) >= maxLineLen {
			a.overflow = true
			return
		}
		a.line = append(a.line, b)
	}
}
