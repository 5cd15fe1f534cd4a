package channel

import (
	"time"

	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
)

// Realtime control characters, intercepted before line assembly. These
// are the characters the settings display path percent-encodes.
const (
	rtStatusReport = '?'
	rtFeedHold     = '!'
	rtCycleStart   = '~'
	rtReset        = 0x18 // ctrl-x
)

// maxLineLen bounds an assembled command line.
const maxLineLen = 256

// LineHandler receives each complete command line read from a channel.
type LineHandler func(line string, ch Channel)

// PortChannel is a line-oriented channel on top of a raw Port. It polls
// the port for input, intercepts realtime control characters, and hands
// completed lines to the dispatcher. While paused (passthrough), the
// poll loop leaves the port's bytes alone.
type PortChannel struct {
	Base
	port Port
	asm  *assembler
	stop chan struct{}
}

// NewPortChannel wraps a port in a line-oriented channel.
func NewPortChannel(name string, port Port, events *event.Pump, handler LineHandler) *PortChannel {
	c := &PortChannel{
		Base: NewBase(name),
		port: port,
		stop: make(chan struct{}),
	}
	c.asm = newAssembler(c, events, handler)
	return c
}

// Port returns the wrapped raw port.
func (c *PortChannel) Port() Port {
	return c.port
}

// Write sends raw bytes to the port.
func (c *PortChannel) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// WriteString sends a string to the port.
func (c *PortChannel) WriteString(s string) (int, error) {
	return c.port.Write([]byte(s))
}

// TimedRead reads raw bytes from the port. Used by the passthrough
// bridge while normal polling is paused.
func (c *PortChannel) TimedRead(p []byte, timeout time.Duration) (int, error) {
	return c.port.TimedRead(p, timeout)
}

// Run polls the port until Close, assembling lines and dispatching
// them. Call it on its own goroutine.
func (c *PortChannel) Run() {
	buf := make([]byte, 64)
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		if c.Paused() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		n, err := c.port.TimedRead(buf, 50*time.Millisecond)
		if err != nil {
			if err != ErrClosed {
				log.Error("%s: read: %v", c.Name(), err)
			}
			return
		}
		c.asm.feed(buf[:n])
	}
}

// Close stops the poll loop.
func (c *PortChannel) Close() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}
