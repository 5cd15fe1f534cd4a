package channel

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
)

// WSChannel is a channel over a websocket connection, so web UIs reach
// the same dispatcher as serial clients. Each text message carries raw
// protocol bytes; line assembly and realtime interception behave as on
// a serial channel.
type WSChannel struct {
	Base
	conn *websocket.Conn
	asm  *assembler

	in      chan []byte
	pending []byte

	writeMu sync.Mutex
	stop    chan struct{}
	once    sync.Once
}

// NewWSChannel wraps an accepted websocket connection. The read pump
// starts immediately; call Run to begin dispatching lines.
func NewWSChannel(name string, conn *websocket.Conn, events *event.Pump, handler LineHandler) *WSChannel {
	c := &WSChannel{
		Base: NewBase(name),
		conn: conn,
		in:   make(chan []byte, 64),
		stop: make(chan struct{}),
	}
	c.asm = newAssembler(c, events, handler)
	go c.readPump()
	return c
}

// readPump moves frames from the socket into the inbound queue.
func (c *WSChannel) readPump() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("%s: read: %v", c.Name(), err)
			}
			return
		}
		select {
		case c.in <- data:
		case <-c.stop:
			return
		}
	}
}

// Write sends raw bytes as one text frame.
func (c *WSChannel) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.stop:
		return 0, ErrClosed
	default:
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString sends a string as one text frame.
func (c *WSChannel) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// TimedRead reads queued inbound bytes, waiting at most timeout.
func (c *WSChannel) TimedRead(p []byte, timeout time.Duration) (int, error) {
	if len(c.pending) == 0 {
		select {
		case data, ok := <-c.in:
			if !ok {
				return 0, ErrClosed
			}
			c.pending = data
		case <-time.After(timeout):
			return 0, nil
		case <-c.stop:
			return 0, ErrClosed
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Run assembles command lines from inbound frames until Close. While
// paused, frames stay queued for TimedRead.
func (c *WSChannel) Run() {
	buf := make([]byte, 256)
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
		n, err := c.TimedRead(buf, 50*time.Millisecond)
		if err != nil {
			return
		}
		c.asm.feed(buf[:n])
	}
}

// Close shuts the connection down.
func (c *WSChannel) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.conn.Close()
	})
}
