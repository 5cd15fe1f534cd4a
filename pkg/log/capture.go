package log

import (
	"strings"
	"sync"
)

// Capture retains early log output so it can be replayed later, e.g.
// to a channel that connected after boot. Once the limit is reached
// further writes are dropped.
type Capture struct {
	mu    sync.Mutex
	buf   strings.Builder
	limit int
}

// NewCapture returns a capture that keeps at most limit bytes.
func NewCapture(limit int) *Capture {
	if limit <= 0 {
		limit = 16 * 1024
	}
	return &Capture{limit: limit}
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if room := c.limit - c.buf.Len(); room > 0 {
		if len(p) > room {
			p = p[:room]
		}
		c.buf.Write(p)
	}
	return len(p), nil
}

// Dump replays the captured output line by line.
func (c *Capture) Dump(out LineWriter) {
	c.mu.Lock()
	text := c.buf.String()
	c.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		StringTo(out, line)
	}
}
