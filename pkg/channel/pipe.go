package channel

import (
	"bytes"
	"sync"
	"time"
)

// Pipe is an in-memory channel. It backs startup-script execution and
// is the standard test double for dispatch paths: output is captured,
// input is injected with Feed.
type Pipe struct {
	Base

	mu  sync.Mutex
	out bytes.Buffer
	in  []byte
}

// NewPipe returns an in-memory channel with the given name.
func NewPipe(name string) *Pipe {
	return &Pipe{Base: NewBase(name)}
}

// Write captures output bytes.
func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

// WriteString captures output.
func (p *Pipe) WriteString(s string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.WriteString(s)
}

// Output returns everything written so far.
func (p *Pipe) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

// ResetOutput discards captured output.
func (p *Pipe) ResetOutput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.Reset()
}

// Feed injects bytes to be returned by TimedRead.
func (p *Pipe) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, b...)
}

// TimedRead returns injected bytes, or (0, nil) when none arrive within
// the timeout.
func (p *Pipe) TimedRead(buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		p.mu.Lock()
		if len(p.in) > 0 {
			n := copy(buf, p.in)
			p.in = p.in[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()
		if !time.Now().Before(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}
