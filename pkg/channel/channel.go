// Package channel defines the I/O channel capability contract consumed
// by the dispatch engine, plus the process-wide channel registry and the
// raw port abstraction underneath line-oriented channels.
package channel

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrClosed reports a read from a closed channel or port.
var ErrClosed = errors.New("channel: closed")

// Channel is an I/O endpoint that submits command lines and receives
// reports. Dispatch writes results and diagnostics back to the channel
// the line arrived on.
type Channel interface {
	// Name returns a stable name for diagnostics and lookup.
	Name() string

	// Write sends raw bytes to the peer.
	Write(p []byte) (int, error)

	// WriteString sends a string to the peer.
	WriteString(s string) (int, error)

	// TimedRead reads up to len(p) bytes, waiting at most timeout.
	// A timeout returns (0, nil); the passthrough relay treats zero
	// bytes as inactivity rather than failure.
	TimedRead(p []byte, timeout time.Duration) (int, error)

	// Pause stops normal input polling; bytes are no longer consumed as
	// command lines until Resume.
	Pause()

	// Resume restarts normal input polling.
	Resume()

	// ReportInterval returns the auto status-report interval, zero when
	// auto reporting is off.
	ReportInterval() time.Duration

	// SetReportInterval changes the auto-report interval and returns
	// the value actually applied.
	SetReportInterval(d time.Duration) time.Duration

	// NotifyWco requests that the next status report include the work
	// coordinate offset.
	NotifyWco()

	// NotifyOvr requests that the next status report include the
	// override values.
	NotifyOvr()
}

// Port is the raw byte device that may sit underneath a channel. The
// passthrough bridge relays against ports directly.
type Port interface {
	// Name returns the configured port name.
	Name() string

	// Write sends raw bytes.
	Write(p []byte) (int, error)

	// TimedRead reads up to len(p) bytes, waiting at most timeout.
	TimedRead(p []byte, timeout time.Duration) (int, error)

	// PassthroughBaud returns the configured passthrough baud rate, or
	// zero when passthrough is not enabled for this port.
	PassthroughBaud() int

	// EnterPassthrough switches the port to its passthrough baud and
	// raw relay mode.
	EnterPassthrough() error

	// ExitPassthrough restores the port's normal operating mode.
	ExitPassthrough()
}

// PortHolder is implemented by channels that wrap a Port. The bridge
// uses it to find and pause the wrapper of the target port.
type PortHolder interface {
	Port() Port
}

// Registry is the set of live channels. Channels register at startup or
// on connect and unregister on disconnect.
type Registry struct {
	mu   sync.Mutex
	list []Channel
}

// NewRegistry returns an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a channel.
func (r *Registry) Add(c Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, c)
}

// Remove unregisters a channel.
func (r *Registry) Remove(c Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.list {
		if have == c {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return
		}
	}
}

// Find returns the channel with the given name, or nil.
func (r *Registry) Find(name string) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// All returns a snapshot of the registered channels.
func (r *Registry) All() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Channel, len(r.list))
	copy(out, r.list)
	return out
}

// WrapperOf returns the registered channel wrapping the given port, or
// nil when the port has no channel on top of it.
func (r *Registry) WrapperOf(p Port) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if h, ok := c.(PortHolder); ok && h.Port() == p {
			return c
		}
	}
	return nil
}

// Broadcast writes a line to every registered channel.
func (r *Registry) Broadcast(s string) {
	for _, c := range r.All() {
		c.WriteString(s)
	}
}

// NotifyWcoAll flags every channel's next report to include the work
// coordinate offset.
func (r *Registry) NotifyWcoAll() {
	for _, c := range r.All() {
		c.NotifyWco()
	}
}

// PortSet is the list of configured secondary ports.
type PortSet struct {
	mu    sync.Mutex
	ports []Port
}

// NewPortSet returns an empty port set.
func NewPortSet(ports ...Port) *PortSet {
	return &PortSet{ports: ports}
}

// Add appends a port.
func (s *PortSet) Add(p Port) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ports = append(s.ports, p)
}

// Find returns the port with the given name, or nil.
func (s *PortSet) Find(name string) Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.ports {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// FirstPassthrough returns the first port with passthrough enabled, or
// nil when none is eligible.
func (s *PortSet) FirstPassthrough() Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.ports {
		if p.PassthroughBaud() != 0 {
			return p
		}
	}
	return nil
}
