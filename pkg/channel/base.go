package channel

import (
	"sync"
	"sync/atomic"
	"time"
)

// Base carries the bookkeeping every channel implementation shares:
// pause state, auto-report interval, and pending notification flags.
// Embed it and provide the I/O methods.
type Base struct {
	name string

	paused atomic.Bool

	mu             sync.Mutex
	reportInterval time.Duration
	wantWco        bool
	wantOvr        bool
}

// NewBase returns a Base with the given diagnostic name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the channel name.
func (b *Base) Name() string {
	return b.name
}

// Pause stops normal input polling.
func (b *Base) Pause() {
	b.paused.Store(true)
}

// Resume restarts normal input polling.
func (b *Base) Resume() {
	b.paused.Store(false)
}

// Paused reports whether input polling is paused.
func (b *Base) Paused() bool {
	return b.paused.Load()
}

// ReportInterval returns the auto-report interval.
func (b *Base) ReportInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportInterval
}

// SetReportInterval changes the auto-report interval. Intervals below
// 50ms (other than zero, which turns auto reporting off) are clamped.
func (b *Base) SetReportInterval(d time.Duration) time.Duration {
	const minInterval = 50 * time.Millisecond
	if d != 0 && d < minInterval {
		d = minInterval
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reportInterval = d
	return d
}

// NotifyWco flags the next report to include the work coordinate offset.
func (b *Base) NotifyWco() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wantWco = true
}

// NotifyOvr flags the next report to include override values.
func (b *Base) NotifyOvr() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wantOvr = true
}

// TakeNotifications returns and clears the pending notification flags.
// The status reporter calls this when building a report.
func (b *Base) TakeNotifications() (wco, ovr bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wco, ovr = b.wantWco, b.wantOvr
	b.wantWco, b.wantOvr = false, false
	return wco, ovr
}
