// Package coords holds the machine's persistent coordinate state: the
// work coordinate systems, the predefined positions, the G92 offset,
// the tool length offset and the last probe result.
package coords

import (
	"strconv"
	"strings"
	"sync"

	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/log"
)

// WorkSystems is the number of selectable work coordinate systems,
// G54 through G59.
const WorkSystems = 6

// SystemName returns the G-code name of a work system index.
func SystemName(i int) string {
	return "G5" + string(rune('4'+i))
}

// Notifier is told when offsets change so the next status report can
// carry the fresh work coordinate offset.
type Notifier interface {
	NotifyWcoAll()
}

// Store is the coordinate state shared by the G-code engine and the
// command layer.
type Store struct {
	mu sync.Mutex

	numAxes int
	work    [WorkSystems][axes.MaxAxes]float64
	g28     [axes.MaxAxes]float64
	g30     [axes.MaxAxes]float64
	g92     [axes.MaxAxes]float64
	active  int
	tlo     float64

	probe   [axes.MaxAxes]float64
	probeOk bool

	notify Notifier
}

// NewStore returns a zeroed store with G54 active.
func NewStore(numAxes int, notify Notifier) *Store {
	if numAxes <= 0 || numAxes > axes.MaxAxes {
		numAxes = 3
	}
	return &Store{numAxes: numAxes, notify: notify}
}

// ActiveSystem returns the index of the selected work system.
func (c *Store) ActiveSystem() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SelectSystem selects a work system by index.
func (c *Store) SelectSystem(i int) bool {
	if i < 0 || i >= WorkSystems {
		return false
	}
	c.mu.Lock()
	c.active = i
	c.mu.Unlock()
	c.changed()
	return true
}

// WorkOffset returns a copy of a work system's offsets.
func (c *Store) WorkOffset(system int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, c.numAxes)
	copy(out, c.work[system][:c.numAxes])
	return out
}

// SetWorkOffset replaces a work system's offsets.
func (c *Store) SetWorkOffset(system int, offsets []float64) bool {
	if system < 0 || system >= WorkSystems {
		return false
	}
	c.mu.Lock()
	copy(c.work[system][:c.numAxes], offsets)
	c.mu.Unlock()
	c.changed()
	return true
}

// G92Offset returns a copy of the G92 offset.
func (c *Store) G92Offset() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, c.numAxes)
	copy(out, c.g92[:c.numAxes])
	return out
}

// SetG92Offset replaces the G92 offset.
func (c *Store) SetG92Offset(offsets []float64) {
	c.mu.Lock()
	copy(c.g92[:c.numAxes], offsets)
	c.mu.Unlock()
	c.changed()
}

// ClearG92 zeros the G92 offset.
func (c *Store) ClearG92() {
	c.mu.Lock()
	c.g92 = [axes.MaxAxes]float64{}
	c.mu.Unlock()
	c.changed()
}

// SetPredefined records a G28 or G30 position. second selects G30.
func (c *Store) SetPredefined(second bool, pos []float64) {
	c.mu.Lock()
	if second {
		copy(c.g30[:c.numAxes], pos)
	} else {
		copy(c.g28[:c.numAxes], pos)
	}
	c.mu.Unlock()
}

// ToolLengthOffset returns the current tool length offset.
func (c *Store) ToolLengthOffset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tlo
}

// SetToolLengthOffset sets the tool length offset.
func (c *Store) SetToolLengthOffset(v float64) {
	c.mu.Lock()
	c.tlo = v
	c.mu.Unlock()
	c.changed()
}

// RecordProbe stores the result of the last probe cycle.
func (c *Store) RecordProbe(pos []float64, ok bool) {
	c.mu.Lock()
	copy(c.probe[:c.numAxes], pos)
	c.probeOk = ok
	c.mu.Unlock()
}

// RestoreDefaults zeros every offset, reselects G54 and requests a
// work coordinate offset report.
func (c *Store) RestoreDefaults() {
	c.mu.Lock()
	for i := range c.work {
		c.work[i] = [axes.MaxAxes]float64{}
	}
	c.g28 = [axes.MaxAxes]float64{}
	c.g30 = [axes.MaxAxes]float64{}
	c.g92 = [axes.MaxAxes]float64{}
	c.tlo = 0
	c.active = 0
	c.probe = [axes.MaxAxes]float64{}
	c.probeOk = false
	c.mu.Unlock()
	c.changed()
}

func (c *Store) changed() {
	if c.notify != nil {
		c.notify.NotifyWcoAll()
	}
}

func formatAxes(vals []float64) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
	}
	return b.String()
}

// Report writes the G-code parameter listing: every work system, the
// predefined positions, the G92 offset, the tool length offset and the
// last probe result.
func (c *Store) Report(out log.LineWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < WorkSystems; i++ {
		log.StringTo(out, "["+SystemName(i)+":"+formatAxes(c.work[i][:c.numAxes])+"]")
	}
	log.StringTo(out, "[G28:"+formatAxes(c.g28[:c.numAxes])+"]")
	log.StringTo(out, "[G30:"+formatAxes(c.g30[:c.numAxes])+"]")
	log.StringTo(out, "[G92:"+formatAxes(c.g92[:c.numAxes])+"]")
	log.StringTo(out, "[TLO:"+strconv.FormatFloat(c.tlo, 'f', 3, 64)+"]")
	success := "0"
	if c.probeOk {
		success = "1"
	}
	log.StringTo(out, "[PRB:"+formatAxes(c.probe[:c.numAxes])+":"+success+"]")
}
