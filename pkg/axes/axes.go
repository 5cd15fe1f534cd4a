// Package axes models the machine's axis set: axis and motor bit masks,
// axis-letter parsing, and the per-axis homing configuration consumed by
// the homing orchestrator.
package axes

import "strings"

// MaxAxes is the largest supported axis count.
const MaxAxes = 6

// Letters holds the canonical axis letters in axis order.
const Letters = "XYZABC"

// Mask is a bit set over axes, or over motors when produced by MotorBit.
type Mask uint32

// AllCycles is the sentinel request meaning "run every configured homing
// cycle" rather than a specific axis set.
const AllCycles Mask = 0

// BitToMask returns the mask with only the given axis bit set.
func BitToMask(axis int) Mask {
	return 1 << uint(axis)
}

// Has reports whether the axis bit is set.
func (m Mask) Has(axis int) bool {
	return m&BitToMask(axis) != 0
}

// MotorBit returns the bit position for a motor. Primary motors occupy
// the low half of the mask, ganged secondary motors the high half.
func MotorBit(axis, motor int) int {
	if motor != 0 {
		return axis + 16
	}
	return axis
}

// NamesToMask parses an axis-letter string like "XZ" into a mask. It
// returns false if any character is not a recognized axis letter.
func NamesToMask(s string, numAxes int) (Mask, bool) {
	var m Mask
	for _, c := range strings.ToUpper(s) {
		idx := strings.IndexRune(Letters[:numAxes], c)
		if idx < 0 {
			return 0, false
		}
		m |= BitToMask(idx)
	}
	return m, true
}

// String renders the mask as axis letters, e.g. "XZ".
func (m Mask) String() string {
	var sb strings.Builder
	for i := 0; i < MaxAxes; i++ {
		if m.Has(i) {
			sb.WriteByte(Letters[i])
		}
	}
	return sb.String()
}

// HomingConfig is the homing portion of one axis's configuration.
type HomingConfig struct {
	// Cycle assigns the axis to a numbered homing cycle. Zero means the
	// axis does not participate in any cycle.
	Cycle int

	// AllowSingleAxis permits homing this axis on its own via $H<axis>.
	AllowSingleAxis bool

	// Positive homes toward the positive end of travel.
	Positive bool
}

// AxisConfig is one configured axis.
type AxisConfig struct {
	// Motors is the number of motors driving the axis (1 or 2).
	Motors int

	// Homing is nil when the axis has no homing switch.
	Homing *HomingConfig

	// HardLimits is true when limit switches stop motion directly.
	HardLimits bool
}

// Axes is the machine's configured axis set.
type Axes struct {
	// NumberAxis is the count of configured axes.
	NumberAxis int

	// Axis holds per-axis configuration, indexed by axis number.
	Axis []*AxisConfig

	// SharedDisable is true when all steppers share one disable pin, in
	// which case per-axis enable/disable is impossible.
	SharedDisable bool
}

// Name returns the letter for an axis number.
func (a *Axes) Name(axis int) byte {
	return Letters[axis]
}

// HomingMask returns the set of axes that have homing configured.
func (a *Axes) HomingMask() Mask {
	var m Mask
	for i := 0; i < a.NumberAxis; i++ {
		if ac := a.Axis[i]; ac != nil && ac.Homing != nil {
			m |= BitToMask(i)
		}
	}
	return m
}

// CycleMask returns the axes assigned to a numbered homing cycle.
func (a *Axes) CycleMask(cycle int) Mask {
	var m Mask
	for i := 0; i < a.NumberAxis; i++ {
		if ac := a.Axis[i]; ac != nil && ac.Homing != nil && ac.Homing.Cycle == cycle {
			m |= BitToMask(i)
		}
	}
	return m
}

// HardLimitMask returns the set of axes with hard limits enabled.
func (a *Axes) HardLimitMask() Mask {
	var m Mask
	for i := 0; i < a.NumberAxis; i++ {
		if ac := a.Axis[i]; ac != nil && ac.HardLimits {
			m |= BitToMask(i)
		}
	}
	return m
}

// MotorMask returns the set of configured motor bits across all axes.
func (a *Axes) MotorMask() Mask {
	var m Mask
	for i := 0; i < a.NumberAxis; i++ {
		ac := a.Axis[i]
		if ac == nil {
			continue
		}
		m |= BitToMask(MotorBit(i, 0))
		if ac.Motors > 1 {
			m |= BitToMask(MotorBit(i, 1))
		}
	}
	return m
}
