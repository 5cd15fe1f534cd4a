// Package kinematics provides the machine-geometry capability contract:
// mapping between cartesian axis space and motor space, plus the hooks
// the homing and unlock paths need. Implementations are selected by a
// factory keyed by the configured kinematics name.
package kinematics

import "cnc-dispatch-go/pkg/axes"

// Kinematics is the capability contract consumed by the dispatch engine.
// The geometry math itself lives behind this interface.
type Kinematics interface {
	// Name returns the kinematic type name (e.g., "cartesian", "corexy").
	Name() string

	// CartesianToMotors converts a cartesian target to per-motor
	// positions. Slices are indexed by axis/motor number.
	CartesianToMotors(cartesian []float64) []float64

	// MotorsToCartesian converts motor positions back to cartesian.
	MotorsToCartesian(motors []float64) []float64

	// CanHome reports whether the requested axis set can be homed
	// together under this geometry.
	CanHome(request axes.Mask) bool

	// HomingMove adjusts a homing axis request to the motor set that
	// must move for it.
	HomingMove(request axes.Mask) axes.Mask

	// ReleaseMotors clears motor lockouts after an alarm unlock. Motors
	// under hard limits stay held.
	ReleaseMotors(motors, hardLimits axes.Mask)
}
