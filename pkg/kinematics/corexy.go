// CoreXY kinematics: X and Y are driven by two coupled motors.
//
//	motor_a = x + y
//	motor_b = x - y
package kinematics

import "cnc-dispatch-go/pkg/axes"

// CoreXY implements the coupled-belt XY geometry. Axes beyond Y map
// directly to motors.
type CoreXY struct {
	held axes.Mask
}

// NewCoreXY creates a CoreXY kinematics instance.
func NewCoreXY() *CoreXY {
	return &CoreXY{}
}

// Name returns the kinematic type name.
func (c *CoreXY) Name() string {
	return "corexy"
}

// CartesianToMotors applies the CoreXY belt coupling to X and Y.
func (c *CoreXY) CartesianToMotors(cartesian []float64) []float64 {
	motors := make([]float64, len(cartesian))
	copy(motors, cartesian)
	if len(cartesian) >= 2 {
		motors[0] = cartesian[0] + cartesian[1]
		motors[1] = cartesian[0] - cartesian[1]
	}
	return motors
}

// MotorsToCartesian inverts the belt coupling.
func (c *CoreXY) MotorsToCartesian(motors []float64) []float64 {
	cartesian := make([]float64, len(motors))
	copy(cartesian, motors)
	if len(motors) >= 2 {
		cartesian[0] = (motors[0] + motors[1]) / 2
		cartesian[1] = (motors[0] - motors[1]) / 2
	}
	return cartesian
}

// CanHome refuses simultaneous X and Y homing; the coupled belts need
// the axes homed one at a time.
func (c *CoreXY) CanHome(request axes.Mask) bool {
	xy := axes.BitToMask(0) | axes.BitToMask(1)
	return request&xy != xy
}

// HomingMove expands an X or Y request to both coupled motors.
func (c *CoreXY) HomingMove(request axes.Mask) axes.Mask {
	xy := axes.BitToMask(0) | axes.BitToMask(1)
	if request&xy != 0 {
		return request | xy
	}
	return request
}

// ReleaseMotors releases everything not held by a hard limit.
func (c *CoreXY) ReleaseMotors(motors, hardLimits axes.Mask) {
	c.held = motors & hardLimits
}

// Held returns the motors still locked out, for diagnostics.
func (c *CoreXY) Held() axes.Mask {
	return c.held
}
