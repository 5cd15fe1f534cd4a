// Cartesian kinematics: axes map directly to motors.
package kinematics

import "cnc-dispatch-go/pkg/axes"

// Cartesian implements the direct axis-to-motor mapping.
type Cartesian struct {
	held axes.Mask
}

// NewCartesian creates a cartesian kinematics instance.
func NewCartesian() *Cartesian {
	return &Cartesian{}
}

// Name returns the kinematic type name.
func (c *Cartesian) Name() string {
	return "cartesian"
}

// CartesianToMotors maps each axis position straight to its motor.
func (c *Cartesian) CartesianToMotors(cartesian []float64) []float64 {
	motors := make([]float64, len(cartesian))
	copy(motors, cartesian)
	return motors
}

// MotorsToCartesian is the inverse direct mapping.
func (c *Cartesian) MotorsToCartesian(motors []float64) []float64 {
	cartesian := make([]float64, len(motors))
	copy(cartesian, motors)
	return cartesian
}

// CanHome allows any axis combination; cartesian axes are independent.
func (c *Cartesian) CanHome(request axes.Mask) bool {
	return true
}

// HomingMove moves exactly the requested axes.
func (c *Cartesian) HomingMove(request axes.Mask) axes.Mask {
	return request
}

// ReleaseMotors releases everything not held by a hard limit.
func (c *Cartesian) ReleaseMotors(motors, hardLimits axes.Mask) {
	c.held = motors & hardLimits
}

// Held returns the motors still locked out, for diagnostics.
func (c *Cartesian) Held() axes.Mask {
	return c.held
}
