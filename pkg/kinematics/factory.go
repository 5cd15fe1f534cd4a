// Factory for creating kinematics instances from the configured name.
package kinematics

import (
	"fmt"
	"strings"
)

// Factory builds a kinematics instance.
type Factory func() Kinematics

var builders = map[string]Factory{
	"cartesian": func() Kinematics { return NewCartesian() },
	"corexy":    func() Kinematics { return NewCoreXY() },
}

// Register adds a factory for a kinematics name. Plugin geometries use
// this to join the closed set.
func Register(name string, f Factory) {
	builders[strings.ToLower(name)] = f
}

// New creates a kinematics instance for the configured name.
func New(name string) (Kinematics, error) {
	kinType := strings.ToLower(strings.TrimSpace(name))
	if kinType == "" {
		kinType = "cartesian"
	}
	f, ok := builders[kinType]
	if !ok {
		return nil, fmt.Errorf("unsupported kinematics type: %s", name)
	}
	return f(), nil
}
