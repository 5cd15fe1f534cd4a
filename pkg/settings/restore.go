package settings

import "cnc-dispatch-go/pkg/log"

// RestoreFlag selects which subsets of persisted state a restore
// request resets. Flags combine.
type RestoreFlag uint8

const (
	// RestoreDefaults resets settings to their default values.
	RestoreDefaults RestoreFlag = 1 << iota

	// RestoreParameters resets coordinate-system offsets.
	RestoreParameters

	// RestoreWifi resets the non-web settings group. The group really
	// is every setting whose kind is NOT web; that is what shipped and
	// callers depend on it.
	RestoreWifi

	// RestoreStartupLines extends RestoreDefaults to the startup-line
	// settings, which are otherwise spared.
	RestoreStartupLines

	// RestoreAll combines every category.
	RestoreAll = RestoreDefaults | RestoreParameters | RestoreWifi
)

// RestoreTokens maps restore command arguments to category flags.
var RestoreTokens = map[string]RestoreFlag{
	"$":        RestoreDefaults,
	"settings": RestoreDefaults,
	"#":        RestoreParameters,
	"gcode":    RestoreParameters,
	"*":        RestoreAll,
	"all":      RestoreAll,
	"@":        RestoreWifi,
	"wifi":     RestoreWifi,
}

// The startup-line settings spared by a plain defaults restore.
const (
	StartupLine0 = "Line0"
	StartupLine1 = "Line1"
)

// ParameterStore is the coordinate-offset state a Parameters restore
// resets. It lives with the G-code engine; dispatch only consumes this
// narrow surface.
type ParameterStore interface {
	// RestoreDefaults resets every coordinate system's offsets and
	// re-selects the active one, forcing the next report to include
	// the work coordinate offset.
	RestoreDefaults()
}

// Restore resets the selected categories.
func Restore(reg *Registry, flags RestoreFlag, params ParameterStore) {
	if flags&RestoreWifi != 0 {
		for _, s := range reg.Settings() {
			if s.Kind() != KindWeb {
				s.SetDefault()
			}
		}
	}

	if flags&RestoreDefaults != 0 {
		restoreStartup := flags&RestoreStartupLines != 0
		for _, s := range reg.Settings() {
			if s.Description() != "" {
				continue
			}
			name := s.Name()
			if restoreStartup || (name != StartupLine0 && name != StartupLine1) {
				s.SetDefault()
			}
		}
		log.Info("Settings reset done")
	}

	if flags&RestoreParameters != 0 {
		if params != nil {
			params.RestoreDefaults()
		}
		log.Info("Position offsets reset done")
	}
}
