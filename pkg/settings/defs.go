package settings

import (
	"strconv"

	"cnc-dispatch-go/pkg/status"
)

// ValidateBool accepts the usual boolean spellings.
func ValidateBool(v string) status.Code {
	switch v {
	case "true", "false", "0", "1", "on", "off", "yes", "no":
		return status.Ok
	}
	return status.InvalidValue
}

// ValidateIntRange returns a validator for a bounded integer.
func ValidateIntRange(min, max int) ValidateFunc {
	return func(v string) status.Code {
		n, err := strconv.Atoi(v)
		if err != nil {
			return status.BadNumberFormat
		}
		if n < min || n > max {
			return status.NumberRange
		}
		return status.Ok
	}
}

// ValidateHostname accepts letters, digits and dashes.
func ValidateHostname(v string) status.Code {
	if v == "" || len(v) > 32 {
		return status.InvalidValue
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		ok := c == '-' || (c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			return status.InvalidValue
		}
	}
	return status.Ok
}

// RegisterStandard installs the flat settings every machine carries:
// the startup lines, the build info string, and the network identity.
func RegisterStandard(reg *Registry) {
	reg.MustAddSetting(NewSetting(SettingSpec{
		Name:       StartupLine0,
		Permission: UserReadWrite,
		Guard:      IdleOrAlarm,
		LegacyName: "N0",
		Kind:       KindGeneric,
		Default:    "",
	}))
	reg.MustAddSetting(NewSetting(SettingSpec{
		Name:       StartupLine1,
		Permission: UserReadWrite,
		Guard:      IdleOrAlarm,
		LegacyName: "N1",
		Kind:       KindGeneric,
		Default:    "",
	}))
	reg.MustAddSetting(NewSetting(SettingSpec{
		Name:       "Firmware/Build",
		Permission: AdminOnlyWrite,
		Guard:      AnyState,
		Kind:       KindGeneric,
		Default:    "",
	}))
	reg.MustAddSetting(NewSetting(SettingSpec{
		Name:       "Hostname",
		Permission: AdminOnlyWrite,
		Guard:      IdleOrAlarm,
		Kind:       KindWeb,
		Default:    "cncd",
		Validate:   ValidateHostname,
	}))
	reg.MustAddSetting(NewSetting(SettingSpec{
		Name:       "Sleep/Enable",
		Permission: UserReadWrite,
		Guard:      NotCycleOrHold,
		Kind:       KindGeneric,
		Default:    "true",
		Validate:   ValidateBool,
	}))
}
