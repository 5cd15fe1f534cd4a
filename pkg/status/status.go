// Package status defines the result codes returned by the command and
// settings dispatch path. Codes are surfaced to the caller on the wire,
// so the numeric values are stable.
package status

import "fmt"

// Code is a dispatch result code. The zero value is Ok.
type Code int

const (
	Ok                    Code = 0
	ExpectedCommandLetter Code = 1
	BadNumberFormat       Code = 2
	InvalidStatement      Code = 3
	NegativeValue         Code = 4
	SettingDisabled       Code = 5
	IdleError             Code = 8
	SystemGcLock          Code = 9
	SoftLimit             Code = 10
	Overflow              Code = 11
	CheckDoor             Code = 13
	LineLengthExceeded    Code = 14
	TravelExceeded        Code = 15
	InvalidJogCommand     Code = 16
	NumberRange           Code = 17
	InvalidValue          Code = 18
	GcodeError            Code = 20
	AuthenticationFailed  Code = 110
	AnotherInterfaceBusy  Code = 120
	CheckControlPins      Code = 121
	JogCancelled          Code = 130
	SingleAxisHoming      Code = 131
	ConfigurationInvalid  Code = 152
	Reset                 Code = 170
)

// Names maps every known code to its display name, in the form used by
// the $E listing.
var Names = map[Code]string{
	Ok:                    "No error",
	ExpectedCommandLetter: "Expected GCode command letter",
	BadNumberFormat:       "Bad GCode number format",
	InvalidStatement:      "Invalid $ statement",
	NegativeValue:         "Negative value",
	SettingDisabled:       "Setting disabled",
	IdleError:             "Not idle",
	SystemGcLock:          "System GC lock",
	SoftLimit:             "Soft limit error",
	Overflow:              "Line overflow",
	CheckDoor:             "Check door",
	LineLengthExceeded:    "Startup line too long",
	TravelExceeded:        "Max travel exceeded during jog",
	InvalidJogCommand:     "Invalid jog command",
	NumberRange:           "Number out of range for setting",
	InvalidValue:          "Invalid value for setting",
	GcodeError:            "Unsupported GCode command",
	AuthenticationFailed:  "Authentication failed",
	AnotherInterfaceBusy:  "Another interface is busy",
	CheckControlPins:      "Check control pins",
	JogCancelled:          "Jog cancelled",
	SingleAxisHoming:      "Single axis homing not allowed",
	ConfigurationInvalid:  "Configuration is invalid",
	Reset:                 "Reset asserted",
}

// String returns the display name of the code, or a numeric fallback for
// codes with no registered name.
func (c Code) String() string {
	if name, ok := Names[c]; ok {
		return name
	}
	return fmt.Sprintf("error %d", int(c))
}

// Error implements the error interface. Ok is still a valid error value;
// use IsOk or compare against Ok before treating a Code as a failure.
func (c Code) Error() string {
	return c.String()
}

// IsOk reports whether the code indicates success.
func (c Code) IsOk() bool {
	return c == Ok
}

// Name returns the display name for a numeric code received from a
// caller, and whether that code is known.
func Name(n int) (string, bool) {
	name, ok := Names[Code(n)]
	return name, ok
}
