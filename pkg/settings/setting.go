package settings

import "cnc-dispatch-go/pkg/status"

// Kind classifies where a Setting's value lives and how it is listed.
type Kind int

const (
	// KindGrbl settings carry a numeric legacy name and appear in the
	// compatible settings listing.
	KindGrbl Kind = iota

	// KindGeneric settings live in non-volatile storage.
	KindGeneric

	// KindPin settings describe pin assignments; their values are
	// excluded from the plain listings.
	KindPin

	// KindWeb settings belong to the web UI layer.
	KindWeb
)

// ValidateFunc checks a candidate value before it is stored.
type ValidateFunc func(value string) status.Code

// FormatFunc renders a stored value for compatible (legacy) display.
type FormatFunc func(value string) string

// Setting is a persistent named value.
type Setting struct {
	Entry

	kind         Kind
	defaultValue string
	value        string
	validate     ValidateFunc
	compat       FormatFunc
}

// SettingSpec collects the registration parameters for a Setting.
type SettingSpec struct {
	Name        string
	LegacyName  string
	Permission  Permission
	Guard       *StateGuard
	Description string
	Kind        Kind
	Default     string
	Validate    ValidateFunc
	Compat      FormatFunc
}

// NewSetting builds a Setting from its spec. The current value starts
// at the default until Load pulls the stored one.
func NewSetting(spec SettingSpec) *Setting {
	return &Setting{
		Entry:        NewEntry(spec.Name, spec.LegacyName, spec.Permission, spec.Guard, spec.Description),
		kind:         spec.Kind,
		defaultValue: spec.Default,
		value:        spec.Default,
		validate:     spec.Validate,
		compat:       spec.Compat,
	}
}

// Kind returns the setting's kind.
func (s *Setting) Kind() Kind { return s.kind }

// StringValue returns the current value.
func (s *Setting) StringValue() string { return s.value }

// DefaultString returns the default value.
func (s *Setting) DefaultString() string { return s.defaultValue }

// IsDefault reports whether the current value equals the default.
func (s *Setting) IsDefault() bool { return s.value == s.defaultValue }

// CompatibleValue returns the value rendered for legacy display.
func (s *Setting) CompatibleValue() string {
	if s.compat != nil {
		return s.compat(s.value)
	}
	return s.value
}

// SetStringValue validates and stores a new value.
func (s *Setting) SetStringValue(v string) status.Code {
	if s.validate != nil {
		if code := s.validate(v); !code.IsOk() {
			return code
		}
	}
	s.value = v
	return status.Ok
}

// SetDefault resets the value to the default.
func (s *Setting) SetDefault() {
	s.value = s.defaultValue
}

// Load pulls the stored value, keeping the default when storage has
// none or the stored value no longer validates.
func (s *Setting) Load(store Storage) {
	if store == nil {
		return
	}
	v, ok := store.Get(s.Name())
	if !ok {
		return
	}
	if s.validate != nil && !s.validate(v).IsOk() {
		return
	}
	s.value = v
}

// Save writes the current value to storage.
func (s *Setting) Save(store Storage) error {
	if store == nil {
		return nil
	}
	return store.Put(s.Name(), s.value)
}
