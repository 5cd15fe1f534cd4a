package settings

import (
	"strconv"
	"testing"

	"cnc-dispatch-go/pkg/status"
)

func validateBool(v string) status.Code {
	switch v {
	case "true", "false", "0", "1", "on", "off":
		return status.Ok
	}
	return status.InvalidValue
}

func TestSettingValueLifecycle(t *testing.T) {
	s := NewSetting(SettingSpec{
		Name:     "Report/Inches",
		Kind:     KindGrbl,
		Default:  "false",
		Validate: validateBool,
	})
	if !s.IsDefault() || s.StringValue() != "false" {
		t.Fatal("new setting does not start at its default")
	}
	if code := s.SetStringValue("banana"); code != status.InvalidValue {
		t.Errorf("invalid value accepted: %v", code)
	}
	if s.StringValue() != "false" {
		t.Error("rejected value replaced the current one")
	}
	if code := s.SetStringValue("true"); !code.IsOk() {
		t.Fatalf("valid value rejected: %v", code)
	}
	if s.IsDefault() {
		t.Error("IsDefault true after change")
	}
	s.SetDefault()
	if s.StringValue() != "false" {
		t.Error("SetDefault did not restore the default")
	}
}

func TestSettingLoad(t *testing.T) {
	store := NewMemStorage()
	s := NewSetting(SettingSpec{
		Name:     "Report/Inches",
		Kind:     KindGrbl,
		Default:  "false",
		Validate: validateBool,
	})

	// Missing key keeps the default.
	s.Load(store)
	if s.StringValue() != "false" {
		t.Error("Load changed value for a missing key")
	}

	// Invalid stored value keeps the default.
	store.Put(s.Name(), "garbage")
	s.Load(store)
	if s.StringValue() != "false" {
		t.Error("Load accepted an invalid stored value")
	}

	store.Put(s.Name(), "true")
	s.Load(store)
	if s.StringValue() != "true" {
		t.Error("Load did not pull the stored value")
	}
}

func TestSettingSaveRoundTrip(t *testing.T) {
	store := NewMemStorage()
	s := NewSetting(SettingSpec{Name: "Planner/Junction", Default: "0.01"})
	s.SetStringValue("0.05")
	if err := s.Save(store); err != nil {
		t.Fatal(err)
	}
	v, ok := store.Get("Planner/Junction")
	if !ok || v != "0.05" {
		t.Errorf("stored value = %q, %v", v, ok)
	}
}

func TestSettingCompatibleValue(t *testing.T) {
	s := NewSetting(SettingSpec{
		Name:       "Report/Inches",
		LegacyName: "13",
		Default:    "false",
		Compat: func(v string) string {
			if v == "true" {
				return "1"
			}
			return "0"
		},
	})
	if got := s.CompatibleValue(); got != "0" {
		t.Errorf("CompatibleValue() = %q, want 0", got)
	}
	s.SetStringValue("true")
	if got := s.CompatibleValue(); got != "1" {
		t.Errorf("CompatibleValue() = %q, want 1", got)
	}

	plain := NewSetting(SettingSpec{Name: "Plain", Default: "42"})
	if got := plain.CompatibleValue(); got != "42" {
		t.Errorf("CompatibleValue() without formatter = %q", got)
	}
}

func TestMemStorage(t *testing.T) {
	store := NewMemStorage()
	for i := 0; i < 5; i++ {
		store.Put("key"+strconv.Itoa(i), "v")
	}
	used, capacity := store.Stats()
	if used == 0 || capacity == 0 || used > capacity {
		t.Errorf("Stats() = %d, %d", used, capacity)
	}
	if err := store.Erase(); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("key0"); ok {
		t.Error("Erase left keys behind")
	}
}
