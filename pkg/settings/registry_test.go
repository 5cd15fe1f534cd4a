package settings

import (
	"strings"
	"testing"

	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/status"
)

func noopAction(value *string, auth AuthLevel, out channel.Channel) status.Code {
	return status.Ok
}

func newTestSetting(name, legacy, def string) *Setting {
	return NewSetting(SettingSpec{
		Name:       name,
		LegacyName: legacy,
		Permission: UserReadWrite,
		Guard:      NotCycleOrHold,
		Kind:       KindGrbl,
		Default:    def,
	})
}

func TestRegistryNameCollisions(t *testing.T) {
	reg := NewRegistry()
	if err := reg.AddSetting(newTestSetting("Firmware/Build", "30", "")); err != nil {
		t.Fatal(err)
	}

	// Canonical collision, case-insensitive.
	if err := reg.AddSetting(newTestSetting("firmware/build", "", "")); err == nil {
		t.Error("duplicate canonical name accepted")
	}
	// Legacy collision with existing legacy.
	if err := reg.AddSetting(newTestSetting("Other", "30", "")); err == nil {
		t.Error("duplicate legacy name accepted")
	}
	// Commands share the namespace with settings.
	err := reg.AddCommand(NewCommand(CommandSpec{
		Name:   "FIRMWARE/BUILD",
		Action: noopAction,
	}))
	if err == nil {
		t.Error("command colliding with setting name accepted")
	} else if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("unexpected collision error: %v", err)
	}
}

func TestRegistryLegacyEqualsCanonical(t *testing.T) {
	reg := NewRegistry()
	err := reg.AddSetting(newTestSetting("Same", "same", ""))
	if err == nil {
		t.Error("legacy name equal to canonical accepted")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	s := newTestSetting("Report/Inches", "13", "false")
	reg.MustAddSetting(s)
	c := NewCommand(CommandSpec{Name: "Help", LegacyName: "H", Action: noopAction})
	reg.MustAddCommand(c)

	if got := reg.FindSetting("report/inches"); got != s {
		t.Error("FindSetting canonical lookup failed")
	}
	// Canonical lookup never matches legacy aliases.
	if got := reg.FindSetting("13"); got != nil {
		t.Error("FindSetting matched a legacy alias")
	}
	if got := reg.FindSettingLegacy("13"); got != s {
		t.Error("FindSettingLegacy lookup failed")
	}
	if got := reg.FindCommand("help"); got != c {
		t.Error("FindCommand canonical lookup failed")
	}
	if got := reg.FindCommand("h"); got != c {
		t.Error("FindCommand legacy lookup failed")
	}
	if got := reg.FindCommand("nope"); got != nil {
		t.Error("FindCommand matched a missing name")
	}
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry()
	names := []string{"A1", "B2", "C3"}
	for _, n := range names {
		reg.MustAddSetting(newTestSetting(n, "", ""))
	}
	got := reg.Settings()
	if len(got) != len(names) {
		t.Fatalf("got %d settings, want %d", len(got), len(names))
	}
	for i, s := range got {
		if s.Name() != names[i] {
			t.Errorf("settings[%d] = %s, want %s", i, s.Name(), names[i])
		}
	}
}
