package dispatch

import (
	"strings"
	"testing"

	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/configtree"
	"cnc-dispatch-go/pkg/coords"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/kinematics"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

type fakeMotion struct {
	lines   []string
	result  status.Code
	synced  int
	job     bool
	skip    bool
	aborted bool
}

func (m *fakeMotion) ExecuteGcode(line string) status.Code {
	m.lines = append(m.lines, line)
	return m.result
}
func (m *fakeMotion) SynchronizeBuffer() { m.synced++ }
func (m *fakeMotion) JobActive() bool    { return m.job }
func (m *fakeMotion) SkipBlocks() bool   { return m.skip }
func (m *fakeMotion) ReportModes(out log.LineWriter) {
	out.WriteString("[GC:G0 G54 G17]\n")
}
func (m *fakeMotion) Abort() { m.aborted = true }

type fakeControl struct {
	doorAjar    bool
	stuck       bool
	blockUnlock bool
}

func (c *fakeControl) SafetyDoorAjar() bool  { return c.doorAjar }
func (c *fakeControl) Stuck() bool           { return c.stuck }
func (c *fakeControl) PinsBlockUnlock() bool { return c.blockUnlock }
func (c *fakeControl) ReportStatus() string  { return "door" }

type fakeRunner struct {
	masks    []axes.Mask
	homedAll bool
	onRun    func()
}

func (r *fakeRunner) RunCycles(m axes.Mask) {
	r.masks = append(r.masks, m)
	if r.onRun != nil {
		r.onRun()
	}
}
func (r *fakeRunner) SetAllAxesHomed() { r.homedAll = true }

func testAxes() *axes.Axes {
	return &axes.Axes{
		NumberAxis: 3,
		Axis: []*axes.AxisConfig{
			{Motors: 1, Homing: &axes.HomingConfig{Cycle: 2, AllowSingleAxis: true}},
			{Motors: 1, Homing: &axes.HomingConfig{Cycle: 2}},
			{Motors: 1, Homing: &axes.HomingConfig{Cycle: 1, AllowSingleAxis: true}},
		},
	}
}

type fixture struct {
	d       *Dispatcher
	out     *channel.Pipe
	motion  *fakeMotion
	control *fakeControl
	runner  *fakeRunner
	store   *settings.MemStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree, err := configtree.Parse([]byte("board: test\naxes:\n  x:\n    steps_per_mm: 80\n"))
	if err != nil {
		t.Fatal(err)
	}
	kin, err := kinematics.New("cartesian")
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		out:     channel.NewPipe("test"),
		motion:  &fakeMotion{result: status.Ok},
		control: &fakeControl{},
		runner:  &fakeRunner{},
		store:   settings.NewMemStorage(),
	}
	f.d = &Dispatcher{
		Registry:    settings.NewRegistry(),
		Config:      tree,
		State:       state.NewHolder(state.Idle),
		Events:      event.NewPump(),
		Channels:    channel.NewRegistry(),
		Ports:       channel.NewPortSet(),
		Axes:        testAxes(),
		Kin:         kin,
		Storage:     f.store,
		Motion:      f.motion,
		Control:     f.control,
		Runner:      f.runner,
		AuthEnabled: true,
		BuildInfo:   "test 0.1",
	}
	f.d.Coords = coords.NewStore(3, f.d.Channels)
	f.d.Channels.Add(f.out)
	f.d.RegisterCommands()

	f.d.Registry.MustAddSetting(settings.NewSetting(settings.SettingSpec{
		Name:       "Planner/Junction",
		LegacyName: "11",
		Permission: settings.UserReadWrite,
		Guard:      settings.NotCycleOrHold,
		Kind:       settings.KindGrbl,
		Default:    "0.010",
	}))
	f.d.Registry.MustAddSetting(settings.NewSetting(settings.SettingSpec{
		Name:       "Hostname",
		Permission: settings.AdminOnlyWrite,
		Guard:      settings.NotCycleOrHold,
		Kind:       settings.KindWeb,
		Default:    "cnc",
	}))
	return f
}

func (f *fixture) run(line string, auth settings.AuthLevel) status.Code {
	return f.d.ExecuteLine(line, f.out, auth)
}

func TestExecuteLineEmpty(t *testing.T) {
	f := newFixture(t)
	if code := f.run("", settings.Admin); !code.IsOk() {
		t.Errorf("empty line = %v", code)
	}
	if code := f.run("   ", settings.Admin); !code.IsOk() {
		t.Errorf("blank line = %v", code)
	}
}

func TestExecuteLineGcodeLock(t *testing.T) {
	f := newFixture(t)
	for _, s := range []state.State{state.Alarm, state.ConfigAlarm, state.Jog} {
		f.d.State.Set(s)
		if code := f.run("G0 X1", settings.Admin); code != status.SystemGcLock {
			t.Errorf("gcode in %v = %v, want SystemGcLock", s, code)
		}
	}
	if len(f.motion.lines) != 0 {
		t.Error("locked gcode reached the executor")
	}

	f.d.State.Set(state.Idle)
	if code := f.run("G0 X1", settings.Admin); !code.IsOk() {
		t.Errorf("gcode in Idle = %v", code)
	}
	if len(f.motion.lines) != 1 || f.motion.lines[0] != "G0 X1" {
		t.Errorf("executor got %v", f.motion.lines)
	}
}

func TestExecuteLineBadGcode(t *testing.T) {
	f := newFixture(t)
	f.motion.result = status.GcodeError
	f.motion.job = true
	if code := f.run("G999", settings.Admin); code != status.GcodeError {
		t.Errorf("bad gcode = %v", code)
	}
	if !strings.Contains(f.out.Output(), "Bad GCode: G999") {
		t.Error("bad gcode not reported to the channel")
	}
	if f.d.Events.Pending() == 0 {
		t.Error("no alarm posted for a failing job line")
	}
}

func TestExecuteLineSkipBlocks(t *testing.T) {
	f := newFixture(t)
	f.motion.skip = true
	if code := f.run("$X", settings.Admin); !code.IsOk() {
		t.Errorf("skipped line = %v", code)
	}
	if f.out.Output() != "" {
		t.Error("skipped command produced output")
	}
}

func TestSettingReadAndWrite(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$Planner/Junction", settings.Admin); !code.IsOk() {
		t.Fatalf("read = %v", code)
	}
	if !strings.Contains(f.out.Output(), "$Planner/Junction=0.010") {
		t.Errorf("read output: %q", f.out.Output())
	}

	if code := f.run("$Planner/Junction=0.020", settings.Admin); !code.IsOk() {
		t.Fatalf("write = %v", code)
	}
	if got := f.d.Registry.FindSetting("Planner/Junction").StringValue(); got != "0.020" {
		t.Errorf("value after write = %q", got)
	}
	// Writes persist.
	if v, ok := f.store.Get("Planner/Junction"); !ok || v != "0.020" {
		t.Errorf("stored value = %q, %v", v, ok)
	}
}

func TestSettingLegacyReadUsesCompatibleForm(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$11", settings.Admin); !code.IsOk() {
		t.Fatalf("legacy read = %v", code)
	}
	if !strings.Contains(f.out.Output(), "$11=0.010") {
		t.Errorf("legacy read output: %q", f.out.Output())
	}
}

func TestSettingWriteDecodesValue(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$Hostname=mill%21", settings.Admin); !code.IsOk() {
		t.Fatalf("write = %v", code)
	}
	if got := f.d.Registry.FindSetting("Hostname").StringValue(); got != "mill!" {
		t.Errorf("decoded value = %q", got)
	}
}

func TestSettingDisplayEncodesValue(t *testing.T) {
	f := newFixture(t)
	f.d.Registry.FindSetting("Hostname").SetStringValue("a!b?c")
	if code := f.run("$Hostname", settings.Admin); !code.IsOk() {
		t.Fatal("read failed")
	}
	if !strings.Contains(f.out.Output(), "$Hostname=a%21b%3Fc") {
		t.Errorf("display output: %q", f.out.Output())
	}
}

func TestConfigTreeBeatsFlatSettings(t *testing.T) {
	f := newFixture(t)
	// Register a flat setting shadowed by a tree path; the tree wins.
	f.d.Registry.MustAddSetting(settings.NewSetting(settings.SettingSpec{
		Name:    "board",
		Default: "flat",
	}))
	if code := f.run("$board", settings.Admin); !code.IsOk() {
		t.Fatal("read failed")
	}
	if !strings.Contains(f.out.Output(), "$board=test") {
		t.Errorf("tree value not shown: %q", f.out.Output())
	}
	if strings.Contains(f.out.Output(), "flat") {
		t.Error("flat setting shadowed the config tree")
	}
}

func TestConfigTreeWrite(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$axes/x/steps_per_mm=100", settings.Admin); !code.IsOk() {
		t.Fatalf("tree write = %v", code)
	}
	if v, _ := f.d.Config.Get("axes/x/steps_per_mm"); v != "100" {
		t.Errorf("tree value after write = %q", v)
	}
}

func TestConfigTreeValidationFailure(t *testing.T) {
	f := newFixture(t)
	f.d.Config.OnValidate(func(tr *configtree.Tree) error {
		return &configtree.ParseError{Line: 1, Msg: "bad steps"}
	})
	if code := f.run("$axes/x/steps_per_mm=100", settings.Admin); code != status.ConfigurationInvalid {
		t.Errorf("failing validation = %v, want ConfigurationInvalid", code)
	}
	// Display requests skip validation.
	if code := f.run("$axes/x/steps_per_mm", settings.Admin); !code.IsOk() {
		t.Error("display ran validation")
	}
}

func TestCommandBeatsPatternMatch(t *testing.T) {
	f := newFixture(t)
	// "Hostname" contains "h"; the H command must still win over the
	// pattern fallback.
	f.d.State.Set(state.Idle)
	if code := f.run("$H", settings.Admin); !code.IsOk() {
		t.Fatalf("$H = %v", code)
	}
	if len(f.runner.masks) != 1 {
		t.Error("home command did not run")
	}
	if strings.Contains(f.out.Output(), "Hostname") {
		t.Error("pattern fallback ran despite a command match")
	}
}

func TestPatternMatchReadOnly(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$Plan*", settings.Admin); !code.IsOk() {
		t.Fatalf("pattern read = %v", code)
	}
	if !strings.Contains(f.out.Output(), "$Planner/Junction=") {
		t.Errorf("pattern read output: %q", f.out.Output())
	}

	f.out.ResetOutput()
	if code := f.run("$Plan*=5", settings.Admin); code != status.InvalidStatement {
		t.Errorf("pattern write = %v, want InvalidStatement", code)
	}

	if code := f.run("$NoSuchThing", settings.Admin); code != status.InvalidStatement {
		t.Errorf("no match = %v, want InvalidStatement", code)
	}
}

func TestCommandAuthGate(t *testing.T) {
	f := newFixture(t)
	// RST is admin-write; a user write is denied before anything runs.
	if code := f.run("$RST=*", settings.User); code != status.AuthenticationFailed {
		t.Errorf("user RST write = %v, want AuthenticationFailed", code)
	}
	// Guest cannot touch user-level commands at all.
	if code := f.run("$T", settings.Guest); code != status.AuthenticationFailed {
		t.Errorf("guest command = %v, want AuthenticationFailed", code)
	}
}

func TestAuthDisabledForcesAdmin(t *testing.T) {
	f := newFixture(t)
	f.d.AuthEnabled = false
	if code := f.run("$RST=#", settings.Guest); !code.IsOk() {
		t.Errorf("RST with auth disabled = %v", code)
	}
}

func TestSettingWritesSkipAuthGate(t *testing.T) {
	f := newFixture(t)
	// Flat setting lookups deliberately do not consult the gate; a
	// guest write to a user-level setting goes through.
	if code := f.run("$Planner/Junction=0.5", settings.Guest); !code.IsOk() {
		t.Errorf("guest setting write = %v", code)
	}
}

func TestCommandStateGuard(t *testing.T) {
	f := newFixture(t)
	// $# requires idle or alarm.
	f.d.State.Set(state.Cycle)
	if code := f.run("$#", settings.Admin); code != status.IdleError {
		t.Errorf("offsets in Cycle = %v, want IdleError", code)
	}
	f.d.State.Set(state.ConfigAlarm)
	if code := f.run("$#", settings.Admin); code != status.ConfigurationInvalid {
		t.Errorf("offsets in ConfigAlarm = %v, want ConfigurationInvalid", code)
	}
}

func TestSettingWriteStateGuard(t *testing.T) {
	f := newFixture(t)
	f.d.State.Set(state.Cycle)
	if code := f.run("$Planner/Junction=0.5", settings.Admin); code != status.IdleError {
		t.Errorf("setting write in Cycle = %v, want IdleError", code)
	}
	if got := f.d.Registry.FindSetting("Planner/Junction").StringValue(); got != "0.010" {
		t.Error("guarded write still mutated the value")
	}
}

func TestBareDollarShowsHelp(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$", settings.Admin); !code.IsOk() {
		t.Fatalf("$ = %v", code)
	}
	if !strings.Contains(f.out.Output(), "HLP:") {
		t.Errorf("help output: %q", f.out.Output())
	}
}

func TestCommandEmptyValueMeansNoArgument(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$A=", settings.Admin); !code.IsOk() {
		t.Fatalf("$A= = %v", code)
	}
	if strings.Contains(f.out.Output(), "Malformed") {
		t.Errorf("$A= treated empty value as an argument: %q", f.out.Output())
	}
	if !strings.Contains(f.out.Output(), "1: ") {
		t.Errorf("$A= should list all alarms: %q", f.out.Output())
	}
	f.out.ResetOutput()
	if code := f.run("$I=", settings.Admin); !code.IsOk() {
		t.Fatalf("$I= = %v", code)
	}
	if !strings.Contains(f.out.Output(), "[VER:") {
		t.Errorf("$I= should report build info: %q", f.out.Output())
	}
}

func TestJogRebuildsLine(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$J=G91 X10 F500", settings.Admin); !code.IsOk() {
		t.Fatalf("jog = %v", code)
	}
	if len(f.motion.lines) != 1 || f.motion.lines[0] != "$J=G91 X10 F500" {
		t.Errorf("executor got %v", f.motion.lines)
	}
	// Bare $J has nothing to jog.
	if code := f.run("$J", settings.Admin); code != status.InvalidStatement {
		t.Errorf("bare $J = %v, want InvalidStatement", code)
	}
}

func TestCheckModeToggle(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$C", settings.Admin); !code.IsOk() {
		t.Fatalf("enable check mode = %v", code)
	}
	if !f.d.State.Is(state.CheckMode) {
		t.Error("state not CheckMode after $C")
	}
	if code := f.run("$C", settings.Admin); !code.IsOk() {
		t.Fatalf("disable check mode = %v", code)
	}
	if !f.motion.aborted {
		t.Error("toggling check mode off did not abort")
	}

	f.d.State.Set(state.Cycle)
	if code := f.run("$C", settings.Admin); code != status.IdleError {
		t.Errorf("check mode in Cycle = %v, want IdleError", code)
	}
}

func TestAlarmUnlock(t *testing.T) {
	f := newFixture(t)
	f.d.State.Set(state.Alarm)
	if code := f.run("$X", settings.Admin); !code.IsOk() {
		t.Fatalf("$X = %v", code)
	}
	if !f.d.State.Is(state.Idle) {
		t.Error("unlock did not clear the alarm state")
	}
	if !f.runner.homedAll {
		t.Error("unlock did not mark axes homed")
	}

	f.d.State.Set(state.Alarm)
	f.control.doorAjar = true
	if code := f.run("$X", settings.Admin); code != status.CheckDoor {
		t.Errorf("$X with door ajar = %v, want CheckDoor", code)
	}
	f.control.doorAjar = false
	f.control.stuck = true
	if code := f.run("$X", settings.Admin); code != status.CheckControlPins {
		t.Errorf("$X with stuck pin = %v, want CheckControlPins", code)
	}
}

func TestRestoreCommand(t *testing.T) {
	f := newFixture(t)
	f.d.Registry.FindSetting("Planner/Junction").SetStringValue("9.9")
	f.d.Coords.SetWorkOffset(0, []float64{5, 5, 5})

	if code := f.run("$RST=*", settings.Admin); !code.IsOk() {
		t.Fatalf("$RST=* = %v", code)
	}
	if !f.d.Registry.FindSetting("Planner/Junction").IsDefault() {
		t.Error("full restore left a changed setting")
	}
	for _, v := range f.d.Coords.WorkOffset(0) {
		if v != 0 {
			t.Fatal("full restore left offsets")
		}
	}

	if code := f.run("$RST=bogus", settings.Admin); code != status.InvalidStatement {
		t.Errorf("unknown category = %v, want InvalidStatement", code)
	}
}

func TestMotorDisableSharedPin(t *testing.T) {
	f := newFixture(t)
	f.d.Axes.SharedDisable = true
	if code := f.run("$MD=X", settings.Admin); code != status.InvalidStatement {
		t.Errorf("per-axis disable with shared pin = %v, want InvalidStatement", code)
	}
}

func TestReportIntervalCommand(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$RI=200", settings.Admin); !code.IsOk() {
		t.Fatalf("$RI=200 = %v", code)
	}
	if f.out.ReportInterval().Milliseconds() != 200 {
		t.Errorf("interval = %v", f.out.ReportInterval())
	}
	wco, ovr := f.out.TakeNotifications()
	if !wco || !ovr {
		t.Error("interval change did not request an immediate full report")
	}
	if code := f.run("$RI=junk", settings.Admin); code != status.BadNumberFormat {
		t.Errorf("$RI=junk = %v, want BadNumberFormat", code)
	}
}

func TestOffsetsReport(t *testing.T) {
	f := newFixture(t)
	if code := f.run("$#", settings.Admin); !code.IsOk() {
		t.Fatalf("$# = %v", code)
	}
	for _, want := range []string{"[G54:", "[G28:", "[G92:", "[TLO:", "[PRB:"} {
		if !strings.Contains(f.out.Output(), want) {
			t.Errorf("offsets report missing %q", want)
		}
	}
}

func TestListingsRedactByAuth(t *testing.T) {
	f := newFixture(t)
	f.d.Registry.FindSetting("Hostname").SetStringValue("secret")
	// Guests see open settings only; everything else is redacted in $S.
	if code := f.run("$S", settings.Guest); code != status.AuthenticationFailed {
		// $S itself is user-level, so the guest never gets the listing.
		t.Errorf("guest $S = %v, want AuthenticationFailed", code)
	}
	f.out.ResetOutput()
	if code := f.run("$S", settings.User); !code.IsOk() {
		t.Fatalf("user $S = %v", code)
	}
	if !strings.Contains(f.out.Output(), "Hostname=secret") {
		t.Error("user read of WA setting should not be redacted")
	}
}
