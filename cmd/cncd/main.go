// cncd is the command/settings dispatch daemon for a CNC motion
// controller. It accepts protocol lines over serial ports, websockets
// and the console, and routes them through the dispatch engine.
//
// Usage:
//
//	cncd -config machine.yaml [options]
//
// Options:
//
//	-config string  Machine configuration file (YAML)
//	-device string  Primary serial device (e.g. /dev/ttyUSB0)
//	-baud int       Primary serial baud rate (default 115200)
//	-ws string      Websocket listen address (default ":8080", "" to disable)
//	-auth           Enable the authentication gate
//	-loglevel string  VRB, DBG, INFO, WARN or ERR (default INFO)
//	-logfile string   Log file path (default: stderr)
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cnc-dispatch-go/pkg/axes"
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/configtree"
	"cnc-dispatch-go/pkg/control"
	"cnc-dispatch-go/pkg/coords"
	"cnc-dispatch-go/pkg/dispatch"
	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/kinematics"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/state"
	"cnc-dispatch-go/pkg/status"
)

const version = "cncd 0.9.0"

func main() {
	configFile := flag.String("config", "", "Machine configuration file (YAML)")
	device := flag.String("device", "", "Primary serial device")
	baud := flag.Int("baud", 115200, "Primary serial baud rate")
	wsAddr := flag.String("ws", ":8080", "Websocket listen address (empty to disable)")
	auth := flag.Bool("auth", false, "Enable the authentication gate")
	logLevel := flag.String("loglevel", "INFO", "Log level: VRB, DBG, INFO, WARN, ERR")
	logFile := flag.String("logfile", "", "Log file path (default: stderr)")
	flag.Parse()

	startup := log.NewCapture(32 * 1024)
	logOut := io.Writer(os.Stderr)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log.Default().SetWriter(io.MultiWriter(logOut, startup))
	log.Default().SetLevel(log.ParseLevel(*logLevel))

	log.Info("%s starting", version)

	machineState := state.NewHolder(state.Idle)
	tree, cfgErr := loadConfig(*configFile)
	if cfgErr != nil {
		// A broken configuration boots into the config-alarm state so
		// the operator can inspect and fix it over the protocol.
		log.Error("Configuration error: %v", cfgErr)
		machineState.Set(state.ConfigAlarm)
		tree = mustParse("name: unconfigured\n")
	}

	machineAxes := axesFromConfig(tree)
	kinName, _ := tree.Get("kinematics")
	if kinName == "" {
		kinName = "cartesian"
	}
	kin, err := kinematics.New(kinName)
	if err != nil {
		log.Error("Unknown kinematics %q: %v", kinName, err)
		machineState.Set(state.ConfigAlarm)
		kin, _ = kinematics.New("cartesian")
	}
	log.Info("Kinematics: %s, %d axes", kin.Name(), machineAxes.NumberAxis)

	events := event.NewPump()
	channels := channel.NewRegistry()
	ports := channel.NewPortSet()
	store := settings.NewMemStorage()
	registry := settings.NewRegistry()
	settings.RegisterStandard(registry)
	registry.LoadAll(store)

	coordStore := coords.NewStore(machineAxes.NumberAxis, channels)
	pins := control.NewPins()
	motion := &motionShim{state: machineState}

	d := &dispatch.Dispatcher{
		Registry:    registry,
		Config:      tree,
		State:       machineState,
		Events:      events,
		Channels:    channels,
		Ports:       ports,
		Coords:      coordStore,
		Axes:        machineAxes,
		Kin:         kin,
		Storage:     store,
		Motion:      motion,
		Control:     pins,
		Motors:      &motorShim{},
		Runner:      &homingShim{state: machineState, kin: kin},
		AuthEnabled: *auth,
		BuildInfo:   version,
		Startup:     startup,
	}
	d.RegisterCommands()

	core := &control.Core{
		State:    machineState,
		Events:   events,
		Channels: channels,
		Coords:   coordStore,
		OnAlarm:  d.SetLastAlarm,
	}
	core.Attach()

	handler := func(line string, ch channel.Channel) {
		code := d.ExecuteLine(line, ch, settings.Admin)
		if code.IsOk() {
			log.StringTo(ch, "ok")
			return
		}
		log.StringTo(ch, "error:"+strconv.Itoa(int(code)))
		log.Debug("%s: %q -> %v", ch.Name(), line, code)
	}

	if *device != "" {
		port, err := channel.OpenSerial(channel.SerialConfig{
			Name:   "uart_channel0",
			Device: *device,
			Baud:   *baud,
		})
		if err != nil {
			log.Error("Cannot open %s: %v", *device, err)
			os.Exit(1)
		}
		defer port.Close()
		serialCh := channel.NewPortChannel("uart_channel0", port, events, handler)
		channels.Add(serialCh)
		go serialCh.Run()
	}
	for _, p := range portsFromConfig(tree) {
		ports.Add(p)
	}

	var ws *channel.WSServer
	if *wsAddr != "" {
		ws = channel.NewWSServer(*wsAddr, channels, events, handler)
		if err := ws.Start(); err != nil {
			log.Error("Websocket server: %v", err)
			os.Exit(1)
		}
		defer ws.Stop()
	}

	console := newConsole()
	channels.Add(console)
	go console.Run(events, handler)

	runStartupLines(d, registry, machineState)
	go autoReporter(core, channels, machineState)

	log.Info("Ready")
	console.WriteString("Grbl 3.1 [" + version + " '$' for help]\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down")
}

func mustParse(src string) *configtree.Tree {
	t, err := configtree.Parse([]byte(src))
	if err != nil {
		panic(err)
	}
	return t
}

func loadConfig(path string) (*configtree.Tree, error) {
	if path == "" {
		return mustParse("name: default\n"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return configtree.Parse(data)
}

// axesFromConfig builds the axis set from the configuration tree's
// axes section, defaulting to a bare three-axis machine.
func axesFromConfig(tree *configtree.Tree) *axes.Axes {
	a := &axes.Axes{}
	for i := 0; i < axes.MaxAxes; i++ {
		letter := string(axes.Letters[i]+('x'-'X')) // lower case
		base := "axes/" + letter
		if _, ok := tree.Get(base); !ok {
			break
		}
		ac := &axes.AxisConfig{Motors: 1}
		if v, ok := tree.Get(base + "/motors"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ac.Motors = n
			}
		}
		if v, ok := tree.Get(base + "/hard_limits"); ok {
			ac.HardLimits = v == "true"
		}
		if _, ok := tree.Get(base + "/homing"); ok {
			h := &axes.HomingConfig{Cycle: 1}
			if v, ok := tree.Get(base + "/homing/cycle"); ok {
				if n, err := strconv.Atoi(v); err == nil {
					h.Cycle = n
				}
			}
			if v, ok := tree.Get(base + "/homing/allow_single_axis"); ok {
				h.AllowSingleAxis = v == "true"
			}
			if v, ok := tree.Get(base + "/homing/positive_direction"); ok {
				h.Positive = v == "true"
			}
			ac.Homing = h
		}
		a.Axis = append(a.Axis, ac)
		a.NumberAxis++
	}
	if a.NumberAxis == 0 {
		a.NumberAxis = 3
		a.Axis = []*axes.AxisConfig{{Motors: 1}, {Motors: 1}, {Motors: 1}}
	}
	if v, ok := tree.Get("shared_stepper_disable"); ok {
		a.SharedDisable = v == "true"
	}
	return a
}

// portsFromConfig opens the secondary uarts listed under uarts/, used
// by the passthrough bridge.
func portsFromConfig(tree *configtree.Tree) []channel.Port {
	var out []channel.Port
	for i := 1; i < 4; i++ {
		base := "uarts/uart" + strconv.Itoa(i)
		dev, ok := tree.Get(base + "/device")
		if !ok {
			continue
		}
		cfg := channel.SerialConfig{Name: "uart" + strconv.Itoa(i), Device: dev, Baud: 115200}
		if v, ok := tree.Get(base + "/baud"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.Baud = n
			}
		}
		if v, ok := tree.Get(base + "/passthrough_baud"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.PassthroughBaud = n
			}
		}
		port, err := channel.OpenSerial(cfg)
		if err != nil {
			log.Warn("Cannot open %s (%s): %v", cfg.Name, dev, err)
			continue
		}
		out = append(out, port)
	}
	return out
}

// runStartupLines feeds the stored startup lines through dispatch once
// at boot, like lines typed on a channel.
func runStartupLines(d *dispatch.Dispatcher, reg *settings.Registry, st *state.Holder) {
	if !st.Is(state.Idle) {
		return
	}
	sink := channel.NewPipe("startup")
	for _, name := range []string{settings.StartupLine0, settings.StartupLine1} {
		s := reg.FindSetting(name)
		if s == nil || s.StringValue() == "" {
			continue
		}
		if code := d.ExecuteLine(s.StringValue(), sink, settings.Admin); !code.IsOk() {
			log.Error("Startup line %s failed: %v", name, code)
		}
	}
}

// autoReporter drives the per-channel auto status reports requested
// via $RI.
func autoReporter(core *control.Core, channels *channel.Registry, st *state.Holder) {
	last := time.Now()
	for {
		time.Sleep(50 * time.Millisecond)
		due := false
		for _, ch := range channels.All() {
			iv := ch.ReportInterval()
			if iv != 0 && time.Since(last) >= iv {
				due = true
			}
		}
		if due {
			core.ReportStatus()
			last = time.Now()
		}
	}
}

// motionShim stands in for the G-code engine. Real motion planning is
// outside this daemon; lines are acknowledged and logged so the
// protocol surface stays exercisable end to end.
type motionShim struct {
	state *state.Holder
}

func (m *motionShim) ExecuteGcode(line string) status.Code {
	log.Debug("gcode: %s", line)
	return status.Ok
}
func (m *motionShim) SynchronizeBuffer() {}
func (m *motionShim) JobActive() bool    { return false }
func (m *motionShim) SkipBlocks() bool   { return false }
func (m *motionShim) ReportModes(out log.LineWriter) {
	log.StringTo(out, "[GC:G0 G54 G17 G21 G90 G94 M5 M9 T0 F0 S0]")
}
func (m *motionShim) Abort() {
	m.state.Set(state.Idle)
}

type motorShim struct{}

func (motorShim) SetDisableAll(disable bool)        {}
func (motorShim) SetDisable(axis int, disable bool) {}
func (motorShim) Init()                             {}

// homingShim drives simulated homing cycles: it enters the homing
// state and leaves it after a short delay, honoring the kinematics
// restrictions on simultaneous axis sets.
type homingShim struct {
	state *state.Holder
	kin   kinematics.Kinematics
}

func (h *homingShim) RunCycles(mask axes.Mask) {
	if mask != axes.AllCycles && !h.kin.CanHome(mask) {
		log.Error("Kinematics cannot home %v together", mask)
		return
	}
	h.state.Set(state.Homing)
	go func() {
		time.Sleep(100 * time.Millisecond)
		h.state.Set(state.Idle)
	}()
}

func (h *homingShim) SetAllAxesHomed() {}

// console is the stdin/stdout channel.
type console struct {
	channel.Base
	lines chan string
}

func newConsole() *console {
	c := &console{Base: channel.NewBase("console"), lines: make(chan string, 16)}
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
		close(c.lines)
	}()
	return c
}

func (c *console) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (c *console) WriteString(s string) (int, error) {
	return os.Stdout.WriteString(s)
}

func (c *console) TimedRead(p []byte, timeout time.Duration) (int, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return 0, channel.ErrClosed
		}
		n := copy(p, line+"\n")
		return n, nil
	case <-time.After(timeout):
		return 0, nil
	}
}

// Run feeds console lines to the dispatcher. While paused, lines stay
// queued for TimedRead instead of being consumed here.
func (c *console) Run(events *event.Pump, handler channel.LineHandler) {
	for {
		if c.Paused() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		line, ok := <-c.lines
		if !ok {
			return
		}
		handler(line, c)
		events.Pump()
	}
}
