package channel

import (
	"testing"
	"time"

	"cnc-dispatch-go/pkg/event"
)

// fakePort is an in-memory Port for exercising PortChannel.
type fakePort struct {
	name        string
	ptBaud      int
	in          []byte
	wrote       []byte
	passthrough bool
}

func (f *fakePort) Name() string         { return f.name }
func (f *fakePort) PassthroughBaud() int { return f.ptBaud }
func (f *fakePort) EnterPassthrough() error {
	f.passthrough = true
	return nil
}
func (f *fakePort) ExitPassthrough() { f.passthrough = false }
func (f *fakePort) Write(p []byte) (int, error) {
	f.wrote = append(f.wrote, p...)
	return len(p), nil
}
func (f *fakePort) TimedRead(p []byte, timeout time.Duration) (int, error) {
	if len(f.in) == 0 {
		return 0, nil
	}
	n := copy(p, f.in)
	f.in = f.in[n:]
	return n, nil
}

func TestRegistryFindCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	c := NewPipe("uart_channel0")
	r.Add(c)
	if r.Find("UART_Channel0") != c {
		t.Error("Find should be case-insensitive")
	}
	if r.Find("missing") != nil {
		t.Error("Find(missing) should be nil")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	c := NewPipe("a")
	r.Add(c)
	r.Remove(c)
	if len(r.All()) != 0 {
		t.Error("channel not removed")
	}
}

func TestRegistryWrapperOf(t *testing.T) {
	r := NewRegistry()
	port := &fakePort{name: "uart1"}
	wrapper := NewPortChannel("uart_channel1", port, event.NewPump(), nil)
	r.Add(NewPipe("other"))
	r.Add(wrapper)
	if r.WrapperOf(port) != Channel(wrapper) {
		t.Error("WrapperOf did not find the port's channel")
	}
	if r.WrapperOf(&fakePort{name: "uart2"}) != nil {
		t.Error("WrapperOf of unwrapped port should be nil")
	}
}

func TestPortSetFirstPassthrough(t *testing.T) {
	s := NewPortSet(
		&fakePort{name: "uart1"},
		&fakePort{name: "uart2", ptBaud: 115200},
	)
	p := s.FirstPassthrough()
	if p == nil || p.Name() != "uart2" {
		t.Errorf("FirstPassthrough = %v", p)
	}
}

func TestPortSetFindCaseInsensitive(t *testing.T) {
	s := NewPortSet(&fakePort{name: "uart1"})
	if s.Find("UART1") == nil {
		t.Error("Find should be case-insensitive")
	}
	if s.Find("uart9") != nil {
		t.Error("Find(uart9) should be nil")
	}
}

func TestBaseReportInterval(t *testing.T) {
	b := NewBase("x")
	if b.ReportInterval() != 0 {
		t.Error("auto reporting should start off")
	}
	got := b.SetReportInterval(10 * time.Millisecond)
	if got != 50*time.Millisecond {
		t.Errorf("interval = %v, want clamped 50ms", got)
	}
	if b.SetReportInterval(0) != 0 {
		t.Error("zero should turn auto reporting off")
	}
}

func TestBaseNotifications(t *testing.T) {
	b := NewBase("x")
	b.NotifyWco()
	wco, ovr := b.TakeNotifications()
	if !wco || ovr {
		t.Errorf("notifications = %v, %v", wco, ovr)
	}
	wco, ovr = b.TakeNotifications()
	if wco || ovr {
		t.Error("notifications not cleared")
	}
}

func TestAssemblerLinesAndRealtime(t *testing.T) {
	pump := event.NewPump()
	var kinds []event.Kind
	pump.OnEvent(func(ev event.Event) { kinds = append(kinds, ev.Kind) })

	var lines []string
	pipe := NewPipe("test")
	asm := newAssembler(pipe, pump, func(line string, ch Channel) {
		lines = append(lines, line)
	})

	asm.feed([]byte("$H\r\n?G0 X1\n!"))
	pump.Pump()

	if len(lines) != 2 || lines[0] != "$H" || lines[1] != "G0 X1" {
		t.Errorf("lines = %v", lines)
	}
	if len(kinds) != 2 || kinds[0] != event.StatusReport || kinds[1] != event.FeedHold {
		t.Errorf("events = %v", kinds)
	}
}

func TestAssemblerOverflow(t *testing.T) {
	var lines []string
	pipe := NewPipe("test")
	asm := newAssembler(pipe, event.NewPump(), func(line string, ch Channel) {
		lines = append(lines, line)
	})

	long := make([]byte, maxLineLen+10)
	for i := range long {
		long[i] = 'G'
	}
	asm.feed(long)
	asm.feed([]byte("\n$X\n"))

	if len(lines) != 1 || lines[0] != "$X" {
		t.Errorf("lines = %v, want only $X", lines)
	}
}

func TestPipeTimedRead(t *testing.T) {
	p := NewPipe("test")
	p.Feed([]byte("abc"))
	buf := make([]byte, 8)
	n, err := p.TimedRead(buf, 10*time.Millisecond)
	if err != nil || n != 3 || string(buf[:3]) != "abc" {
		t.Errorf("TimedRead = %d, %v, %q", n, err, buf[:n])
	}
	n, err = p.TimedRead(buf, 5*time.Millisecond)
	if err != nil || n != 0 {
		t.Errorf("empty TimedRead = %d, %v", n, err)
	}
}

func TestPortChannelPauseStopsPolling(t *testing.T) {
	port := &fakePort{name: "uart1", in: []byte("$X\n")}
	var lines []string
	c := NewPortChannel("uart_channel1", port, event.NewPump(), func(line string, ch Channel) {
		lines = append(lines, line)
	})
	c.Pause()
	go c.Run()
	time.Sleep(30 * time.Millisecond)
	if len(lines) != 0 {
		t.Errorf("paused channel consumed input: %v", lines)
	}
	c.Resume()
	time.Sleep(100 * time.Millisecond)
	c.Close()
	if len(lines) != 1 || lines[0] != "$X" {
		t.Errorf("lines = %v", lines)
	}
}
