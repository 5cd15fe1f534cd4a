package dispatch

import (
	"strconv"
	"strings"
	"time"

	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/log"
	"cnc-dispatch-go/pkg/settings"
	"cnc-dispatch-go/pkg/status"
)

const (
	passthroughDefaultTimeout = 2000 * time.Millisecond
	passthroughChunk          = 256
	passthroughReadTimeout    = 10 * time.Millisecond
)

// parsePassthroughArgs splits the comma-separated value into a target
// name and an inactivity timeout. A token with a trailing 's' is a
// timeout in seconds; anything else names a port; "auto" selects the
// first port with passthrough configured.
func parsePassthroughArgs(value *string, out channel.Channel) (string, time.Duration, bool) {
	name := "auto"
	timeout := passthroughDefaultTimeout
	if value == nil {
		return name, timeout, true
	}
	for _, tok := range strings.Split(*value, ",") {
		switch {
		case tok == "":
		case strings.EqualFold(tok, "auto"):
			name = "auto"
		case tok[len(tok)-1] == 's' || tok[len(tok)-1] == 'S':
			secs, err := strconv.Atoi(tok[:len(tok)-1])
			if err != nil {
				log.ErrorTo(out, "Invalid timeout number")
				return "", 0, false
			}
			timeout = time.Duration(secs) * time.Second
		default:
			name = tok
		}
	}
	return name, timeout, true
}

// uartPassthrough is the $UP action: relay raw bytes between the
// calling channel and a secondary port until traffic stops for the
// configured timeout. Normal line handling on both ends is suspended
// for the duration and restored on every exit path.
func (d *Dispatcher) uartPassthrough(value *string, auth settings.AuthLevel, out channel.Channel) status.Code {
	name, timeout, ok := parsePassthroughArgs(value, out)
	if !ok {
		return status.InvalidValue
	}

	// Resolve the target before touching any channel state.
	var target channel.Port
	if name == "auto" {
		target = d.Ports.FirstPassthrough()
		if target == nil {
			log.ErrorTo(out, "No uart has passthrough_baud configured")
			return status.InvalidValue
		}
	} else {
		target = d.Ports.Find(name)
		if target == nil {
			log.ErrorTo(out, "%s does not exist", name)
			return status.InvalidValue
		}
		if target.PassthroughBaud() == 0 {
			log.ErrorTo(out, "%s does not have passthrough_baud configured", name)
			return status.InvalidValue
		}
	}

	out.Pause()
	defer out.Resume()

	// If a line channel wraps the target port, stop it from consuming
	// the relayed bytes.
	if wrapper := d.Channels.WrapperOf(target); wrapper != nil {
		wrapper.Pause()
		defer wrapper.Resume()
	}

	if err := target.EnterPassthrough(); err != nil {
		log.ErrorTo(out, "Passthrough failed: %v", err)
		return status.InvalidValue
	}
	defer target.ExitPassthrough()

	buffer := make([]byte, passthroughChunk)
	last := time.Now()
	for time.Since(last) < timeout {
		d.Events.Pump()
		if n, _ := out.TimedRead(buffer, passthroughReadTimeout); n > 0 {
			last = time.Now()
			target.Write(buffer[:n])
		}
		if n, _ := target.TimedRead(buffer, passthroughReadTimeout); n > 0 {
			last = time.Now()
			out.Write(buffer[:n])
		}
	}
	return status.Ok
}
