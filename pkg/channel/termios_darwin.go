//go:build darwin

package channel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Platform-specific ioctl constants for macOS
const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// baudToSpeed maps a numeric baud rate to the termios speed constant.
func baudToSpeed(baud int) (uint32, error) {
	speeds := map[int]uint32{
		9600:   unix.B9600,
		19200:  unix.B19200,
		38400:  unix.B38400,
		57600:  unix.B57600,
		115200: unix.B115200,
		230400: unix.B230400,
	}
	speed, ok := speeds[baud]
	if !ok {
		return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}
	return speed, nil
}

// setSpeed sets the baud rate on the termios struct for macOS.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = uint64(speed)
	termios.Ospeed = uint64(speed)
}
