//go:build linux

package channel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Platform-specific ioctl constants for Linux
const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)

// baudToSpeed maps a numeric baud rate to the termios speed constant.
func baudToSpeed(baud int) (uint32, error) {
	speeds := map[int]uint32{
		9600:    unix.B9600,
		19200:   unix.B19200,
		38400:   unix.B38400,
		57600:   unix.B57600,
		115200:  unix.B115200,
		230400:  unix.B230400,
		460800:  unix.B460800,
		921600:  unix.B921600,
		1000000: unix.B1000000,
	}
	speed, ok := speeds[baud]
	if !ok {
		return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}
	return speed, nil
}

// setSpeed sets the baud rate on the termios struct for Linux.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	termios.Ispeed = speed
	termios.Ospeed = speed
}
