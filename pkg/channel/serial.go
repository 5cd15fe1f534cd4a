//go:build linux || darwin

package channel

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SerialConfig holds serial port configuration.
type SerialConfig struct {
	// Name is the diagnostic/port name (e.g., "uart1").
	Name string

	// Device path (e.g., /dev/ttyUSB0, /dev/ttyACM0).
	Device string

	// Baud is the normal operating baud rate (default 115200).
	Baud int

	// PassthroughBaud enables the passthrough bridge for this port when
	// nonzero; the port switches to this rate while bridged.
	PassthroughBaud int
}

// SerialPort is a termios serial device implementing Port.
type SerialPort struct {
	mu          sync.Mutex
	fd          int
	cfg         SerialConfig
	closed      bool
	passthrough bool
	oldTermios  *unix.Termios
}

// OpenSerial opens and configures a serial port in raw 8N1 mode.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial: device path required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	oldTermios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	p := &SerialPort{fd: fd, cfg: cfg, oldTermios: oldTermios}
	if err := p.applyRaw(cfg.Baud); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set blocking: %w", err)
	}
	return p, nil
}

// applyRaw configures raw 8N1 mode at the given baud rate.
func (p *SerialPort) applyRaw(baud int) error {
	termios := *p.oldTermios

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	speed, err := baudToSpeed(baud)
	if err != nil {
		return err
	}
	setSpeed(&termios, speed)

	// Reads return whatever is available; timeouts are handled by poll.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(p.fd, ioctlSetTermios, &termios); err != nil {
		return fmt.Errorf("serial: set termios: %w", err)
	}
	return nil
}

// Name returns the configured port name.
func (p *SerialPort) Name() string {
	return p.cfg.Name
}

// PassthroughBaud returns the configured passthrough rate, zero when
// passthrough is disabled for this port.
func (p *SerialPort) PassthroughBaud() int {
	return p.cfg.PassthroughBaud
}

// EnterPassthrough switches the port to its passthrough baud rate.
func (p *SerialPort) EnterPassthrough() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.cfg.PassthroughBaud == 0 {
		return fmt.Errorf("serial: %s has no passthrough baud configured", p.cfg.Name)
	}
	if err := p.applyRaw(p.cfg.PassthroughBaud); err != nil {
		return err
	}
	p.passthrough = true
	return nil
}

// ExitPassthrough restores the normal operating baud rate.
func (p *SerialPort) ExitPassthrough() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.passthrough {
		return
	}
	p.applyRaw(p.cfg.Baud)
	p.passthrough = false
}

// Write sends raw bytes to the device.
func (p *SerialPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	fd := p.fd
	p.mu.Unlock()

	total := 0
	for total < len(buf) {
		n, err := unix.Write(fd, buf[total:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("serial: write: %w", err)
		}
		total += n
	}
	return total, nil
}

// TimedRead reads up to len(buf) bytes, waiting at most timeout for the
// first byte. A timeout returns (0, nil).
func (p *SerialPort) TimedRead(buf []byte, timeout time.Duration) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	fd := p.fd
	p.mu.Unlock()

	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("serial: poll: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	n, err = unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("serial: read: %w", err)
	}
	return n, nil
}

// Close restores the original termios settings and closes the device.
func (p *SerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.oldTermios != nil {
		unix.IoctlSetTermios(p.fd, ioctlSetTermios, p.oldTermios)
	}
	return unix.Close(p.fd)
}
